package portal

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/postulamatic/harvester/internal/domain/models"
)

const (
	testBaseURL  = "https://portal.example.com"
	testLoginURL = "https://portal.example.com/login"
)

const loginPage = `<html><body>
<form action="/do_login" method="post">
	<input type="hidden" name="csrf_token" value="tok-123"/>
	<input type="text" name="user"/>
	<input type="password" name="pass"/>
</form>
</body></html>`

type fakeDriver struct {
	pages      map[string]*PageResponse
	submitResp *PageResponse
	submitErr  error
	fetches    []string
	submitURLs []string
	submits    []url.Values
}

func (d *fakeDriver) Fetch(_ context.Context, pageURL string) (*PageResponse, error) {
	d.fetches = append(d.fetches, pageURL)
	if page, ok := d.pages[pageURL]; ok {
		return page, nil
	}
	return &PageResponse{StatusCode: 404, FinalURL: pageURL}, nil
}

func (d *fakeDriver) SubmitForm(_ context.Context, actionURL string, fields url.Values) (*PageResponse, error) {
	d.submitURLs = append(d.submitURLs, actionURL)
	d.submits = append(d.submits, fields)
	return d.submitResp, d.submitErr
}

func newTestAuthenticator(driver *fakeDriver) *Authenticator {
	auth := NewAuthenticator(driver, testBaseURL, testLoginURL)
	auth.SetDelays(0, 0, 0, 0)
	return auth
}

func Test_Authenticate_SubmitsDiscoveredFormAndReturnsSession(t *testing.T) {

	driver := &fakeDriver{
		pages: map[string]*PageResponse{
			testLoginURL: {Body: loginPage, StatusCode: 200, FinalURL: testLoginURL},
		},
		submitResp: &PageResponse{
			Body:       "<html><body>Bienvenido al panel</body></html>",
			StatusCode: 200,
			FinalURL:   testBaseURL + "/dashboard",
		},
	}

	session, err := newTestAuthenticator(driver).Authenticate(context.Background(),
		models.Credentials{Username: "maria", Password: "s3cret"})

	assert.NoError(t, err)
	assert.NotNil(t, session)

	assert.Equal(t, []string{testBaseURL + "/do_login"}, driver.submitURLs)
	fields := driver.submits[0]
	assert.Equal(t, "maria", fields.Get("user"))
	assert.Equal(t, "s3cret", fields.Get("pass"))
	assert.Equal(t, "tok-123", fields.Get("csrf_token"))
}

func Test_Authenticate_WhenCredentialsRejected_ShouldNotRetry(t *testing.T) {

	driver := &fakeDriver{
		pages: map[string]*PageResponse{
			testLoginURL: {Body: loginPage, StatusCode: 200, FinalURL: testLoginURL},
		},
		submitResp: &PageResponse{
			Body:       "<html><body>Credenciales incorrectas</body></html>",
			StatusCode: 200,
			FinalURL:   testLoginURL,
		},
	}

	session, err := newTestAuthenticator(driver).Authenticate(context.Background(),
		models.Credentials{Username: "maria", Password: "wrong"})

	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.Len(t, driver.submits, 1)
}

func Test_Authenticate_WhenResponseHasNoMarkers_ShouldFailClosed(t *testing.T) {

	driver := &fakeDriver{
		pages: map[string]*PageResponse{
			testLoginURL: {Body: loginPage, StatusCode: 200, FinalURL: testLoginURL},
		},
		submitResp: &PageResponse{
			Body:       "<html><body><p>...</p></body></html>",
			StatusCode: 200,
			FinalURL:   testLoginURL,
		},
	}

	session, err := newTestAuthenticator(driver).Authenticate(context.Background(),
		models.Credentials{Username: "maria", Password: "s3cret"})

	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func Test_Authenticate_WhenBlocked_ShouldRetryThenGiveUp(t *testing.T) {

	driver := &fakeDriver{
		pages: map[string]*PageResponse{
			testLoginURL: {Body: "Checking your browser", StatusCode: 403, FinalURL: testLoginURL},
		},
	}

	session, err := newTestAuthenticator(driver).Authenticate(context.Background(),
		models.Credentials{Username: "maria", Password: "s3cret"})

	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrAntiBotBlocked)
	assert.Len(t, driver.fetches, 3)
	assert.Empty(t, driver.submits)
}

func Test_Authenticate_WhenCredentialsEmpty_ShouldFailWithoutRequests(t *testing.T) {

	driver := &fakeDriver{}

	session, err := newTestAuthenticator(driver).Authenticate(context.Background(), models.Credentials{})

	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.Empty(t, driver.fetches)
}

func Test_ParseLoginForm_FallsBackToMetaCsrfToken(t *testing.T) {

	page := `<html><head><meta name="csrf-token" content="meta-tok"/></head><body>
<form method="post">
	<input type="text" name="username"/>
	<input type="password" name="clave"/>
</form>
</body></html>`

	auth := NewAuthenticator(&fakeDriver{}, testBaseURL, testLoginURL)
	form, err := auth.parseLoginForm(page)

	assert.NoError(t, err)
	assert.Equal(t, "username", form.usernameField)
	assert.Equal(t, "clave", form.passwordField)
	assert.Equal(t, "csrf_token", form.csrfName)
	assert.Equal(t, "meta-tok", form.csrfValue)
	assert.Equal(t, testLoginURL, form.actionURL)
}
