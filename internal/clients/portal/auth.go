package portal

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/postulamatic/harvester/internal/domain/models"
)

// Session is a live authenticated portal session. State (cookies, tokens)
// lives inside the driver; the session just proves authentication happened.
type Session struct {
	driver        TransportDriver
	establishedAt time.Time
}

func (s *Session) Driver() TransportDriver { return s.driver }

// Authenticator logs in against the portal: form discovery, anti-forgery
// token handling, retry with backoff, and anti-bot-block detection. A
// credential rejection is terminal immediately; only transport trouble and
// anti-bot blocks consume the retry budget.
type Authenticator struct {
	driver       TransportDriver
	baseURL      string
	loginURL     string
	maxAttempts  int
	retryDelay   [2]time.Duration
	blockBackoff [2]time.Duration
	rng          *rand.Rand
	sleep        func(time.Duration)
}

func NewAuthenticator(driver TransportDriver, baseURL, loginURL string) *Authenticator {
	return &Authenticator{
		driver:       driver,
		baseURL:      baseURL,
		loginURL:     loginURL,
		maxAttempts:  3,
		retryDelay:   [2]time.Duration{5 * time.Second, 10 * time.Second},
		blockBackoff: [2]time.Duration{10 * time.Second, 20 * time.Second},
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:        time.Sleep,
	}
}

// SetDelays overrides the retry and anti-bot backoff ranges. Zero ranges
// disable waiting, which tests rely on.
func (a *Authenticator) SetDelays(retryMin, retryMax, blockMin, blockMax time.Duration) {
	a.retryDelay = [2]time.Duration{retryMin, retryMax}
	a.blockBackoff = [2]time.Duration{blockMin, blockMax}
}

// Authenticate performs the login protocol and returns a live session.
// Returned errors wrap ErrBadCredentials, ErrAntiBotBlocked or a
// *RequestError so callers can route remediation.
func (a *Authenticator) Authenticate(ctx context.Context, creds models.Credentials) (*Session, error) {
	if creds.Empty() {
		return nil, errors.Wrap(ErrBadCredentials, "empty username or password")
	}
	username, password := creds.Username, creds.Password

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		session, err := a.attemptLogin(ctx, username, password)
		if err == nil {
			return session, nil
		}
		if errors.Is(err, ErrBadCredentials) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err

		if attempt == a.maxAttempts {
			break
		}

		delay := a.retryDelay
		if errors.Is(err, ErrAntiBotBlocked) {
			delay = a.blockBackoff
		}
		wait := a.randomWait(delay, attempt)
		log.Warnf("login attempt %d/%d failed (%v), retrying in %v", attempt, a.maxAttempts, err, wait)
		a.sleep(wait)
	}

	return nil, lastErr
}

func (a *Authenticator) attemptLogin(ctx context.Context, username, password string) (*Session, error) {
	page, err := a.driver.Fetch(ctx, a.loginURL)
	if err != nil {
		return nil, err
	}
	if blocked(page) {
		return nil, errors.Wrapf(ErrAntiBotBlocked, "login page returned status %d", page.StatusCode)
	}
	if page.StatusCode >= 400 {
		return nil, &RequestError{URL: a.loginURL, Status: page.StatusCode}
	}

	form, err := a.parseLoginForm(page.Body)
	if err != nil {
		return nil, err
	}

	fields := url.Values{}
	fields.Set(form.usernameField, username)
	fields.Set(form.passwordField, password)
	if form.csrfName != "" {
		fields.Set(form.csrfName, form.csrfValue)
	}

	response, err := a.driver.SubmitForm(ctx, form.actionURL, fields)
	if err != nil {
		return nil, err
	}
	if blocked(response) {
		return nil, errors.Wrapf(ErrAntiBotBlocked, "login submit returned status %d", response.StatusCode)
	}

	if !a.loginSucceeded(response) {
		return nil, errors.Wrap(ErrBadCredentials, "login rejected")
	}

	log.Infof("authenticated against %s", a.baseURL)
	return &Session{driver: a.driver, establishedAt: time.Now()}, nil
}

type loginForm struct {
	actionURL     string
	usernameField string
	passwordField string
	csrfName      string
	csrfValue     string
}

func (a *Authenticator) parseLoginForm(body string) (*loginForm, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &RequestError{URL: a.loginURL, Err: errors.Wrap(err, "parse login page")}
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return nil, &RequestError{URL: a.loginURL, Err: errors.New("no login form on page")}
	}

	result := &loginForm{}

	for _, name := range []string{"username", "user"} {
		if form.Find(`input[name=` + name + `]`).Length() > 0 {
			result.usernameField = name
			break
		}
	}

	for _, name := range []string{"password", "pass"} {
		if form.Find(`input[name=` + name + `]`).Length() > 0 {
			result.passwordField = name
			break
		}
	}
	if result.passwordField == "" {
		if name, ok := form.Find(`input[type=password]`).First().Attr("name"); ok {
			result.passwordField = name
		}
	}

	if result.usernameField == "" || result.passwordField == "" {
		return nil, &RequestError{URL: a.loginURL, Err: errors.New("login form has no credential fields")}
	}

	for _, name := range []string{"csrf_token", "_token", "authenticity_token"} {
		if value, ok := form.Find(`input[name=` + name + `]`).First().Attr("value"); ok {
			result.csrfName, result.csrfValue = name, value
			break
		}
	}
	if result.csrfName == "" {
		if value, ok := doc.Find(`meta[name=csrf-token]`).First().Attr("content"); ok {
			result.csrfName, result.csrfValue = "csrf_token", value
		}
	}

	action, _ := form.Attr("action")
	result.actionURL = a.resolveAction(action)

	return result, nil
}

func (a *Authenticator) resolveAction(action string) string {
	switch {
	case action == "":
		return a.loginURL
	case strings.HasPrefix(action, "http"):
		return action
	default:
		base, err := url.Parse(a.baseURL)
		if err != nil {
			return a.loginURL
		}
		ref, err := url.Parse(action)
		if err != nil {
			return a.loginURL
		}
		return base.ResolveReference(ref).String()
	}
}

var (
	successMarkers = []string{"dashboard", "panel", "welcome", "bienvenido", "logout", "salir", "profile", "perfil"}
	failureMarkers = []string{"invalid credentials", "credenciales incorrectas", "invalid", "incorrect", "failed", "error"}
	blockMarkers   = []string{"checking your browser", "attention required", "cf-challenge", "captcha", "access denied"}
)

// loginSucceeded classifies a login response. Failure markers override every
// positive signal; a marker-free response with no redirect away from the
// login page fails closed.
func (a *Authenticator) loginSucceeded(response *PageResponse) bool {
	body := strings.ToLower(response.Body)

	for _, marker := range failureMarkers {
		if strings.Contains(body, marker) {
			return false
		}
	}

	for _, marker := range successMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}

	if response.FinalURL != a.loginURL && !strings.Contains(strings.ToLower(response.FinalURL), "login") {
		return true
	}

	return false
}

func blocked(page *PageResponse) bool {
	if page.StatusCode == http.StatusForbidden {
		return true
	}
	body := strings.ToLower(page.Body)
	for _, marker := range blockMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

func (a *Authenticator) randomWait(bounds [2]time.Duration, attempt int) time.Duration {
	if bounds[1] <= 0 {
		return 0
	}
	wait := bounds[0]
	if spread := bounds[1] - bounds[0]; spread > 0 {
		wait += time.Duration(a.rng.Int63n(int64(spread)))
	}
	// widen with each attempt
	return wait * time.Duration(attempt)
}
