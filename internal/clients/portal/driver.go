package portal

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// TransportDriver is the capability the harvester and authenticator need from
// a transport: fetch a page, submit a form. The plain HTTP driver covers the
// portal's normal defenses; BrowserDriver exists for pages that refuse
// non-browser traffic.
type TransportDriver interface {
	Fetch(ctx context.Context, pageURL string) (*PageResponse, error)
	SubmitForm(ctx context.Context, actionURL string, fields url.Values) (*PageResponse, error)
}

// PageResponse is the transport-agnostic view of a fetched page.
type PageResponse struct {
	Body       string
	StatusCode int
	FinalURL   string
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPDriver drives the portal over net/http with a cookie jar, browser-like
// headers, a rate ceiling and jittered pacing between requests. Pacing is
// deliberate backpressure against the portal, not a performance knob.
type HTTPDriver struct {
	client      HTTPClient
	rateLimiter *rate.Limiter
	delayRange  [2]time.Duration
	userAgent   string
	rng         *rand.Rand
	sleep       func(ctx context.Context, d time.Duration) error
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func NewHTTPDriver(timeout time.Duration) *HTTPDriver {
	jar, _ := cookiejar.New(nil)
	return &HTTPDriver{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     sleepContext,
	}
}

func (d *HTTPDriver) SetHTTPClient(client HTTPClient) {
	d.client = client
}

func (d *HTTPDriver) SetRateLimit(maxRequestsPerSecond float32) {
	d.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

// SetDelayRange enables a randomized pause before every request, drawn
// uniformly from [min, max].
func (d *HTTPDriver) SetDelayRange(min, max time.Duration) {
	d.delayRange = [2]time.Duration{min, max}
}

func (d *HTTPDriver) Fetch(ctx context.Context, pageURL string) (*PageResponse, error) {
	return d.send(ctx, http.MethodGet, pageURL, "", nil)
}

func (d *HTTPDriver) SubmitForm(ctx context.Context, actionURL string, fields url.Values) (*PageResponse, error) {
	return d.send(ctx, http.MethodPost, actionURL, fields.Encode(),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
}

func (d *HTTPDriver) send(ctx context.Context, method, reqURL, body string,
	headers map[string]string) (*PageResponse, error) {

	if err := d.pace(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: err}
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9,en;q=0.8")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: err}
	}

	finalURL := reqURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &PageResponse{
		Body:       string(data),
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL,
	}, nil
}

func (d *HTTPDriver) pace(ctx context.Context) error {
	if d.delayRange[1] > 0 {
		jitter := d.delayRange[0]
		if spread := d.delayRange[1] - d.delayRange[0]; spread > 0 {
			jitter += time.Duration(d.rng.Int63n(int64(spread)))
		}
		if err := d.sleep(ctx, jitter); err != nil {
			return err
		}
	}
	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// sleepContext pauses for d, bailing out as soon as ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
