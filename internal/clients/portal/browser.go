package portal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserDriver is the TransportDriver for portals whose anti-bot layer
// rejects plain HTTP clients outright. It renders pages in a headless Chrome
// so the session carries real browser fingerprints; the extraction code on top
// stays identical to the HTTP path.
type BrowserDriver struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

func NewBrowserDriver(timeout time.Duration) *BrowserDriver {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.UserAgent(defaultUserAgent),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &BrowserDriver{allocCtx: allocCtx, cancel: cancel, timeout: timeout}
}

func (d *BrowserDriver) Close() {
	d.cancel()
}

func (d *BrowserDriver) Fetch(ctx context.Context, pageURL string) (*PageResponse, error) {
	tabCtx, cancel := d.newTab(ctx)
	defer cancel()

	var html, finalURL string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, &RequestError{URL: pageURL, Err: err}
	}

	// The rendered page carries no status code; a challenge page is detected
	// by its markers downstream, so report 200 here.
	return &PageResponse{Body: html, StatusCode: 200, FinalURL: finalURL}, nil
}

func (d *BrowserDriver) SubmitForm(ctx context.Context, actionURL string, fields url.Values) (*PageResponse, error) {
	tabCtx, cancel := d.newTab(ctx)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(actionURL),
		chromedp.WaitReady("form"),
	}
	for name := range fields {
		selector := fmt.Sprintf(`form [name=%q]`, name)
		actions = append(actions, chromedp.SendKeys(selector, fields.Get(name)))
	}
	actions = append(actions,
		chromedp.Submit("form"),
		chromedp.WaitReady("body"),
	)

	var html, finalURL string
	actions = append(actions,
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&finalURL),
	)

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, &RequestError{URL: actionURL, Err: err}
	}

	return &PageResponse{Body: html, StatusCode: 200, FinalURL: finalURL}, nil
}

func (d *BrowserDriver) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(d.allocCtx)
	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, d.timeout)

	stop := context.AfterFunc(ctx, cancelTimeout)
	return timeoutCtx, func() {
		stop()
		cancelTimeout()
		cancelTab()
	}
}
