package portal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingClient struct {
	calls int
}

func (c *countingClient) Do(_ *http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("unexpected request")
}

type stubClient struct{}

func (c *stubClient) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("<html></html>")),
		Request:    req,
	}, nil
}

func Test_HTTPDriver_WhenContextCanceled_ShouldSkipJitterSleep(t *testing.T) {

	driver := NewHTTPDriver(time.Second)
	driver.SetDelayRange(time.Hour, time.Hour)
	client := &countingClient{}
	driver.SetHTTPClient(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	resp, err := driver.Fetch(ctx, "https://portal.example.com/job_board-0.html")

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.calls)
	assert.Less(t, time.Since(start), time.Minute)
}

func Test_HTTPDriver_PacesThenSendsRequest(t *testing.T) {

	driver := NewHTTPDriver(time.Second)
	driver.SetDelayRange(time.Millisecond, 2*time.Millisecond)
	driver.SetHTTPClient(&stubClient{})

	resp, err := driver.Fetch(context.Background(), "https://portal.example.com/job_board-0.html")

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}
