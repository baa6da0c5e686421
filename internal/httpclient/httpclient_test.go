package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forrest/internal/config"
	"forrest/pkg/logging"
)

func TestFormatKV(t *testing.T) {
	assert.Equal(t, "msg", formatKV("msg", nil))
	assert.Equal(t, "retrying request url=http://x attempt=2", formatKV("retrying request", []interface{}{"url", "http://x", "attempt", 2}))
	assert.Equal(t, "odd key", formatKV("odd", []interface{}{"key"}))
}

func TestNew_AppliesSettings(t *testing.T) {
	c := New(config.ClientConfig{Timeout: 7 * time.Second, RetryMax: 1})
	assert.Equal(t, 7*time.Second, c.Timeout)
	assert.NotNil(t, c.Transport)
}

func TestNew_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logging.InitForCLI(logging.LevelDebug, &buf)

	c := New(config.ClientConfig{
		Timeout:      5 * time.Second,
		RetryMax:     3,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, strings.Contains(buf.String(), "subsystem=HTTP"), buf.String())
}

func TestNew_DoesNotRetryUnauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(config.ClientConfig{Timeout: 5 * time.Second, RetryMax: 3, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond})

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNew_ReturnsLastResponseWhenRetriesRunOut(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`[{"errorCode":"SERVER_UNAVAILABLE"}]`))
	}))
	defer srv.Close()

	c := New(config.ClientConfig{Timeout: 5 * time.Second, RetryMax: 2, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond})

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "SERVER_UNAVAILABLE")
	assert.Equal(t, int32(3), calls.Load())
}
