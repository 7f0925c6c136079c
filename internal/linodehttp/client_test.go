package linodehttp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, opts ClientOptions) (*Client, *[]time.Duration) {
	t.Helper()
	c, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return c, &slept
}

func TestRetryBound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"errors":[{"reason":"Service unavailable"}]}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(t, ClientOptions{})
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/regions", nil)
	res, err := c.Do(req, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != DefaultMaxAttempts {
		t.Fatalf("attempts = %d, want %d", got, DefaultMaxAttempts)
	}
	if res.Attempts != DefaultMaxAttempts || len(*slept) != DefaultMaxAttempts-1 {
		t.Fatalf("result attempts = %d, sleeps = %d", res.Attempts, len(*slept))
	}
	var apiErr *APIError
	if !errors.As(res.Err(), &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected APIError, got %v", res.Err())
	}
}

func TestRetryAfterHonored(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(t, ClientOptions{})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/vpcs", nil)
	res, err := c.Do(req, []byte(`{"label":"x"}`))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !res.OK() || res.Attempts != 2 {
		t.Fatalf("status = %d attempts = %d", res.Status, res.Attempts)
	}
	if len(*slept) != 1 || (*slept)[0] != 3*time.Second {
		t.Fatalf("slept = %v, want [3s]", *slept)
	}
}

func TestNonIdempotentNotRetriedOn5xx(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, ClientOptions{})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/vpcs", nil)
	if _, err := c.Do(req, []byte(`{}`)); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("POST retried on 502: %d attempts", got)
	}

	atomic.StoreInt32(&hits, 0)
	c, _ = newTestClient(t, ClientOptions{RetryNonIdempotent: true, MaxAttempts: 2})
	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/vpcs", nil)
	if _, err := c.Do(req, []byte(`{}`)); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("--retry-non-idempotent: %d attempts, want 2", got)
	}
}

func TestBodyReplayedOnRetry(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, ClientOptions{})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/vpcs/1", nil)
	if _, err := c.Do(req, []byte(`{"label":"y"}`)); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(bodies) != 2 || bodies[0] != bodies[1] || bodies[1] != `{"label":"y"}` {
		t.Fatalf("bodies = %q", bodies)
	}
}

func TestAPIErrorLines(t *testing.T) {
	err := newAPIError(400, []byte(`{"errors":[{"field":"region","reason":"region is not valid"},{"reason":"Invalid request"}]}`))
	want := "Request failed: 400 Bad Request\nregion: region is not valid\nInvalid request"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
	plain := newAPIError(404, []byte("not json"))
	if !strings.Contains(plain.Error(), "404 Not Found") || !strings.Contains(plain.Error(), "not json") {
		t.Fatalf("plain error = %q", plain.Error())
	}
}

func TestDebugRedactsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var log bytes.Buffer
	c, _ := newTestClient(t, ClientOptions{Debug: true, Out: &log, UserAgent: "linode-cli/test"})
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/account", nil)
	ApplyAuth(req, "secret")
	if _, err := c.Do(req, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	out := log.String()
	if strings.Contains(out, "secret") || !strings.Contains(out, "<redacted>") {
		t.Fatalf("debug output leaked token:\n%s", out)
	}
	if !strings.Contains(out, "> GET ") || !strings.Contains(out, "< 200 OK") {
		t.Fatalf("debug output missing transcript:\n%s", out)
	}
}

func TestUploadProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 700)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.Header.Get("Content-Type") != "application/octet-stream" {
			t.Errorf("request = %s %q", r.Method, r.Header.Get("Content-Type"))
		}
		b, _ := io.ReadAll(r.Body)
		if len(b) != len(payload) {
			t.Errorf("received %d bytes", len(b))
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, ClientOptions{})
	var progress bytes.Buffer
	res, err := c.Upload(context.Background(), srv.URL+"/images/1/upload", "tok", "", bytes.NewReader(payload), int64(len(payload)), &progress)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.Status)
	}
	if !strings.Contains(progress.String(), "100.0%") || !strings.Contains(progress.String(), "(700/700 bytes)") {
		t.Fatalf("progress = %q", progress.String())
	}
}
