// Package linodehttp performs authenticated requests against the Linode API
// with bounded retries, structured error decoding and streaming uploads.
package linodehttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/logging/ctxlog"
)

// DefaultMaxAttempts bounds the attempts made for one request.
const DefaultMaxAttempts = 4

type ClientOptions struct {
	Timeout            time.Duration
	Debug              bool
	Trace              bool
	RetryNonIdempotent bool
	UserAgent          string
	Out                io.Writer

	MaxAttempts int
	// RetryBaseDelay is the first backoff step when the server sends no
	// Retry-After; later steps double it.
	RetryBaseDelay time.Duration
}

type Client struct {
	http  *http.Client
	opts  ClientOptions
	sleep func(context.Context, time.Duration) error
}

type Result struct {
	Status  int
	Headers http.Header
	Body    []byte
	// Attempts is the number of requests sent.
	Attempts int
}

// OK reports a 2xx status.
func (r *Result) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Err returns the decoded API error for a non-2xx result, nil otherwise.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return newAPIError(r.Status, r.Body)
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	return &Client{
		http:  &http.Client{Timeout: opts.Timeout},
		opts:  opts,
		sleep: sleepContext,
	}, nil
}

// ApplyAuth sets a bearer Authorization header.
func ApplyAuth(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// Do sends req, replaying reqBody on every retry. A 429 is retried for any
// method; 5xx responses and transport errors only for idempotent methods
// unless RetryNonIdempotent is set. The last response is returned once the
// attempts are used up; callers inspect Result.Err.
func (c *Client) Do(req *http.Request, reqBody []byte) (*Result, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	ctx := req.Context()
	c.applyDefaults(req)
	if len(reqBody) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.opts.Debug || c.opts.Trace {
		c.logRequest(req, reqBody)
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if len(reqBody) > 0 {
			req.Body = io.NopCloser(bytes.NewReader(reqBody))
			req.ContentLength = int64(len(reqBody))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if !c.retryable(req.Method, 0) || attempt == c.opts.MaxAttempts {
				break
			}
			delay := c.backoff(nil, attempt)
			ctxlog.Debug(ctx, "retrying after transport error", "method", req.Method, "url", req.URL.String(), "attempt", attempt, "delay", delay, "err", err)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		if c.opts.Debug || c.opts.Trace {
			c.logResponse(resp, body)
		}

		if c.retryable(req.Method, resp.StatusCode) && attempt < c.opts.MaxAttempts {
			delay := c.backoff(resp, attempt)
			ctxlog.Debug(ctx, "retrying", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "attempt", attempt, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		return &Result{
			Status:   resp.StatusCode,
			Headers:  resp.Header.Clone(),
			Body:     body,
			Attempts: attempt,
		}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), lastErr)
}

func (c *Client) applyDefaults(req *http.Request) {
	if c.opts.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

// retryable decides whether an attempt may be repeated. status 0 stands
// for a transport error.
func (c *Client) retryable(method string, status int) bool {
	idempotent := false
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		idempotent = true
	}
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status == 0 || status >= 500:
		return idempotent || c.opts.RetryNonIdempotent
	}
	return false
}

func (c *Client) backoff(resp *http.Response, attempt int) time.Duration {
	if d, ok := retryAfter(resp); ok {
		return d
	}
	// Exponential with +/- 25% jitter, capped at 10s.
	d := c.opts.RetryBaseDelay * (1 << (attempt - 1))
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	if q := int64(d / 2); q > 0 {
		d += time.Duration(rand.Int63n(q)) - d/4
	}
	return d
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(ra); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) logRequest(req *http.Request, body []byte) {
	fmt.Fprintf(c.opts.Out, "> %s %s\n", req.Method, req.URL.String())
	for k, vv := range req.Header {
		v := strings.Join(vv, ", ")
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Proxy-Authorization") {
			v = "<redacted>"
		}
		fmt.Fprintf(c.opts.Out, "> %s: %s\n", k, v)
	}
	if c.opts.Trace && len(body) > 0 {
		fmt.Fprintf(c.opts.Out, ">\n")
		writeBody(c.opts.Out, body)
	}
}

func (c *Client) logResponse(resp *http.Response, body []byte) {
	if resp == nil {
		return
	}
	fmt.Fprintf(c.opts.Out, "< %s\n", resp.Status)
	if c.opts.Debug {
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			fmt.Fprintf(c.opts.Out, "< Content-Type: %s\n", ct)
		}
		for _, h := range []string{"X-Ratelimit-Remaining", "Retry-After"} {
			if v := resp.Header.Get(h); v != "" {
				fmt.Fprintf(c.opts.Out, "< %s: %s\n", h, v)
			}
		}
		fmt.Fprintf(c.opts.Out, "< Content-Length: %d\n", len(body))
	}
	if c.opts.Trace && len(body) > 0 {
		fmt.Fprintf(c.opts.Out, "<\n")
		writeBody(c.opts.Out, body)
	}
}

func writeBody(w io.Writer, body []byte) {
	_, _ = w.Write(body)
	if body[len(body)-1] != '\n' {
		_, _ = w.Write([]byte("\n"))
	}
}
