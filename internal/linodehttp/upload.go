package linodehttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Upload streams size bytes from body to url with a single PUT, reporting
// progress to progress when it is non-nil. Uploads are not retried: the
// source reader cannot be replayed.
func (c *Client) Upload(ctx context.Context, url, token, contentType string, body io.Reader, size int64, progress io.Writer) (*Result, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	pr := &progressReader{r: body, total: size, out: progress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, pr)
	if err != nil {
		return nil, err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		ApplyAuth(req, token)
	}
	c.applyDefaults(req)
	if c.opts.Debug || c.opts.Trace {
		c.logRequest(req, nil)
	}

	resp, err := c.http.Do(req)
	pr.finish()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("upload to %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if c.opts.Debug || c.opts.Trace {
		c.logResponse(resp, respBody)
	}
	return &Result{Status: resp.StatusCode, Headers: resp.Header.Clone(), Body: respBody, Attempts: 1}, nil
}

const barWidth = 30

// progressReader renders a one-line progress bar as bytes are read.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	out   io.Writer
	last  int

	once sync.Once
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.out != nil {
		if permille := p.permille(); permille != p.last || err == io.EOF {
			p.last = permille
			p.draw()
		}
	}
	return n, err
}

func (p *progressReader) permille() int {
	if p.total <= 0 {
		return 1000
	}
	return int(p.read * 1000 / p.total)
}

func (p *progressReader) draw() {
	frac := float64(p.permille()) / 1000
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * barWidth)
	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}
	fmt.Fprintf(p.out, "\r[%s] %5.1f%% (%d/%d bytes)", bar, frac*100, p.read, p.total)
}

// finish draws the final state once and ends the progress line.
func (p *progressReader) finish() {
	if p.out == nil {
		return
	}
	p.once.Do(func() {
		p.draw()
		fmt.Fprintln(p.out)
	})
}
