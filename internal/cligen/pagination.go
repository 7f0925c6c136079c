package cligen

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"cloudeng.io/logging/ctxlog"
	"github.com/tidwall/gjson"

	"github.com/tarrence/linode-cli/internal/linodehttp"
)

// Page size bounds the API accepts.
const (
	minPageSize = 25
	maxPageSize = 500
)

// maxPages guards against an API that never reports its last page.
const maxPages = 10000

type pageFetcher func(query url.Values) (*linodehttp.Result, error)

// pageResult is the concatenated data of every fetched page.
type pageResult struct {
	Items   []byte
	Pages   int
	Fetched int
	Results int64
}

// fetchPages follows the {data, page, pages, results} envelope. A positive
// page fetches only that page; otherwise pages are fetched until the last.
func fetchPages(ctx context.Context, q url.Values, page, pageSize int, do pageFetcher) (*pageResult, error) {
	if pageSize != 0 {
		if pageSize < minPageSize || pageSize > maxPageSize {
			return nil, argumentError(fmt.Errorf("--page-size must be between %d and %d", minPageSize, maxPageSize))
		}
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	n := 0
	res := &pageResult{}
	cur := max(page, 1)
	for {
		q.Set("page", strconv.Itoa(cur))
		r, err := do(q)
		if err != nil {
			return nil, err
		}
		env := gjson.ParseBytes(r.Body)
		if !env.IsObject() {
			return nil, fmt.Errorf("page %d: response is not a JSON object", cur)
		}
		env.Get("data").ForEach(func(_, item gjson.Result) bool {
			if n > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(item.Raw)
			n++
			return true
		})
		res.Fetched++
		res.Pages = int(env.Get("pages").Int())
		res.Results = env.Get("results").Int()
		ctxlog.Debug(ctx, "fetched page", "page", cur, "pages", res.Pages, "items", n)

		if page > 0 || cur >= res.Pages || res.Fetched >= maxPages {
			break
		}
		cur++
	}
	buf.WriteByte(']')
	res.Items = buf.Bytes()
	return res, nil
}
