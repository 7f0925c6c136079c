package cligen

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// expandPath substitutes positional values into the {name} placeholders of
// template.
func expandPath(template string, params []catalog.Parameter, args []string) (string, error) {
	out := template
	for i, p := range params {
		if i >= len(args) {
			return "", fmt.Errorf("no value for path parameter %s", p.Name)
		}
		out = strings.ReplaceAll(out, "{"+p.Name+"}", url.PathEscape(args[i]))
	}
	if left := catalog.Placeholders(out); len(left) > 0 {
		return "", fmt.Errorf("unbound path parameters in %s: %s", template, strings.Join(left, ", "))
	}
	return out, nil
}

// resolveBase picks the override, the operation's own server, or the
// catalog default, in that order.
func resolveBase(override string, op *catalog.Operation, cat *catalog.Catalog) string {
	for _, s := range []string{override, op.BaseURL, cat.BaseURL} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func joinBaseAndPath(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("empty base url")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}
