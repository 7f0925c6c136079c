package openapi

import (
	"strings"
	"unicode"
)

// kebabCase lowercases s and joins its words with dashes, splitting on
// camelCase boundaries and on any non-alphanumeric rune.
func kebabCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	pendingDash := false
	var prev runeCategory
	for _, r := range s {
		cat := categorize(r)
		if cat == catOther {
			pendingDash = b.Len() > 0
			prev = cat
			continue
		}
		if b.Len() > 0 && (pendingDash || (cat == catUpper && (prev == catLower || prev == catDigit))) {
			b.WriteByte('-')
		}
		pendingDash = false
		b.WriteRune(unicode.ToLower(r))
		prev = cat
	}
	return b.String()
}

type runeCategory int

const (
	catOther runeCategory = iota
	catLower
	catUpper
	catDigit
)

// categorize keeps generated names ASCII: other letters act as separators.
func categorize(r rune) runeCategory {
	switch {
	case r >= 'a' && r <= 'z':
		return catLower
	case r >= 'A' && r <= 'Z':
		return catUpper
	case r >= '0' && r <= '9':
		return catDigit
	default:
		return catOther
	}
}

// literalSegments returns the path segments that are not {placeholders}.
func literalSegments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// fallbackCommand names the command after the first literal path segment.
func fallbackCommand(path string) string {
	segs := literalSegments(path)
	if len(segs) == 0 {
		return "misc"
	}
	return kebabCase(segs[0])
}

// fallbackAction names the action after the last literal path segment and
// the method, e.g. GET /regions/{regionId}/availability → availability-get.
func fallbackAction(path, method string) string {
	segs := literalSegments(path)
	last := "root"
	if len(segs) > 0 {
		last = kebabCase(segs[len(segs)-1])
	}
	return last + "-" + strings.ToLower(method)
}
