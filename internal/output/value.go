package output

import (
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/width"

	"github.com/tarrence/linode-cli/internal/catalog"
)

var ansiColors = map[string]string{
	"black":   "30",
	"red":     "31",
	"green":   "32",
	"yellow":  "33",
	"blue":    "34",
	"magenta": "35",
	"cyan":    "36",
	"white":   "37",
}

// cell is one rendered value; color is applied after layout so padding
// ignores escape sequences.
type cell struct {
	lines []string
	color string
}

func (c cell) width() int {
	w := 0
	for _, l := range c.lines {
		if n := displayWidth(l); n > w {
			w = n
		}
	}
	return w
}

// valueString converts a JSON value to display text. Lists of scalars are
// joined with sep; nested objects print as compact JSON.
func valueString(v gjson.Result, sep string) string {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return ""
	case v.IsArray():
		items := v.Array()
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, valueString(it, sep))
		}
		return strings.Join(parts, sep)
	case v.IsObject():
		return v.Raw
	case v.Type == gjson.Number:
		return v.Raw
	}
	return v.String()
}

func (p *Printer) cellFor(a catalog.ResponseAttribute, v gjson.Result) cell {
	mode := p.opts.Mode
	if mode == ModeDelimited {
		return cell{lines: []string{valueString(v, " ")}}
	}
	text := valueString(v, ", ")
	if mode == ModeMarkdown {
		text = strings.NewReplacer("|", `\|`, "\n", " ").Replace(text)
	}

	c := cell{}
	if p.color && (mode == ModeTable || mode == ModeASCII) {
		c.color = colorFor(a.ColorMap, text)
	}

	var lines []string
	if mode == ModeMarkdown {
		lines = []string{text}
	} else {
		lines = strings.Split(text, "\n")
	}
	for _, l := range lines {
		switch {
		case !p.opts.NoTruncation:
			limit := p.opts.ColumnWidth
			if limit <= 0 {
				limit = DefaultColumnWidth
			}
			if displayWidth(l) > limit {
				l = truncate(l, limit)
				p.truncated = true
			}
			c.lines = append(c.lines, l)
		case p.opts.ColumnWidth > 0 && mode != ModeMarkdown:
			c.lines = append(c.lines, wrap(l, p.opts.ColumnWidth)...)
		case p.wrapAt > 0 && mode != ModeMarkdown:
			c.lines = append(c.lines, wrap(l, p.wrapAt)...)
		default:
			c.lines = append(c.lines, l)
		}
	}
	return c
}

// colorFor looks the value up in the attribute's color map, falling back
// to the default_ entry.
func colorFor(m map[string]string, value string) string {
	if len(m) == 0 {
		return ""
	}
	name, ok := m[value]
	if !ok {
		name = m["default_"]
	}
	return ansiColors[name]
}

func colorize(s, code string) string {
	if code == "" {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

// truncate shortens s to at most limit columns, ending in an ellipsis.
func truncate(s string, limit int) string {
	if limit < 1 {
		return ""
	}
	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := runeWidth(r)
		if w+rw > limit-1 {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	b.WriteString("…")
	return b.String()
}

// wrap splits s into lines of at most limit columns.
func wrap(s string, limit int) []string {
	if displayWidth(s) <= limit {
		return []string{s}
	}
	var (
		out  []string
		line strings.Builder
		w    int
	)
	for _, r := range s {
		rw := runeWidth(r)
		if w+rw > limit && w > 0 {
			out = append(out, line.String())
			line.Reset()
			w = 0
		}
		line.WriteRune(r)
		w += rw
	}
	if line.Len() > 0 {
		out = append(out, line.String())
	}
	return out
}
