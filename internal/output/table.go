package output

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tarrence/linode-cli/internal/catalog"
)

type table struct {
	title   string
	headers []string
	rows    [][]cell
}

// renderTables prints the root table followed by one table per declared
// subtable, each scoped to its nested list.
func (p *Printer) renderTables(model *catalog.ResponseModel, rows []gjson.Result) error {
	attrs := model.Attrs
	var subs []string
	if !p.opts.SingleTable {
		subs = model.Subtables
	}

	type part struct {
		name  string
		attrs []catalog.ResponseAttribute
	}
	var parts []part
	for _, path := range subs {
		var sub []catalog.ResponseAttribute
		attrs, sub = splitSubtable(attrs, path)
		parts = append(parts, part{path, sub})
	}

	var tables []table
	if len(flatOnly(attrs)) > 0 && p.wantTable("root") {
		if cols := flatOnly(selectColumns(attrs, p.opts.Columns, p.opts.AllColumns)); len(cols) > 0 {
			tables = append(tables, p.buildTable("", cols, rows))
		}
	}
	for _, pt := range parts {
		if !p.wantTable(pt.name) || len(pt.attrs) == 0 {
			continue
		}
		cols := flatOnly(selectColumns(pt.attrs, p.opts.Columns, p.opts.AllColumns))
		if len(cols) == 0 {
			continue
		}
		tables = append(tables, p.buildTable(pt.name, cols, scope(rows, pt.name)))
	}

	w := bufio.NewWriter(p.out)
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		p.writeTable(w, t)
	}
	return w.Flush()
}

func (p *Printer) wantTable(name string) bool {
	return len(p.opts.Tables) == 0 || slices.Contains(p.opts.Tables, name)
}

// scope returns the elements of the nested list at path across rows.
func scope(rows []gjson.Result, path string) []gjson.Result {
	var out []gjson.Result
	for _, r := range rows {
		v := r.Get(gjsonPath(path))
		switch {
		case v.IsArray():
			out = append(out, v.Array()...)
		case v.IsObject():
			out = append(out, v)
		}
	}
	return out
}

const minWrapWidth = 4

func (p *Printer) buildTable(title string, cols []catalog.ResponseAttribute, rows []gjson.Result) table {
	t := table{title: title}
	p.wrapAt = 0
	if p.opts.NoTruncation && p.opts.ColumnWidth <= 0 && p.opts.TermWidth > 0 && len(cols) > 0 {
		// Share the terminal between columns, less "| " and " |" borders.
		p.wrapAt = max((p.opts.TermWidth-3*len(cols)-1)/len(cols), minWrapWidth)
	}
	for _, a := range cols {
		t.headers = append(t.headers, a.Column())
	}
	for _, r := range rows {
		cells := make([]cell, len(cols))
		for i, a := range cols {
			cells[i] = p.cellFor(a, r.Get(gjsonPath(a.Name)))
		}
		t.rows = append(t.rows, cells)
	}
	return t
}

func (p *Printer) writeTable(w io.Writer, t table) {
	switch p.opts.Mode {
	case ModeDelimited:
		p.writeDelimited(w, t)
	case ModeMarkdown:
		p.writeMarkdown(w, t)
	case ModeASCII:
		p.writeBoxed(w, t, asciiBorders)
	default:
		p.writeBoxed(w, t, boxBorders)
	}
}

func (p *Printer) writeDelimited(w io.Writer, t table) {
	if p.opts.Headers {
		if t.title != "" {
			fmt.Fprintln(w, t.title)
		}
		fmt.Fprintln(w, strings.Join(t.headers, p.opts.Delimiter))
	}
	for _, r := range t.rows {
		vals := make([]string, len(r))
		for i, c := range r {
			vals[i] = strings.Join(c.lines, " ")
		}
		fmt.Fprintln(w, strings.Join(vals, p.opts.Delimiter))
	}
}

func (p *Printer) writeMarkdown(w io.Writer, t table) {
	if t.title != "" {
		fmt.Fprintf(w, "**%s**\n\n", t.title)
	}
	if p.opts.Headers {
		fmt.Fprintf(w, "| %s |\n", strings.Join(t.headers, " | "))
		seps := make([]string, len(t.headers))
		for i := range seps {
			seps[i] = "---"
		}
		fmt.Fprintf(w, "|%s|\n", strings.Join(seps, "|"))
	}
	for _, r := range t.rows {
		vals := make([]string, len(r))
		for i, c := range r {
			vals[i] = strings.Join(c.lines, " ")
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(vals, " | "))
	}
}

type borders struct {
	h, v       string
	tl, tm, tr string
	ml, mm, mr string
	bl, bm, br string
}

var boxBorders = borders{
	h: "─", v: "│",
	tl: "┌", tm: "┬", tr: "┐",
	ml: "├", mm: "┼", mr: "┤",
	bl: "└", bm: "┴", br: "┘",
}

var asciiBorders = borders{
	h: "-", v: "|",
	tl: "+", tm: "+", tr: "+",
	ml: "+", mm: "+", mr: "+",
	bl: "+", bm: "+", br: "+",
}

func (p *Printer) writeBoxed(w io.Writer, t table, b borders) {
	widths := make([]int, len(t.headers))
	if p.opts.Headers {
		for i, h := range t.headers {
			widths[i] = displayWidth(h)
		}
	}
	for _, r := range t.rows {
		for i, c := range r {
			if cw := c.width(); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	rule := func(l, m, r string) {
		parts := make([]string, len(widths))
		for i, wd := range widths {
			parts[i] = strings.Repeat(b.h, wd+2)
		}
		fmt.Fprintln(w, l+strings.Join(parts, m)+r)
	}
	line := func(texts []string, colors []string) {
		var sb strings.Builder
		sb.WriteString(b.v)
		for i, txt := range texts {
			pad := strings.Repeat(" ", widths[i]-displayWidth(txt))
			col := ""
			if colors != nil {
				col = colors[i]
			}
			sb.WriteString(" " + colorize(txt, col) + pad + " " + b.v)
		}
		fmt.Fprintln(w, sb.String())
	}

	if t.title != "" {
		fmt.Fprintln(w, t.title)
	}
	rule(b.tl, b.tm, b.tr)
	if p.opts.Headers {
		line(t.headers, nil)
		rule(b.ml, b.mm, b.mr)
	}
	for _, r := range t.rows {
		height := 1
		for _, c := range r {
			height = max(height, len(c.lines))
		}
		for ln := 0; ln < height; ln++ {
			texts := make([]string, len(r))
			colors := make([]string, len(r))
			for i, c := range r {
				if ln < len(c.lines) {
					texts[i] = c.lines[ln]
				}
				colors[i] = c.color
			}
			line(texts, colors)
		}
	}
	rule(b.bl, b.bm, b.br)
}
