// Package output renders decoded API responses as tables, delimited text,
// Markdown or JSON, driven by an operation's response model.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/tarrence/linode-cli/internal/catalog"
)

type Mode int

const (
	ModeTable Mode = iota
	ModeASCII
	ModeDelimited
	ModeJSON
	ModeMarkdown
)

func (m Mode) String() string {
	switch m {
	case ModeASCII:
		return "ascii_table"
	case ModeDelimited:
		return "delimited"
	case ModeJSON:
		return "json"
	case ModeMarkdown:
		return "markdown"
	}
	return "table"
}

// DefaultColumnWidth bounds cell width when truncation is on and no
// --column-width was given.
const DefaultColumnWidth = 64

type Options struct {
	Mode Mode
	// Columns is an ordered list of attribute names; empty selects the
	// defaults, or everything when AllColumns is set.
	Columns    []string
	AllColumns bool

	Headers   bool
	Delimiter string
	Pretty    bool

	NoTruncation bool
	ColumnWidth  int
	// TermWidth is the width long values wrap to with NoTruncation and no
	// ColumnWidth; 0 uses the terminal's width when out is a terminal.
	TermWidth int

	SingleTable bool
	// Tables restricts the printed subtables; "root" names the primary table.
	Tables []string

	NoColor          bool
	SuppressWarnings bool
}

type Printer struct {
	out io.Writer
	err io.Writer

	opts  Options
	color bool
	// wrapAt is the per-cell wrap width of the table being built.
	wrapAt int

	truncated        bool
	warnedTruncation bool
}

func NewPrinter(out io.Writer, err io.Writer, opts Options) *Printer {
	if opts.Delimiter == "" {
		opts.Delimiter = "\t"
	}
	color := !opts.NoColor && os.Getenv("NO_COLOR") == "" && isTerminal(out)
	if opts.TermWidth <= 0 && isTerminal(out) {
		if w, _, err := term.GetSize(int(out.(*os.File).Fd())); err == nil {
			opts.TermWidth = w
		}
	}
	return &Printer{out: out, err: err, opts: opts, color: color}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) Out() io.Writer     { return p.out }
func (p *Printer) Err() io.Writer     { return p.err }
func (p *Printer) Options() Options   { return p.opts }
func (p *Printer) ColorEnabled() bool { return p.color }

// Warnf prints a warning to stderr unless warnings are suppressed.
func (p *Printer) Warnf(format string, args ...any) {
	if p.opts.SuppressWarnings {
		return
	}
	fmt.Fprintf(p.err, "Warning: "+format+"\n", args...)
}

// Render prints data, the decoded response of op. For list operations data
// is the array of items gathered across pages; otherwise it is the response
// object.
func (p *Printer) Render(op *catalog.Operation, data []byte) error {
	if fn := lookupOverride(op.Command, op.Action, p.opts.Mode); fn != nil {
		cont, err := fn(p, op, data)
		if err != nil || !cont {
			return err
		}
	}

	model := op.Response
	if model == nil || len(model.Attrs) == 0 {
		return p.PrintBody(data)
	}
	rows := selectRows(model, data)
	if p.opts.Mode == ModeJSON {
		return p.renderJSON(model, rows)
	}
	if err := p.renderTables(model, rows); err != nil {
		return err
	}
	if p.truncated && !p.warnedTruncation {
		p.warnedTruncation = true
		p.Warnf("some values were truncated; use --no-truncation to show them in full")
	}
	return nil
}

// PrintBody prints a response with no response model as JSON. Empty
// bodies and empty objects print nothing.
func (p *Printer) PrintBody(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "{}" {
		return nil
	}
	out := body
	if gjson.Valid(trimmed) {
		if p.opts.Pretty {
			out = pretty.Pretty(body)
		} else {
			out = pretty.Ugly(body)
		}
		if p.color && p.opts.Pretty {
			out = pretty.Color(out, nil)
		}
	}
	if _, err := p.out.Write(out); err != nil {
		return err
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		_, _ = p.out.Write([]byte("\n"))
	}
	return nil
}

// selectRows turns data into table rows: the values at each rows path when
// the model declares them, the elements of a list, or the object itself.
func selectRows(model *catalog.ResponseModel, data []byte) []gjson.Result {
	root := gjson.ParseBytes(data)
	var rows []gjson.Result
	if len(model.Rows) > 0 {
		for _, path := range model.Rows {
			v := root.Get(gjsonPath(path))
			switch {
			case v.IsArray():
				rows = append(rows, v.Array()...)
			case v.Exists():
				rows = append(rows, v)
			}
		}
		return rows
	}
	if root.IsArray() {
		return root.Array()
	}
	if root.Exists() {
		return []gjson.Result{root}
	}
	return nil
}

// gjsonPath escapes each dotted segment of an attribute name.
func gjsonPath(name string) string {
	segs := strings.Split(name, ".")
	for i, s := range segs {
		segs[i] = gjson.Escape(s)
	}
	return strings.Join(segs, ".")
}
