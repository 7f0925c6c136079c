package output

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// renderJSON prints rows as a JSON array. Without an explicit column list
// every row is printed whole; otherwise each row is reduced to the selected
// attributes, keeping entire nested lists for attributes that live inside
// one.
func (p *Printer) renderJSON(model *catalog.ResponseModel, rows []gjson.Result) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if len(p.opts.Columns) == 0 {
			buf.WriteString(r.Raw)
			continue
		}
		tree := &jsonNode{}
		for _, a := range selectColumns(model.Attrs, p.opts.Columns, true) {
			path := subtreePath(r, a.Name)
			if v := r.Get(gjsonPath(path)); v.Exists() {
				tree.set(strings.Split(path, "."), v.Raw)
			}
		}
		tree.write(&buf)
	}
	buf.WriteByte(']')

	var out []byte
	if p.opts.Pretty {
		out = pretty.Pretty(buf.Bytes())
		if p.color {
			out = pretty.Color(out, nil)
		}
	} else {
		out = append(pretty.Ugly(buf.Bytes()), '\n')
	}
	_, err := p.out.Write(out)
	return err
}

// subtreePath shortens name to the first prefix that is a list in row, so
// a nested attribute selects its whole list.
func subtreePath(row gjson.Result, name string) string {
	segs := strings.Split(name, ".")
	for i := 1; i < len(segs); i++ {
		prefix := strings.Join(segs[:i], ".")
		if row.Get(gjsonPath(prefix)).IsArray() {
			return prefix
		}
	}
	return name
}

// jsonNode is an insertion-ordered JSON object under construction.
type jsonNode struct {
	keys     []string
	children map[string]*jsonNode
	raw      map[string]string
}

func (n *jsonNode) set(path []string, raw string) {
	key := path[0]
	if n.children == nil {
		n.children = map[string]*jsonNode{}
		n.raw = map[string]string{}
	}
	_, isChild := n.children[key]
	_, isRaw := n.raw[key]
	if !isChild && !isRaw {
		n.keys = append(n.keys, key)
	}
	if len(path) == 1 {
		if !isChild {
			n.raw[key] = raw
		}
		return
	}
	if isRaw {
		return
	}
	child := n.children[key]
	if child == nil {
		child = &jsonNode{}
		n.children[key] = child
	}
	child.set(path[1:], raw)
}

func (n *jsonNode) write(buf *bytes.Buffer) {
	buf.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(k)
		buf.Write(name)
		buf.WriteByte(':')
		if child, ok := n.children[k]; ok {
			child.write(buf)
			continue
		}
		buf.WriteString(n.raw[k])
	}
	buf.WriteByte('}')
}
