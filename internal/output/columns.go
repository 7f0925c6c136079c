package output

import (
	"sort"
	"strings"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// selectColumns picks the attributes to print. Explicit columns are taken
// in request order, each consuming the first attribute it matches by dotted
// name or header; otherwise all attributes (when all is set) or the ones
// with a display ordinal, in ordinal order. An empty result falls back to
// every attribute.
func selectColumns(attrs []catalog.ResponseAttribute, columns []string, all bool) []catalog.ResponseAttribute {
	var out []catalog.ResponseAttribute
	switch {
	case len(columns) > 0:
		pool := append([]catalog.ResponseAttribute(nil), attrs...)
		for _, want := range columns {
			for i, a := range pool {
				if a.Name == want || a.Column() == want {
					out = append(out, a)
					pool = append(pool[:i], pool[i+1:]...)
					break
				}
			}
		}
	case all:
		out = append(out, attrs...)
	default:
		for _, a := range attrs {
			if a.Display > 0 {
				out = append(out, a)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Display < out[j].Display })
	}
	if len(out) == 0 {
		out = append(out, attrs...)
	}
	return out
}

// flatOnly drops attributes that live under a nested list.
func flatOnly(attrs []catalog.ResponseAttribute) []catalog.ResponseAttribute {
	out := attrs[:0:0]
	for _, a := range attrs {
		if a.NestedListDepth == 0 {
			out = append(out, a)
		}
	}
	return out
}

// splitSubtable removes the attributes under path from attrs and returns
// them reparented: the path prefix is stripped and one list hop is removed.
func splitSubtable(attrs []catalog.ResponseAttribute, path string) (rest, sub []catalog.ResponseAttribute) {
	prefix := path + "."
	for _, a := range attrs {
		if !strings.HasPrefix(a.Name, prefix) {
			rest = append(rest, a)
			continue
		}
		a.Name = strings.TrimPrefix(a.Name, prefix)
		if a.NestedListDepth > 0 {
			a.NestedListDepth--
		}
		sub = append(sub, a)
	}
	return rest, sub
}
