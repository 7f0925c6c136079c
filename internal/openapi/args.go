package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// requestArgs flattens a request body schema into body arguments. The
// second result is the required argument set of each top-level
// oneOf/anyOf branch.
func requestArgs(s *openapi3.Schema) ([]catalog.BodyArgument, [][]string) {
	if s == nil {
		return nil, nil
	}
	agg := aggregate(s)
	w := &argWalker{}
	w.walk(agg, "", "", true, true)
	sort.SliceStable(w.args, func(i, j int) bool { return w.args[i].Path < w.args[j].Path })
	return w.args, agg.branchRequired
}

type argWalker struct {
	args []catalog.BodyArgument
}

// walk emits arguments for the properties of agg. listItem is the path of
// the enclosing list of objects, if any. top marks the request body root,
// the only level whose oneOf/anyOf provenance is recorded.
func (w *argWalker) walk(agg *aggregated, prefix, listItem string, parentRequired, top bool) {
	for _, name := range agg.names() {
		prop := agg.props[name]
		if prop.ReadOnly {
			continue
		}
		path := prefix + name
		required := parentRequired && agg.required[name] && listItem == ""

		var branches []int
		if top {
			branches = uniqueInts(agg.branches[name])
		}

		switch schemaType(prop) {
		case catalog.TypeObject:
			sub := aggregate(prop)
			if len(sub.props) == 0 {
				w.add(prop, path, name, catalog.TypeJSON, "", listItem, required, branches)
				continue
			}
			before := len(w.args)
			w.walk(sub, path+".", listItem, required, false)
			for i := before; i < len(w.args); i++ {
				w.args[i].Branches = branches
			}
		case catalog.TypeArray:
			items := schemaValue(prop.Items)
			if schemaType(items) == catalog.TypeObject {
				sub := aggregate(items)
				// A list nested inside a list element cannot be zipped
				// positionally, so it is taken as one JSON value.
				if listItem != "" || len(sub.props) == 0 {
					w.add(prop, path, name, catalog.TypeJSON, "", listItem, required, branches)
					continue
				}
				before := len(w.args)
				w.walk(sub, path+".", path, false, false)
				for i := before; i < len(w.args); i++ {
					w.args[i].Branches = branches
				}
				continue
			}
			itemType := schemaType(items)
			if itemType == "" || itemType == catalog.TypeArray {
				itemType = catalog.TypeString
			}
			w.add(prop, path, name, catalog.TypeArray, itemType, listItem, required, branches)
		case "":
			w.add(prop, path, name, catalog.TypeString, "", listItem, required, branches)
		default:
			w.add(prop, path, name, schemaType(prop), "", listItem, required, branches)
		}
	}
}

func (w *argWalker) add(s *openapi3.Schema, path, name, typ, itemType, listItem string, required bool, branches []int) {
	format := extString(s.Extensions, extFormat)
	if format == "" {
		format = s.Format
	}
	arg := catalog.BodyArgument{
		Path:        path,
		Name:        name,
		Type:        typ,
		ItemType:    itemType,
		Format:      format,
		ListItem:    listItem,
		Required:    required,
		Nullable:    isNullable(s),
		Deprecated:  s.Deprecated,
		Description: firstLine(s.Description),
		Branches:    branches,
	}
	for _, e := range s.Enum {
		arg.Enum = append(arg.Enum, fmt.Sprint(e))
	}
	w.args = append(w.args, arg)
}

func uniqueInts(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	seen := map[int]bool{}
	var out []int
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// firstLine trims a schema description down to its first paragraph line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
