package cligen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tarrence/linode-cli/internal/catalog"
	"github.com/tarrence/linode-cli/internal/clierr"
)

// filterHeader carries list constraints to the API.
const filterHeader = "X-Filter"

type filterBinding struct {
	attr catalog.ResponseAttribute
	val  *argValue
}

type filterFlags struct {
	attrs   []catalog.ResponseAttribute
	binds   []*filterBinding
	orderBy *string
	order   *string
}

// bindFilterFlags adds one flag per filterable response attribute of a
// list action, plus the ordering flags.
func bindFilterFlags(cmd *cobra.Command, op *catalog.Operation) *filterFlags {
	f := &filterFlags{attrs: op.Response.Filterable(), orderBy: new(string), order: new(string)}
	for _, a := range f.attrs {
		if cmd.Flags().Lookup(a.Name) != nil {
			continue
		}
		typ := a.Type
		if typ == catalog.TypeArray {
			typ = a.ItemType
		}
		fb := &filterBinding{attr: a, val: &argValue{typ: typ, multi: true}}
		desc := "Only show results whose " + a.Name + " matches (repeat to match any)"
		cmd.Flags().Var(fb.val, a.Name, desc)
		f.binds = append(f.binds, fb)
	}
	names := make([]string, len(f.attrs))
	for i, a := range f.attrs {
		names[i] = a.Name
	}
	if len(names) > 0 {
		cmd.Flags().StringVar(f.orderBy, "order-by", "", "Attribute to order results by: "+strings.Join(names, ", "))
		cmd.Flags().StringVar(f.order, "order", "", "Sort direction: asc or desc")
	}
	return f
}

// header returns the X-Filter document for the given flags, or "" when no
// constraint was requested. Repeated values of one attribute are OR-ed;
// distinct attributes are AND-ed.
func (f *filterFlags) header(cmd *cobra.Command) (string, error) {
	var clauses []map[string]any
	for _, fb := range f.binds {
		if !cmd.Flags().Changed(fb.attr.Name) {
			continue
		}
		var alts []map[string]any
		for _, s := range fb.val.values {
			v, err := convert(fb.val.typ, s)
			if err != nil {
				return "", clierr.Argumentf("invalid value for --%s: %v", fb.attr.Name, err)
			}
			alts = append(alts, map[string]any{fb.attr.Name: v})
		}
		if len(alts) == 1 {
			clauses = append(clauses, alts[0])
		} else {
			clauses = append(clauses, map[string]any{"+or": alts})
		}
	}

	top := map[string]any{}
	switch len(clauses) {
	case 0:
	case 1:
		for k, v := range clauses[0] {
			top[k] = v
		}
	default:
		top["+and"] = clauses
	}

	orderBy, order := strings.TrimSpace(*f.orderBy), strings.ToLower(strings.TrimSpace(*f.order))
	if order != "" && orderBy == "" {
		return "", clierr.Argumentf("--order requires --order-by")
	}
	if orderBy != "" {
		if !f.filterable(orderBy) {
			return "", clierr.Argumentf("cannot order by %q: not a filterable attribute", orderBy)
		}
		top["+order_by"] = orderBy
		if order == "" {
			order = "asc"
		}
		if order != "asc" && order != "desc" {
			return "", clierr.Argumentf("--order must be asc or desc, not %q", order)
		}
		top["+order"] = order
	}

	if len(top) == 0 {
		return "", nil
	}
	b, err := json.Marshal(top)
	if err != nil {
		return "", fmt.Errorf("encoding filter: %w", err)
	}
	return string(b), nil
}

func (f *filterFlags) filterable(name string) bool {
	for _, a := range f.attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}
