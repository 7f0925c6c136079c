package openapi

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// schemaType returns the JSON type of s, inferring object/array when the
// type keyword is absent.
func schemaType(s *openapi3.Schema) string {
	if s == nil {
		return ""
	}
	if s.Type != nil {
		for _, t := range s.Type.Slice() {
			if t != "null" {
				return t
			}
		}
	}
	switch {
	case len(s.Properties) > 0:
		return catalog.TypeObject
	case s.Items != nil:
		return catalog.TypeArray
	case len(s.AllOf) > 0 || len(s.OneOf) > 0 || len(s.AnyOf) > 0:
		return catalog.TypeObject
	}
	return ""
}

func schemaValue(ref *openapi3.SchemaRef) *openapi3.Schema {
	if ref == nil {
		return nil
	}
	return ref.Value
}

func isNullable(s *openapi3.Schema) bool {
	if s == nil {
		return false
	}
	if s.Nullable {
		return true
	}
	if s.Type == nil {
		return false
	}
	for _, t := range s.Type.Slice() {
		if t == "null" {
			return true
		}
	}
	return false
}

// aggregated is the flattened property set of an object schema with its
// allOf members merged and its oneOf/anyOf branches unioned.
type aggregated struct {
	props    map[string]*openapi3.Schema
	required map[string]bool
	// branches maps a property to the oneOf/anyOf branch indexes it came
	// from; properties of the base schema have no entry.
	branches map[string][]int
	// branchRequired is the required set of each branch, sorted.
	branchRequired [][]string
}

func (a *aggregated) names() []string {
	out := make([]string, 0, len(a.props))
	for k := range a.props {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// aggregate flattens s. An argument coming from oneOf/anyOf branches is
// required only when every branch requires it; the base schema's required
// list always applies.
func aggregate(s *openapi3.Schema) *aggregated {
	return aggregateSeen(s, map[*openapi3.Schema]bool{})
}

func aggregateSeen(s *openapi3.Schema, seen map[*openapi3.Schema]bool) *aggregated {
	a := &aggregated{
		props:    map[string]*openapi3.Schema{},
		required: map[string]bool{},
		branches: map[string][]int{},
	}
	if s == nil || seen[s] {
		return a
	}
	seen[s] = true
	defer delete(seen, s)

	for name, ref := range s.Properties {
		if v := schemaValue(ref); v != nil {
			a.props[name] = v
		}
	}
	for _, name := range s.Required {
		a.required[name] = true
	}

	for _, ref := range s.AllOf {
		sub := aggregateSeen(schemaValue(ref), seen)
		for name, v := range sub.props {
			if _, ok := a.props[name]; !ok {
				a.props[name] = v
			}
		}
		for name := range sub.required {
			a.required[name] = true
		}
		off := len(a.branchRequired)
		for name, idx := range sub.branches {
			for _, i := range idx {
				a.branches[name] = append(a.branches[name], off+i)
			}
		}
		a.branchRequired = append(a.branchRequired, sub.branchRequired...)
	}

	branches := append(append(openapi3.SchemaRefs{}, s.OneOf...), s.AnyOf...)
	if len(branches) == 0 {
		return a
	}
	base := map[string]bool{}
	for name := range a.props {
		base[name] = true
	}
	counts := map[string]int{}
	off := len(a.branchRequired)
	for i, ref := range branches {
		sub := aggregateSeen(schemaValue(ref), seen)
		req := make([]string, 0, len(sub.required))
		for name := range sub.required {
			counts[name]++
			req = append(req, name)
		}
		sort.Strings(req)
		a.branchRequired = append(a.branchRequired, req)
		for name, v := range sub.props {
			if _, ok := a.props[name]; !ok {
				a.props[name] = v
			}
			if !base[name] {
				a.branches[name] = append(a.branches[name], off+i)
			}
		}
	}
	for name, n := range counts {
		if n == len(branches) {
			a.required[name] = true
		}
	}
	return a
}
