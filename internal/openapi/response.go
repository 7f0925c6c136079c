package openapi

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// envelopeKeys are the properties of a paginated list response.
var envelopeKeys = []string{"data", "page", "pages", "results"}

// responseModel builds the response model for op. override, when non-nil,
// is the x-linode-cli-use-schema replacement for the row schema: envelope
// detection still runs on the declared schema so a list keeps paginating.
func responseModel(op *openapi3.Operation, declared, override *openapi3.Schema) *catalog.ResponseModel {
	m := &catalog.ResponseModel{}
	rows := declared
	if items, ok := envelopeItems(declared); ok {
		m.Paginated = true
		rows = items
	}
	if override != nil {
		rows = override
	}
	if rows == nil {
		return nil
	}

	if schemaType(rows) == catalog.TypeArray {
		rows = schemaValue(rows.Items)
	}
	m.Attrs = responseAttrs(rows, "", 0)

	m.Subtables = extStrings(op.Extensions, extSubtables)
	if len(m.Subtables) == 0 && rows != nil {
		m.Subtables = extStrings(rows.Extensions, extSubtables)
	}
	m.Rows = extStrings(op.Extensions, extRows)

	if len(m.Attrs) == 0 && !m.Paginated && len(m.Subtables) == 0 && len(m.Rows) == 0 {
		return nil
	}
	return m
}

// envelopeItems returns the item schema of a paginated envelope: an
// object whose properties are exactly data, page, pages and results.
func envelopeItems(s *openapi3.Schema) (*openapi3.Schema, bool) {
	if s == nil {
		return nil, false
	}
	agg := aggregate(s)
	if len(agg.props) != len(envelopeKeys) {
		return nil, false
	}
	for _, k := range envelopeKeys {
		if _, ok := agg.props[k]; !ok {
			return nil, false
		}
	}
	data := agg.props["data"]
	if schemaType(data) != catalog.TypeArray {
		return nil, false
	}
	return schemaValue(data.Items), true
}

// responseAttrs flattens s into attributes with dotted names. depth counts
// the arrays of objects crossed to reach a property.
func responseAttrs(s *openapi3.Schema, prefix string, depth int) []catalog.ResponseAttribute {
	if s == nil {
		return nil
	}
	agg := aggregate(s)
	var out []catalog.ResponseAttribute
	for _, name := range agg.names() {
		prop := agg.props[name]
		path := prefix + name
		switch schemaType(prop) {
		case catalog.TypeObject:
			sub := responseAttrs(prop, path+".", depth)
			if len(sub) == 0 {
				out = append(out, attr(prop, path, catalog.TypeObject, "", depth))
				continue
			}
			out = append(out, sub...)
		case catalog.TypeArray:
			items := schemaValue(prop.Items)
			if schemaType(items) == catalog.TypeObject {
				sub := responseAttrs(items, path+".", depth+1)
				if len(sub) > 0 {
					out = append(out, sub...)
					continue
				}
			}
			itemType := schemaType(items)
			if itemType == "" {
				itemType = catalog.TypeString
			}
			out = append(out, attr(prop, path, catalog.TypeArray, itemType, depth))
		case "":
			out = append(out, attr(prop, path, catalog.TypeString, "", depth))
		default:
			out = append(out, attr(prop, path, schemaType(prop), "", depth))
		}
	}
	return out
}

func attr(s *openapi3.Schema, path, typ, itemType string, depth int) catalog.ResponseAttribute {
	return catalog.ResponseAttribute{
		Name:            path,
		Type:            typ,
		ItemType:        itemType,
		Display:         extInt(s.Extensions, extDisplay),
		ColorMap:        extColorMap(s.Extensions),
		NestedListDepth: depth,
		Filterable:      extBool(s.Extensions, extFilterable),
		Description:     firstLine(s.Description),
	}
}

// useSchema resolves x-linode-cli-use-schema, given either as a $ref
// object or as an inline schema.
func useSchema(doc *openapi3.T, op *openapi3.Operation) *openapi3.Schema {
	var ref struct {
		Ref string `json:"$ref"`
	}
	if decodeExt(op.Extensions, extUseSchema, &ref) && ref.Ref != "" {
		const prefix = "#/components/schemas/"
		if doc.Components == nil || !strings.HasPrefix(ref.Ref, prefix) {
			return nil
		}
		return schemaValue(doc.Components.Schemas[strings.TrimPrefix(ref.Ref, prefix)])
	}
	var inline openapi3.Schema
	if decodeExt(op.Extensions, extUseSchema, &inline) && schemaType(&inline) != "" {
		return &inline
	}
	return nil
}
