package openapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"cloudeng.io/errors"
	"cloudeng.io/logging/ctxlog"
	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/errgroup"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// methodOrder fixes the order operations of one path are emitted in.
var methodOrder = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

type rawOp struct {
	path   string
	method string
	item   *openapi3.PathItem
	op     *openapi3.Operation
	baked  *catalog.Operation
	skip   bool
	err    error
}

// Bake walks every path and method of doc and builds the catalog.
// Operations are baked concurrently but merged in sorted path and fixed
// method order, so the result is the same for the same document.
func Bake(ctx context.Context, doc *openapi3.T) (*catalog.Catalog, error) {
	if doc == nil || doc.Paths == nil {
		return nil, fmt.Errorf("OpenAPI document has no paths")
	}
	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for p := range pathMap {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var raws []*rawOp
	for _, p := range paths {
		item := pathMap[p]
		if item == nil {
			continue
		}
		ops := item.Operations()
		for _, m := range methodOrder {
			if op := ops[m]; op != nil {
				raws = append(raws, &rawOp{path: p, method: m, item: item, op: op})
			}
		}
	}

	var g errgroup.Group
	g.SetLimit(8)
	for _, r := range raws {
		g.Go(func() error {
			r.baked, r.skip, r.err = bakeOperation(doc, r.path, r.method, r.item, r.op)
			return nil
		})
	}
	_ = g.Wait()

	cat := &catalog.Catalog{Version: catalog.FormatVersion}
	if doc.Info != nil {
		cat.APIVersion = doc.Info.Version
	}
	if len(doc.Servers) > 0 {
		cat.BaseURL = strings.TrimRight(doc.Servers[0].URL, "/")
	}

	var errs errors.M
	for _, r := range raws {
		if r.err != nil {
			errs.Append(fmt.Errorf("%s %s: %w", r.method, r.path, r.err))
			continue
		}
		if r.skip {
			continue
		}
		cat.Add(r.baked)
		if c, ok := cat.Command(r.baked.Command); ok && c.Summary == "" {
			c.Summary = commandSummary(doc, r.op)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := cat.Verify(); err != nil {
		return nil, err
	}
	ctxlog.Debug(ctx, "baked catalog", "commands", len(cat.Commands), "operations", len(cat.Operations()))
	return cat, nil
}

func bakeOperation(doc *openapi3.T, path, method string, item *openapi3.PathItem, op *openapi3.Operation) (*catalog.Operation, bool, error) {
	if extBool(op.Extensions, extSkip) {
		return nil, true, nil
	}

	command := extString(op.Extensions, extCommand)
	if command == "" {
		command = extString(item.Extensions, extCommand)
	}
	if command == "" {
		command = fallbackCommand(path)
	}
	action := fallbackAction(path, method)
	var aliases []string
	if names := extStrings(op.Extensions, extAction); len(names) > 0 {
		action, aliases = names[0], names[1:]
	}

	out := &catalog.Operation{
		Command:     command,
		Action:      action,
		Aliases:     aliases,
		Summary:     strings.TrimSpace(op.Summary),
		Description: strings.TrimSpace(op.Description),
		Method:      strings.ToLower(method),
		URL:         path,
		Deprecated:  op.Deprecated,
	}
	if op.Servers != nil && len(*op.Servers) > 0 {
		out.BaseURL = strings.TrimRight((*op.Servers)[0].URL, "/")
	}
	if op.ExternalDocs != nil {
		out.DocsURL = op.ExternalDocs.URL
	}
	out.AuthRequired = len(doc.Security) > 0
	if op.Security != nil {
		out.AuthRequired = len(*op.Security) > 0
	}

	params := mergeParameters(item.Parameters, op.Parameters)
	var problems []string
	for _, name := range catalog.Placeholders(path) {
		p, ok := params[paramKey{name, catalog.InPath}]
		if !ok {
			problems = append(problems, fmt.Sprintf("placeholder {%s} has no path parameter", name))
			continue
		}
		out.PathParams = append(out.PathParams, p)
	}

	reqSchema, reqType := requestSchema(op)
	switch {
	case reqType == "application/octet-stream" || hasUploadExt(op):
		var u uploadExt
		decodeExt(op.Extensions, extUpload, &u)
		if u.ContentType == "" {
			u.ContentType = "application/octet-stream"
		}
		out.Upload = &catalog.Upload{MaxSize: u.MaxSize, ContentType: u.ContentType}
	case reqSchema != nil:
		out.Args, out.BranchRequired = requestArgs(reqSchema)
	}

	out.Response = responseModel(op, responseSchema(op), useSchema(doc, op))

	for _, p := range sortedParams(params) {
		if p.In != catalog.InQuery {
			continue
		}
		if out.Response != nil && out.Response.Paginated && (p.Name == "page" || p.Name == "page_size") {
			continue
		}
		out.QueryParams = append(out.QueryParams, p)
	}

	if len(problems) > 0 {
		return nil, false, fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return out, false, nil
}

// commandSummary describes a command by the first tag of one of its
// operations, using the tag's description when the document declares one.
func commandSummary(doc *openapi3.T, op *openapi3.Operation) string {
	if len(op.Tags) == 0 {
		return ""
	}
	if t := doc.Tags.Get(op.Tags[0]); t != nil && strings.TrimSpace(t.Description) != "" {
		return firstLine(t.Description)
	}
	return op.Tags[0]
}

func hasUploadExt(op *openapi3.Operation) bool {
	_, ok := op.Extensions[extUpload]
	return ok
}

type paramKey struct {
	name string
	in   catalog.Location
}

// mergeParameters combines path-item and operation parameters; operation
// parameters win on name and location.
func mergeParameters(lists ...openapi3.Parameters) map[paramKey]catalog.Parameter {
	out := map[paramKey]catalog.Parameter{}
	for _, list := range lists {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			in := catalog.Location(p.In)
			if in != catalog.InPath && in != catalog.InQuery {
				continue
			}
			typ := catalog.TypeString
			format := ""
			if s := schemaValue(p.Schema); s != nil {
				if t := schemaType(s); t != "" {
					typ = t
				}
				format = s.Format
			}
			out[paramKey{p.Name, in}] = catalog.Parameter{
				Name:        p.Name,
				In:          in,
				Type:        typ,
				Format:      format,
				Required:    p.Required || in == catalog.InPath,
				Description: firstLine(p.Description),
			}
		}
	}
	return out
}

func sortedParams(m map[paramKey]catalog.Parameter) []catalog.Parameter {
	out := make([]catalog.Parameter, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].In != out[j].In {
			return out[i].In < out[j].In
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// requestSchema returns the schema of the primary request media type,
// preferring JSON.
func requestSchema(op *openapi3.Operation) (*openapi3.Schema, string) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, ""
	}
	content := op.RequestBody.Value.Content
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Strings(types)
	for _, ct := range types {
		if strings.HasPrefix(ct, "application/json") {
			return schemaValue(content[ct].Schema), ct
		}
	}
	for _, ct := range types {
		return schemaValue(content[ct].Schema), ct
	}
	return nil, ""
}

// responseSchema returns the JSON schema of the first 2xx response.
func responseSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.Responses == nil {
		return nil
	}
	for _, code := range []int{200, 201, 202} {
		resp := op.Responses.Status(code)
		if resp == nil || resp.Value == nil {
			continue
		}
		for ct, mt := range resp.Value.Content {
			if strings.HasPrefix(ct, "application/json") && mt != nil {
				return schemaValue(mt.Schema)
			}
		}
	}
	return nil
}
