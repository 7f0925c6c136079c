// Package catalog holds the baked operation catalog: the immutable
// command → action → operation model the CLI is generated from.
package catalog

import (
	"strings"
)

// FormatVersion is bumped whenever the serialized layout changes in a way
// older binaries cannot read.
const FormatVersion = 1

// Catalog is the full set of operations, grouped by command. Commands and
// actions keep the order the baker emitted them in so help output is stable.
type Catalog struct {
	Version    int        `yaml:"version"`
	APIVersion string     `yaml:"api_version,omitempty"`
	BaseURL    string     `yaml:"base_url,omitempty"`
	Commands   []*Command `yaml:"commands"`
}

type Command struct {
	Name    string       `yaml:"name"`
	Summary string       `yaml:"summary,omitempty"`
	Actions []*Operation `yaml:"actions"`
}

// Operation is a single API endpoint invocable as `command action`.
type Operation struct {
	Command     string   `yaml:"command"`
	Action      string   `yaml:"action"`
	Aliases     []string `yaml:"aliases,omitempty"`
	Summary     string   `yaml:"summary,omitempty"`
	Description string   `yaml:"description,omitempty"`

	Method  string `yaml:"method"`
	URL     string `yaml:"url"`
	BaseURL string `yaml:"base_url,omitempty"`

	PathParams  []Parameter `yaml:"path_params,omitempty"`
	QueryParams []Parameter `yaml:"query_params,omitempty"`

	Args []BodyArgument `yaml:"args,omitempty"`
	// BranchRequired lists, per oneOf/anyOf branch of the request body,
	// the argument paths that branch requires.
	BranchRequired [][]string `yaml:"branch_required,omitempty"`

	Response *ResponseModel `yaml:"response,omitempty"`

	AuthRequired bool    `yaml:"auth_required,omitempty"`
	Deprecated   bool    `yaml:"deprecated,omitempty"`
	DocsURL      string  `yaml:"docs_url,omitempty"`
	Upload       *Upload `yaml:"upload,omitempty"`
}

// Upload marks an operation whose body is streamed from a local file.
type Upload struct {
	MaxSize     int64  `yaml:"max_size,omitempty"`
	ContentType string `yaml:"content_type,omitempty"`
}

type Location string

const (
	InPath  Location = "path"
	InQuery Location = "query"
)

// Parameter is a path or query parameter.
type Parameter struct {
	Name        string   `yaml:"name"`
	In          Location `yaml:"in"`
	Type        string   `yaml:"type"`
	Format      string   `yaml:"format,omitempty"`
	Required    bool     `yaml:"required,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// ArgKind is the shape of a body argument on the command line.
type ArgKind int

const (
	// KindScalar is a single string, integer, number, boolean or JSON value.
	KindScalar ArgKind = iota
	// KindScalarList is an array of scalars given by repeating the option.
	KindScalarList
	// KindObjectListField is one leaf of an object inside a list; parallel
	// positions across the sibling fields are zipped into list elements.
	KindObjectListField
)

// BodyArgument is one leaf of the request body schema.
type BodyArgument struct {
	Path        string   `yaml:"path"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	ItemType    string   `yaml:"item_type,omitempty"`
	Format      string   `yaml:"format,omitempty"`
	ListItem    string   `yaml:"list_item,omitempty"`
	Required    bool     `yaml:"required,omitempty"`
	Nullable    bool     `yaml:"nullable,omitempty"`
	Deprecated  bool     `yaml:"deprecated,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Enum        []string `yaml:"enum,omitempty"`
	// Branches names the oneOf/anyOf branches (by index) the argument came
	// from; empty means it is common to every branch.
	Branches []int `yaml:"branches,omitempty"`
}

func (a *BodyArgument) Kind() ArgKind {
	switch {
	case a.ListItem != "":
		return KindObjectListField
	case a.Type == TypeArray:
		return KindScalarList
	default:
		return KindScalar
	}
}

// Leaf returns the argument path relative to its containing list element.
func (a *BodyArgument) Leaf() string {
	if a.ListItem == "" {
		return a.Path
	}
	return strings.TrimPrefix(a.Path, a.ListItem+".")
}

// Datatypes used for parameters, arguments and attributes.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	// TypeJSON is a value that is passed through as a JSON document.
	TypeJSON = "json"
)

// Input formats that change how an argument value is obtained.
const (
	FormatPassword = "password"
	FormatFile     = "file"
	FormatSSLCert  = "ssl-cert"
	FormatSSLKey   = "ssl-key"
)

// IsFileFormat reports whether values of format f may name a local file whose
// contents are substituted.
func IsFileFormat(f string) bool {
	switch f {
	case FormatFile, FormatSSLCert, FormatSSLKey:
		return true
	}
	return false
}

// ResponseAttribute is one leaf of the response schema with display metadata.
type ResponseAttribute struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	ItemType string `yaml:"item_type,omitempty"`
	// Display is the default column ordinal; 0 hides the column by default.
	Display         int               `yaml:"display,omitempty"`
	ColorMap        map[string]string `yaml:"color_map,omitempty"`
	NestedListDepth int               `yaml:"nested_list_depth,omitempty"`
	Filterable      bool              `yaml:"filterable,omitempty"`
	Description     string            `yaml:"description,omitempty"`
}

// Column is the header shown for the attribute: its terminal path segment.
func (a *ResponseAttribute) Column() string {
	if i := strings.LastIndexByte(a.Name, '.'); i >= 0 {
		return a.Name[i+1:]
	}
	return a.Name
}

// ResponseModel describes how a response body is turned into rows.
type ResponseModel struct {
	Attrs     []ResponseAttribute `yaml:"attrs,omitempty"`
	Paginated bool                `yaml:"paginated,omitempty"`
	Subtables []string            `yaml:"subtables,omitempty"`
	Rows      []string            `yaml:"rows,omitempty"`
}

// Filterable returns the attributes that may constrain list queries.
func (m *ResponseModel) Filterable() []ResponseAttribute {
	if m == nil {
		return nil
	}
	var out []ResponseAttribute
	for _, a := range m.Attrs {
		if a.Filterable {
			out = append(out, a)
		}
	}
	return out
}

// IsList reports whether op lists a collection: a paginated GET.
func (op *Operation) IsList() bool {
	return op.Method == "get" && op.Response != nil && op.Response.Paginated
}

// IsMutating reports whether op takes a request body.
func (op *Operation) IsMutating() bool {
	return op.Method == "post" || op.Method == "put"
}

// Arg returns the body argument with the given dotted path.
func (op *Operation) Arg(path string) (*BodyArgument, bool) {
	for i := range op.Args {
		if op.Args[i].Path == path {
			return &op.Args[i], true
		}
	}
	return nil, false
}

// Command returns the named command.
func (c *Catalog) Command(name string) (*Command, bool) {
	for _, cmd := range c.Commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return nil, false
}

// Lookup returns the operation for command and action; aliases match too.
func (c *Catalog) Lookup(command, action string) (*Operation, bool) {
	cmd, ok := c.Command(command)
	if !ok {
		return nil, false
	}
	return cmd.Action(action)
}

func (c *Command) Action(name string) (*Operation, bool) {
	for _, op := range c.Actions {
		if op.Action == name {
			return op, true
		}
	}
	for _, op := range c.Actions {
		for _, a := range op.Aliases {
			if a == name {
				return op, true
			}
		}
	}
	return nil, false
}

// Add appends op under its command, creating the command on first use.
func (c *Catalog) Add(op *Operation) {
	cmd, ok := c.Command(op.Command)
	if !ok {
		cmd = &Command{Name: op.Command}
		c.Commands = append(c.Commands, cmd)
	}
	cmd.Actions = append(cmd.Actions, op)
}

// Operations returns every operation in catalog order.
func (c *Catalog) Operations() []*Operation {
	var out []*Operation
	for _, cmd := range c.Commands {
		out = append(out, cmd.Actions...)
	}
	return out
}
