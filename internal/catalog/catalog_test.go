package catalog

import (
	"reflect"
	"strings"
	"testing"
)

func sampleCatalog() *Catalog {
	c := &Catalog{Version: FormatVersion, APIVersion: "4.0", BaseURL: "https://api.linode.com/v4"}
	c.Add(&Operation{
		Command: "vpcs",
		Action:  "create",
		Method:  "post",
		URL:     "/vpcs",
		Args: []BodyArgument{
			{Path: "label", Name: "label", Type: TypeString, Required: true},
			{Path: "subnets.ipv4", Name: "ipv4", Type: TypeString, ListItem: "subnets"},
			{Path: "subnets.label", Name: "label", Type: TypeString, ListItem: "subnets"},
			{Path: "tags", Name: "tags", Type: TypeArray, ItemType: TypeString},
		},
		Response: &ResponseModel{
			Attrs: []ResponseAttribute{
				{Name: "id", Type: TypeInteger, Display: 1},
				{Name: "status", Type: TypeString, Display: 2, ColorMap: map[string]string{"active": "green", "default_": "yellow"}},
				{Name: "subnets.label", Type: TypeString, NestedListDepth: 1},
			},
			Subtables: []string{"subnets"},
		},
		AuthRequired: true,
	})
	c.Add(&Operation{
		Command: "vpcs",
		Action:  "list",
		Aliases: []string{"ls"},
		Method:  "get",
		URL:     "/vpcs",
		Response: &ResponseModel{
			Paginated: true,
			Attrs:     []ResponseAttribute{{Name: "label", Type: TypeString, Filterable: true, Display: 1}},
		},
	})
	c.Add(&Operation{
		Command:    "vpcs",
		Action:     "view",
		Method:     "get",
		URL:        "/vpcs/{vpcId}",
		PathParams: []Parameter{{Name: "vpcId", In: InPath, Type: TypeInteger, Required: true}},
	})
	return c
}

func TestMarshalRoundTrip(t *testing.T) {
	c := sampleCatalog()
	b, err := Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(c, got) {
		t.Fatalf("round trip changed the catalog:\nwant %+v\ngot  %+v", c, got)
	}
	again, err := Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(again) != string(b) {
		t.Fatalf("re-marshaled catalog differs:\n%s\n---\n%s", b, again)
	}
}

func TestUnmarshalRejectsUnknownVersion(t *testing.T) {
	_, err := Unmarshal([]byte("version: 99\ncommands: []\n"))
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	c := sampleCatalog()
	for _, tc := range []struct {
		command, action string
		want            string
		ok              bool
	}{
		{"vpcs", "create", "create", true},
		{"vpcs", "ls", "list", true},
		{"vpcs", "nope", "", false},
		{"nope", "list", "", false},
	} {
		op, ok := c.Lookup(tc.command, tc.action)
		if ok != tc.ok {
			t.Errorf("Lookup(%q, %q) ok=%v, want %v", tc.command, tc.action, ok, tc.ok)
			continue
		}
		if ok && op.Action != tc.want {
			t.Errorf("Lookup(%q, %q) = %q, want %q", tc.command, tc.action, op.Action, tc.want)
		}
	}
}

func TestVerify(t *testing.T) {
	c := sampleCatalog()
	if err := c.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	c.Add(&Operation{Command: "vpcs", Action: "ls", Method: "get", URL: "/vpcs/{vpcId}/subnets"})
	err := c.Verify()
	if err == nil {
		t.Fatal("expected verification error")
	}
	for _, want := range []string{`duplicate action "ls"`, "placeholder {vpcId}"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestArgKind(t *testing.T) {
	op, _ := sampleCatalog().Lookup("vpcs", "create")
	kinds := map[string]ArgKind{
		"label":         KindScalar,
		"subnets.label": KindObjectListField,
		"tags":          KindScalarList,
	}
	for path, want := range kinds {
		a, ok := op.Arg(path)
		if !ok {
			t.Fatalf("missing arg %s", path)
		}
		if a.Kind() != want {
			t.Errorf("%s kind = %v, want %v", path, a.Kind(), want)
		}
	}
	a, _ := op.Arg("subnets.ipv4")
	if a.Leaf() != "ipv4" {
		t.Errorf("Leaf() = %q", a.Leaf())
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("/linode/instances/{linodeId}/configs/{configId}")
	want := []string{"linodeId", "configId"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Placeholders = %v, want %v", got, want)
	}
}

func TestColumn(t *testing.T) {
	a := ResponseAttribute{Name: "specs.disk"}
	if a.Column() != "disk" {
		t.Fatalf("Column() = %q", a.Column())
	}
}
