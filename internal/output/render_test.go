package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/tarrence/linode-cli/internal/catalog"
)

func regionsOp() *catalog.Operation {
	return &catalog.Operation{
		Command: "regions",
		Action:  "list",
		Method:  "get",
		Response: &catalog.ResponseModel{
			Paginated: true,
			Attrs: []catalog.ResponseAttribute{
				{Name: "capabilities", Type: catalog.TypeArray, ItemType: catalog.TypeString, Display: 4},
				{Name: "country", Type: catalog.TypeString, Display: 3},
				{Name: "id", Type: catalog.TypeString, Display: 1},
				{Name: "label", Type: catalog.TypeString, Display: 2},
				{Name: "status", Type: catalog.TypeString, ColorMap: map[string]string{"ok": "green", "default_": "yellow"}},
			},
		},
	}
}

const regionsData = `[
 {"id":"us-east","label":"Newark, NJ","country":"us","capabilities":["Linodes","VPCs"],"status":"ok"},
 {"id":"us-west","label":"Fremont, CA","country":"us","capabilities":["Linodes"],"status":"outage"}
]`

func ipsOp() *catalog.Operation {
	return &catalog.Operation{
		Command: "linodes",
		Action:  "ips-list",
		Method:  "get",
		Response: &catalog.ResponseModel{
			Attrs: []catalog.ResponseAttribute{
				{Name: "ipv4.address", Type: catalog.TypeString, Display: 1, NestedListDepth: 1},
				{Name: "ipv4.type", Type: catalog.TypeString, Display: 2, NestedListDepth: 1},
				{Name: "ipv6.range", Type: catalog.TypeString, Display: 1, NestedListDepth: 1},
				{Name: "linode_id", Type: catalog.TypeInteger, Display: 1},
				{Name: "region", Type: catalog.TypeString, Display: 2},
			},
			Subtables: []string{"ipv4", "ipv6"},
		},
	}
}

const ipsData = `{"linode_id":1,"region":"us-east","ipv4":[{"address":"1.2.3.4","type":"public"}],"ipv6":[{"range":"2600::/64"}]}`

func render(t *testing.T, op *catalog.Operation, data string, opts Options) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, opts)
	if err := p.Render(op, []byte(data)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out.String(), errOut.String()
}

func TestDelimitedSelectedColumns(t *testing.T) {
	out, _ := render(t, regionsOp(), regionsData, Options{
		Mode:      ModeDelimited,
		Delimiter: ",",
		Columns:   []string{"id", "label"},
	})
	want := "us-east,Newark, NJ\nus-west,Fremont, CA\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestDelimitedDefaultColumns(t *testing.T) {
	out, _ := render(t, regionsOp(), regionsData, Options{Mode: ModeDelimited, Headers: true})
	want := "id\tlabel\tcountry\tcapabilities\n" +
		"us-east\tNewark, NJ\tus\tLinodes VPCs\n" +
		"us-west\tFremont, CA\tus\tLinodes\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestSelectColumns(t *testing.T) {
	attrs := regionsOp().Response.Attrs
	names := func(as []catalog.ResponseAttribute) []string {
		var out []string
		for _, a := range as {
			out = append(out, a.Name)
		}
		return out
	}
	for _, tc := range []struct {
		name    string
		columns []string
		all     bool
		want    []string
	}{
		{"defaults", nil, false, []string{"id", "label", "country", "capabilities"}},
		{"all", nil, true, []string{"capabilities", "country", "id", "label", "status"}},
		{"explicit order", []string{"status", "id", "label"}, false, []string{"status", "id", "label"}},
		{"unknown names fall back", []string{"nope"}, false, []string{"capabilities", "country", "id", "label", "status"}},
		{"repeat consumes once", []string{"id", "id"}, false, []string{"id"}},
	} {
		if got := names(selectColumns(attrs, tc.columns, tc.all)); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSubtablesASCII(t *testing.T) {
	out, _ := render(t, ipsOp(), ipsData, Options{Mode: ModeASCII, Headers: true})

	root := strings.Index(out, "| linode_id | region  |")
	v4 := strings.Index(out, "\nipv4\n")
	v6 := strings.Index(out, "\nipv6\n")
	if root < 0 || v4 < 0 || v6 < 0 || !(root < v4 && v4 < v6) {
		t.Fatalf("tables missing or out of order:\n%s", out)
	}
	for _, line := range []string{
		"| 1         | us-east |",
		"| address | type   |",
		"| 1.2.3.4 | public |",
		"| 2600::/64 |",
		"+-----------+---------+",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("missing %q in:\n%s", line, out)
		}
	}
}

func TestSingleTableHidesNestedLists(t *testing.T) {
	out, _ := render(t, ipsOp(), ipsData, Options{Mode: ModeASCII, Headers: true, SingleTable: true})
	if !strings.Contains(out, "linode_id") {
		t.Fatalf("root table missing:\n%s", out)
	}
	if strings.Contains(out, "ipv4") || strings.Contains(out, "address") || strings.Count(out, "+\n") != 3 {
		t.Fatalf("expected only the root table:\n%s", out)
	}
}

func TestTablesFilter(t *testing.T) {
	out, _ := render(t, ipsOp(), ipsData, Options{Mode: ModeDelimited, Headers: true, Tables: []string{"ipv6"}})
	if out != "ipv6\nrange\n2600::/64\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestDelimitedSubtablesSeparated(t *testing.T) {
	out, _ := render(t, ipsOp(), ipsData, Options{Mode: ModeDelimited, Headers: true})
	want := "linode_id\tregion\n1\tus-east\n" +
		"\nipv4\naddress\ttype\n1.2.3.4\tpublic\n" +
		"\nipv6\nrange\n2600::/64\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestMarkdown(t *testing.T) {
	out, _ := render(t, regionsOp(), regionsData, Options{Mode: ModeMarkdown, Headers: true, Columns: []string{"id", "capabilities"}})
	want := "| id | capabilities |\n|---|---|\n| us-east | Linodes, VPCs |\n| us-west | Linodes |\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestBoxTable(t *testing.T) {
	out, _ := render(t, regionsOp(), regionsData, Options{Mode: ModeTable, Headers: true, Columns: []string{"id"}})
	want := "┌─────────┐\n│ id      │\n├─────────┤\n│ us-east │\n│ us-west │\n└─────────┘\n"
	if out != want {
		t.Fatalf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestTruncationWarnsOnce(t *testing.T) {
	out, errOut := render(t, regionsOp(), regionsData, Options{Mode: ModeASCII, Columns: []string{"label"}, ColumnWidth: 5})
	if !strings.Contains(out, "| Newa… |") || !strings.Contains(out, "| Frem… |") {
		t.Fatalf("values not truncated:\n%s", out)
	}
	if strings.Count(errOut, "Warning:") != 1 || !strings.Contains(errOut, "--no-truncation") {
		t.Fatalf("stderr = %q", errOut)
	}

	_, errOut = render(t, regionsOp(), regionsData, Options{Mode: ModeASCII, Columns: []string{"label"}, ColumnWidth: 5, SuppressWarnings: true})
	if errOut != "" {
		t.Fatalf("warning not suppressed: %q", errOut)
	}
}

func TestNoTruncationWraps(t *testing.T) {
	out, errOut := render(t, regionsOp(), regionsData, Options{Mode: ModeASCII, Columns: []string{"label"}, ColumnWidth: 6, NoTruncation: true})
	for _, line := range []string{"| Newark |", "| , NJ   |", "| Fremon |", "| t, CA  |"} {
		if !strings.Contains(out, line) {
			t.Errorf("missing wrapped line %q in:\n%s", line, out)
		}
	}
	if errOut != "" {
		t.Errorf("unexpected warning %q", errOut)
	}
}

func TestNoTruncationWrapsToTerminal(t *testing.T) {
	out, _ := render(t, regionsOp(), regionsData, Options{Mode: ModeASCII, Columns: []string{"label"}, NoTruncation: true, TermWidth: 10})
	for _, line := range []string{"| Newark |", "| , NJ   |", "| Fremon |", "| t, CA  |"} {
		if !strings.Contains(out, line) {
			t.Errorf("missing wrapped line %q in:\n%s", line, out)
		}
	}

	out, _ = render(t, regionsOp(), regionsData, Options{Mode: ModeASCII, Columns: []string{"label"}, NoTruncation: true})
	if !strings.Contains(out, "| Newark, NJ  |") {
		t.Errorf("without a terminal width values stay whole:\n%s", out)
	}
}

func TestJSONWholeRows(t *testing.T) {
	out, _ := render(t, regionsOp(), `[{"id":"us-east","extra":{"a":1}}]`, Options{Mode: ModeJSON})
	if out != `[{"id":"us-east","extra":{"a":1}}]`+"\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestJSONSelectedSubtrees(t *testing.T) {
	op := &catalog.Operation{
		Command: "vpcs",
		Action:  "view",
		Response: &catalog.ResponseModel{Attrs: []catalog.ResponseAttribute{
			{Name: "id", Type: catalog.TypeInteger, Display: 1},
			{Name: "label", Type: catalog.TypeString, Display: 2},
			{Name: "specs.disk", Type: catalog.TypeInteger},
			{Name: "subnets.label", Type: catalog.TypeString, NestedListDepth: 1},
		}},
	}
	data := `{"id":7,"label":"demo","specs":{"disk":10,"memory":2},"subnets":[{"id":1,"label":"s1"}]}`
	out, _ := render(t, op, data, Options{Mode: ModeJSON, Columns: []string{"label", "subnets.label", "specs.disk"}})
	want := `[{"label":"demo","subnets":[{"id":1,"label":"s1"}],"specs":{"disk":10}}]` + "\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}

	pretty, _ := render(t, op, data, Options{Mode: ModeJSON, Pretty: true, Columns: []string{"id"}})
	if !strings.HasPrefix(pretty, "[\n  {\n    \"id\": 7") {
		t.Fatalf("pretty output = %q", pretty)
	}
}

func TestRowsExtension(t *testing.T) {
	op := &catalog.Operation{
		Command: "linodes",
		Action:  "ips-public",
		Response: &catalog.ResponseModel{
			Attrs: []catalog.ResponseAttribute{{Name: "address", Type: catalog.TypeString, Display: 1}},
			Rows:  []string{"ipv4.public", "ipv4.shared"},
		},
	}
	data := `{"ipv4":{"public":[{"address":"1.1.1.1"},{"address":"2.2.2.2"}],"shared":[{"address":"3.3.3.3"}]}}`
	out, _ := render(t, op, data, Options{Mode: ModeDelimited})
	if out != "1.1.1.1\n2.2.2.2\n3.3.3.3\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestZoneFileOverride(t *testing.T) {
	op := &catalog.Operation{
		Command: "domains",
		Action:  "zone-file",
		Response: &catalog.ResponseModel{Attrs: []catalog.ResponseAttribute{
			{Name: "zone_file", Type: catalog.TypeArray, ItemType: catalog.TypeString},
		}},
	}
	data := `{"zone_file":["; example.com","@ IN SOA ns1.linode.com."]}`
	out, _ := render(t, op, data, Options{Mode: ModeTable, Headers: true})
	if out != "; example.com\n@ IN SOA ns1.linode.com.\n" {
		t.Fatalf("override output = %q", out)
	}
	out, _ = render(t, op, data, Options{Mode: ModeJSON})
	if !strings.HasPrefix(out, `[{"zone_file":`) {
		t.Fatalf("json mode should not be overridden: %q", out)
	}
}

func TestKubeconfigOverride(t *testing.T) {
	op := &catalog.Operation{Command: "lke", Action: "kubeconfig-view"}
	out, _ := render(t, op, `{"kubeconfig":"YXBpVmVyc2lvbjogdjEK"}`, Options{Mode: ModeTable})
	if out != "apiVersion: v1\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestPrintBodyWithoutModel(t *testing.T) {
	op := &catalog.Operation{Command: "vpcs", Action: "delete"}
	if out, _ := render(t, op, `{}`, Options{Mode: ModeTable}); out != "" {
		t.Fatalf("empty object printed %q", out)
	}
	if out, _ := render(t, op, `{"a": 1}`, Options{Mode: ModeTable}); out != "{\"a\":1}\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestColorFor(t *testing.T) {
	m := map[string]string{"ok": "green", "default_": "yellow"}
	if colorFor(m, "ok") != "32" || colorFor(m, "outage") != "33" || colorFor(nil, "ok") != "" {
		t.Fatalf("unexpected color mapping")
	}
	if got := colorize("ok", "32"); got != "\x1b[32mok\x1b[0m" {
		t.Fatalf("colorize = %q", got)
	}
}

func TestDisplayWidth(t *testing.T) {
	if displayWidth("東京") != 4 || displayWidth("tokyo") != 5 {
		t.Fatalf("display widths wrong")
	}
	if got := truncate("東京都庁", 5); got != "東京…" {
		t.Fatalf("truncate = %q", got)
	}
}
