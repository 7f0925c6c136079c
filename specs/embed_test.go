package specs

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/tarrence/linode-cli/internal/catalog"
	"github.com/tarrence/linode-cli/internal/openapi"
)

// TestCatalogMatchesSource fails when catalog.yaml was edited by hand or
// openapi.yaml changed without running go generate.
func TestCatalogMatchesSource(t *testing.T) {
	ctx := context.Background()
	doc, err := openapi.Load(ctx, "openapi.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	baked, err := openapi.Bake(ctx, doc)
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	b, err := catalog.Marshal(baked)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want, err := catalog.Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	embedded, err := FS.ReadFile("catalog.yaml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(embedded, []byte(catalog.Header)) {
		t.Errorf("catalog.yaml does not start with the generated header")
	}
	got, err := Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}

	if got.APIVersion != want.APIVersion || got.BaseURL != want.BaseURL {
		t.Errorf("catalog.yaml header fields = %q %q, baked %q %q", got.APIVersion, got.BaseURL, want.APIVersion, want.BaseURL)
	}
	if len(got.Commands) != len(want.Commands) {
		t.Fatalf("catalog.yaml has %d commands, baked %d", len(got.Commands), len(want.Commands))
	}
	for i, wc := range want.Commands {
		gc := got.Commands[i]
		if gc.Name != wc.Name || gc.Summary != wc.Summary {
			t.Errorf("command %d = %q (%q), baked %q (%q)", i, gc.Name, gc.Summary, wc.Name, wc.Summary)
			continue
		}
		if len(gc.Actions) != len(wc.Actions) {
			t.Errorf("%s: catalog.yaml has %d actions, baked %d", wc.Name, len(gc.Actions), len(wc.Actions))
			continue
		}
		for j, wop := range wc.Actions {
			if !reflect.DeepEqual(gc.Actions[j], wop) {
				t.Errorf("%s action %d: catalog.yaml has %+v, baked %+v", wc.Name, j, gc.Actions[j], wop)
			}
		}
	}
}

func TestEmbeddedCatalogVerifies(t *testing.T) {
	cat, err := Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if err := cat.Verify(); err != nil {
		t.Fatal(err)
	}
	for _, c := range cat.Commands {
		if c.Summary == "" {
			t.Errorf("command %s has no summary", c.Name)
		}
	}
}
