// Package specs carries the OpenAPI source of the built-in commands and the
// catalog baked from it.
package specs

//go:generate go run .. catalog bake openapi.yaml --out catalog.yaml

import (
	"embed"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// FS contains the baked operation catalog embedded into the binary.
//
//go:embed catalog.yaml
var FS embed.FS

// Catalog decodes the embedded catalog.
func Catalog() (*catalog.Catalog, error) {
	return catalog.LoadFS(FS, "catalog.yaml")
}
