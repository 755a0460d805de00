package catalog

import (
	"testing"

	registryerrors "github.com/alfariiizi/vpkg-template/internal/errors"
)

// FuzzParse checks that arbitrary input either parses or fails with a
// parse error, and never panics.
func FuzzParse(f *testing.F) {
	f.Add([]byte(jsonCatalog))
	f.Add([]byte(yamlCatalog))
	f.Add([]byte(`{"packages": []}`))
	f.Add([]byte(`packages: [1, 2, 3]`))
	f.Add([]byte("\x00\xff"))

	f.Fuzz(func(t *testing.T, data []byte) {
		cat, err := Parse(data, "fuzz.json")
		if err != nil {
			if !registryerrors.IsParseError(err) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		for i, p := range cat.Packages {
			if p.Index != i+1 {
				t.Fatalf("package %d has index %d", i+1, p.Index)
			}
		}
	})
}
