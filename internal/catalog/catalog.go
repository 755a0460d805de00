// Package catalog decodes the registry metadata document.
//
// The parser checks structure only: the document is a mapping, packages is
// a sequence of mappings, and scalar fields decode as strings. Field
// semantics are left to the validator so that one malformed package never
// hides the findings of its siblings.
package catalog

import (
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the catalog is looked up when no path is given.
const DefaultPath = "packages.json"

// Catalog is the parsed top-level metadata document.
type Catalog struct {
	SchemaVersion string        `yaml:"schemaVersion" json:"schemaVersion"`
	RepositoryURL string        `yaml:"repositoryURL" json:"repositoryURL"`
	Author        string        `yaml:"author" json:"author"`
	License       string        `yaml:"license" json:"license"`
	Packages      []PackageSpec `yaml:"packages" json:"packages"`

	// Path is the file the catalog was loaded from, Root its directory.
	Path string `yaml:"-" json:"-"`
	Root string `yaml:"-" json:"-"`
	// HasPackages is false when the packages key is absent.
	HasPackages bool `yaml:"-" json:"-"`
}

// PackageSpec is one declared package.
type PackageSpec struct {
	Name         string `yaml:"name" json:"name"`
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	Type         string `yaml:"type" json:"type"`
	TemplatesDir string `yaml:"templatesDir" json:"templatesDir"`
	Version      string `yaml:"version" json:"version"`

	// Tags and Dependencies keep the raw node so that a value of the wrong
	// shape is reported as a finding rather than failing the parse.
	Tags         yaml.Node `yaml:"tags" json:"-"`
	Dependencies yaml.Node `yaml:"dependencies" json:"-"`

	// Index is the 1-based position in the catalog.
	Index int `yaml:"-" json:"index"`
}

// Field is a required PackageSpec field, in reporting order.
type Field struct {
	Name  string
	Value func(*PackageSpec) string
}

// RequiredFields lists the fields every package must declare.
var RequiredFields = []Field{
	{"name", func(p *PackageSpec) string { return p.Name }},
	{"title", func(p *PackageSpec) string { return p.Title }},
	{"description", func(p *PackageSpec) string { return p.Description }},
	{"type", func(p *PackageSpec) string { return p.Type }},
	{"templatesDir", func(p *PackageSpec) string { return p.TemplatesDir }},
	{"version", func(p *PackageSpec) string { return p.Version }},
}

// TemplatesPath resolves the package's templatesDir against the catalog
// root. Absolute paths are returned cleaned.
func (c *Catalog) TemplatesPath(p *PackageSpec) string {
	if filepath.IsAbs(p.TemplatesDir) {
		return filepath.Clean(p.TemplatesDir)
	}
	return filepath.Join(c.Root, p.TemplatesDir)
}

// ListKind describes the shape of an optional list field.
type ListKind int

const (
	ListAbsent ListKind = iota
	ListSequence
	ListInvalid
)

// ListShape reports whether an optional list node is absent, a sequence, or
// something else. An explicit null counts as absent.
func ListShape(n *yaml.Node) ListKind {
	switch {
	case n.Kind == 0:
		return ListAbsent
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null":
		return ListAbsent
	case n.Kind == yaml.SequenceNode:
		return ListSequence
	default:
		return ListInvalid
	}
}

// Strings returns the scalar string entries of a sequence node and the
// number of entries that were not plain strings.
func Strings(n *yaml.Node) ([]string, int) {
	if n.Kind != yaml.SequenceNode {
		return nil, 0
	}

	var out []string
	invalid := 0
	for _, item := range n.Content {
		if item.Kind == yaml.ScalarNode && item.ShortTag() == "!!str" {
			out = append(out, item.Value)
			continue
		}
		invalid++
	}
	return out, invalid
}
