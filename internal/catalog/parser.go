package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	registryerrors "github.com/alfariiizi/vpkg-template/internal/errors"
)

// Load reads and parses the catalog at path. A document that cannot be
// read yields a MetadataNotFound error, one that cannot be decoded a
// MetadataParseError.
func Load(path string) (*Catalog, error) {
	if path == "" {
		path = DefaultPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, registryerrors.NewNotFoundError(path, err)
	}
	if info.IsDir() {
		return nil, registryerrors.NewNotFoundError(path, fmt.Errorf("%s is a directory", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, registryerrors.NewNotFoundError(path, err)
	}

	cat, err := Parse(data, path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, registryerrors.NewInternalError("resolving catalog path", err)
	}
	cat.Path = path
	cat.Root = filepath.Dir(abs)

	return cat, nil
}

// Parse decodes a catalog document. JSON and YAML are both accepted; path
// is used for error messages only.
func Parse(data []byte, path string) (*Catalog, error) {
	root, err := decodeRoot(data)
	if err != nil {
		return nil, registryerrors.NewParseError(path, "malformed metadata document", err)
	}

	if root.Kind != yaml.MappingNode {
		return nil, registryerrors.NewParseError(path, "metadata document must be a mapping", nil).
			WithLocation(path, root.Line, root.Column)
	}

	cat := &Catalog{}

	packages := lookup(root, "packages")
	if packages != nil && ListShape(packages) != ListAbsent {
		if packages.Kind != yaml.SequenceNode {
			return nil, registryerrors.NewParseError(path, "packages must be a sequence", nil).
				WithLocation(path, packages.Line, packages.Column)
		}
		for i, item := range packages.Content {
			if item.Kind != yaml.MappingNode {
				return nil, registryerrors.NewParseError(path, fmt.Sprintf("package %d must be a mapping", i+1), nil).
					WithLocation(path, item.Line, item.Column)
			}
		}
		cat.HasPackages = true
	}

	if err := root.Decode(cat); err != nil {
		return nil, registryerrors.NewParseError(path, "invalid field type", err)
	}

	for i := range cat.Packages {
		cat.Packages[i].Index = i + 1
	}

	return cat, nil
}

// decodeRoot returns the top-level node. JSON is decoded with encoding/json
// first because YAML rejects some valid JSON, such as tab indentation.
func decodeRoot(data []byte) (*yaml.Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("document is empty")
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		node, jsonErr := decodeJSON(trimmed)
		if jsonErr == nil {
			return node, nil
		}
		// Flow-style YAML also starts with a bracket.
		if node, err := decodeYAML(trimmed); err == nil {
			return node, nil
		}
		return nil, jsonErr
	}

	return decodeYAML(trimmed)
}

func decodeJSON(data []byte) (*yaml.Node, error) {
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after top-level JSON value")
	}

	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return nil, err
	}
	return &node, nil
}

func decodeYAML(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("document is empty")
	}
	return doc.Content[0], nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
