package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfariiizi/vpkg-template/internal/catalog"
	"github.com/alfariiizi/vpkg-template/internal/rules"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func relPaths(files []TemplateFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cache.go.tmpl"), "package cache")
	writeFile(t, filepath.Join(root, "README.md.tmpl"), "# Cache")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a template")
	writeFile(t, filepath.Join(root, "internal", "store", "store.go.tmpl"), "package store")
	writeFile(t, filepath.Join(root, "config", "app.yaml.tmpl"), "key: {{ .Value }}")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	pkg := &catalog.PackageSpec{Name: "acme/cache", Index: 1}
	s := NewTemplateScanner(rules.MustDefault())

	files, errs := s.Discover(root, pkg)
	require.Empty(t, errs)

	SortByPath(files)
	assert.Equal(t, []string{
		"README.md.tmpl",
		"cache.go.tmpl",
		"config/app.yaml.tmpl",
		"internal/store/store.go.tmpl",
	}, relPaths(files))

	kinds := make(map[string]rules.Kind)
	for _, f := range files {
		assert.Same(t, pkg, f.Package)
		assert.True(t, strings.HasPrefix(f.Path, root))
		kinds[f.RelPath] = f.Kind
	}
	assert.Equal(t, rules.KindDocumentation, kinds["README.md.tmpl"])
	assert.Equal(t, rules.KindSource, kinds["cache.go.tmpl"])
	assert.Equal(t, rules.KindOther, kinds["config/app.yaml.tmpl"])
	assert.Equal(t, rules.KindSource, kinds["internal/store/store.go.tmpl"])
}

func TestDiscoverEmpty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")

	files, errs := NewTemplateScanner(rules.MustDefault()).Discover(root, nil)
	assert.Empty(t, files)
	assert.Empty(t, errs)
}

func TestDiscoverDeepNesting(t *testing.T) {
	root := t.TempDir()
	dir := root
	for i := 0; i < 60; i++ {
		dir = filepath.Join(dir, fmt.Sprintf("d%d", i))
	}
	writeFile(t, filepath.Join(dir, "deep.go.tmpl"), "package deep")

	files, errs := NewTemplateScanner(rules.MustDefault()).Discover(root, nil)
	require.Empty(t, errs)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].RelPath, "d59/deep.go.tmpl"))
}

func TestDiscoverSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.go.tmpl"), "package secret")
	writeFile(t, filepath.Join(root, "real.go.tmpl"), "package real")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.go.tmpl"), filepath.Join(root, "alias.go.tmpl")))

	files, errs := NewTemplateScanner(rules.MustDefault()).Discover(root, nil)
	require.Empty(t, errs)
	assert.Equal(t, []string{"real.go.tmpl"}, relPaths(files))
}

func TestDiscoverMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	files, errs := NewTemplateScanner(rules.MustDefault()).Discover(root, nil)
	assert.Empty(t, files)
	require.Len(t, errs, 1)
	assert.Equal(t, root, errs[0].Path)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
}

func TestReadContent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "cache.go.tmpl")
	writeFile(t, path, "package {{ .Name }}")

	tf := &TemplateFile{Path: path, RelPath: "cache.go.tmpl"}

	content, err := tf.ReadContent(0)
	require.NoError(t, err)
	assert.Equal(t, "package {{ .Name }}", string(content))

	_, err = tf.ReadContent(4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")

	missing := &TemplateFile{Path: filepath.Join(root, "gone.tmpl"), RelPath: "gone.tmpl"}
	_, err = missing.ReadContent(0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
