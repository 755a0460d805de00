// Package scanner discovers template files under a package's templates
// directory.
//
// The walk is iterative: pending directories sit on an explicit stack, so a
// deeply nested submission cannot grow the goroutine stack. Entries are
// visited in the order the filesystem returns them; callers that need a
// stable order sort the result by RelPath.
package scanner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/alfariiizi/vpkg-template/internal/catalog"
	"github.com/alfariiizi/vpkg-template/internal/rules"
)

// DefaultMaxFileSize caps how much of a template is read into memory.
const DefaultMaxFileSize int64 = 1024 * 1024

// TemplateFile is a discovered template.
type TemplateFile struct {
	// Path is the location on disk, RelPath the slash-separated path
	// relative to the templates directory.
	Path    string
	RelPath string
	Kind    rules.Kind
	// Package is a back-reference to the declaring package.
	Package *catalog.PackageSpec
}

// DirError records a directory that could not be listed.
type DirError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e DirError) Error() string {
	return fmt.Sprintf("reading directory %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e DirError) Unwrap() error {
	return e.Err
}

// TemplateScanner finds and classifies template files.
type TemplateScanner struct {
	rules *rules.RuleSet
}

// NewTemplateScanner creates a scanner for the given rule set.
func NewTemplateScanner(rs *rules.RuleSet) *TemplateScanner {
	return &TemplateScanner{rules: rs}
}

// Discover walks root depth-first and returns every regular file carrying
// the template suffix. Symlinks are not followed. Directories that cannot be
// read are reported in the second return value and skipped.
func (s *TemplateScanner) Discover(root string, pkg *catalog.PackageSpec) ([]TemplateFile, []DirError) {
	var files []TemplateFile
	var errs []DirError
	stack := []string{root}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := readDir(dir)
		if err != nil {
			errs = append(errs, DirError{Path: dir, Err: err})
			continue
		}

		// Push subdirectories in reverse so they pop in enumeration order.
		var subdirs []string
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			mode := entry.Type()

			switch {
			case mode&fs.ModeSymlink != 0:
				continue
			case entry.IsDir():
				subdirs = append(subdirs, path)
			case mode.IsRegular() && s.rules.IsTemplate(entry.Name()):
				rel, err := filepath.Rel(root, path)
				if err != nil {
					rel = entry.Name()
				}
				rel = filepath.ToSlash(rel)
				files = append(files, TemplateFile{
					Path:    path,
					RelPath: rel,
					Kind:    s.rules.KindOf(rel),
					Package: pkg,
				})
			}
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return files, errs
}

// readDir lists a directory without sorting, closing the handle on every
// path.
func readDir(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.ReadDir(-1)
}

// SortByPath orders templates by relative path.
func SortByPath(files []TemplateFile) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
}

// ReadContent reads the template into memory. Files larger than maxSize
// are rejected; a non-positive maxSize uses DefaultMaxFileSize. The file
// handle is released before returning, whatever the outcome.
func (t *TemplateFile) ReadContent(maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	f, err := os.Open(t.Path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", t.RelPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("getting file info for %s: %w", t.RelPath, err)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("file %s is %d bytes, exceeds limit of %d", t.RelPath, info.Size(), maxSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", t.RelPath, err)
	}
	if int64(len(content)) > maxSize {
		return nil, fmt.Errorf("file %s exceeds limit of %d bytes", t.RelPath, maxSize)
	}

	return content, nil
}
