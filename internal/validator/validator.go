// Package validator runs the registry rules over a parsed catalog.
//
// Packages are validated by a bounded pool of workers. Each worker checks
// one package's metadata, discovers its templates when the templates
// directory is usable, and checks every template. Workers share nothing but
// the diagnostics.Collector the findings go into.
package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alfariiizi/vpkg-template/internal/catalog"
	"github.com/alfariiizi/vpkg-template/internal/diagnostics"
	"github.com/alfariiizi/vpkg-template/internal/logging"
	"github.com/alfariiizi/vpkg-template/internal/rules"
	"github.com/alfariiizi/vpkg-template/internal/scanner"
)

// MaxDefaultWorkers caps the worker count picked from the CPU count.
const MaxDefaultWorkers = 8

// Discoverer finds the templates of a package.
type Discoverer interface {
	Discover(root string, pkg *catalog.PackageSpec) ([]scanner.TemplateFile, []scanner.DirError)
}

// Options tunes a Validator. Zero values select the defaults.
type Options struct {
	Workers     int
	MaxFileSize int64
	// Discoverer replaces the filesystem scanner.
	Discoverer Discoverer
}

// Validator checks catalogs against a rule set. It holds no per-run state
// and may be reused and shared.
type Validator struct {
	rules      *rules.RuleSet
	discoverer Discoverer
	logger     logging.Logger
	opts       Options
}

// New creates a validator. A nil rule set selects the built-in rules and a
// nil logger discards output.
func New(rs *rules.RuleSet, logger logging.Logger, opts Options) *Validator {
	if rs == nil {
		rs = rules.MustDefault()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = scanner.DefaultMaxFileSize
	}

	d := opts.Discoverer
	if d == nil {
		d = scanner.NewTemplateScanner(rs)
	}

	return &Validator{
		rules:      rs,
		discoverer: d,
		logger:     logger.WithComponent("validator"),
		opts:       opts,
	}
}

// DefaultWorkers returns the CPU count, capped at MaxDefaultWorkers.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > MaxDefaultWorkers {
		n = MaxDefaultWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Rules returns the rule set the validator runs.
func (v *Validator) Rules() *rules.RuleSet {
	return v.rules
}

// ValidatePath loads the catalog at path and validates it. Load failures
// are returned as is so callers can tell a missing document from a
// malformed one.
func (v *Validator) ValidatePath(ctx context.Context, path string) (*diagnostics.Report, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return v.Run(ctx, cat)
}

// Run validates every package of cat and returns the report. The returned
// error is non-nil only if ctx was cancelled; the report then covers the
// packages that completed.
func (v *Validator) Run(ctx context.Context, cat *catalog.Catalog) (*diagnostics.Report, error) {
	op := logging.StartOperation(v.logger, "validate")
	collector := diagnostics.NewCollector()

	root := cat.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving catalog root: %w", err)
		}
		root = wd
	}

	if !v.checkCatalog(collector.Scope(0, 0, cat.Path), cat) {
		report := collector.Report()
		op.End(ctx, "packages", 0, "errors", report.Errors)
		return report, nil
	}

	dups := duplicateNames(cat)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.Workers)

	for i := range cat.Packages {
		p := &cat.Packages[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return v.validatePackage(gctx, collector, root, p, dups[p.Index])
		})
	}

	err := g.Wait()
	report := collector.Report()
	if err != nil {
		op.EndWithError(ctx, err)
		return report, fmt.Errorf("validation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		op.EndWithError(ctx, err)
		return report, fmt.Errorf("validation interrupted: %w", err)
	}

	op.End(ctx,
		"packages", len(cat.Packages),
		"errors", report.Errors,
		"warnings", report.Warnings,
		"valid", report.Valid)

	return report, nil
}

// validatePackage only fails on cancellation; rule violations are findings.
func (v *Validator) validatePackage(ctx context.Context, collector *diagnostics.Collector, root string, p *catalog.PackageSpec, dupOf int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := v.logger.With("package", p.Index)
	scope := collector.Scope(p.Index, 0, "")

	dir := v.checkPackage(scope, root, p, dupOf)
	checked := 0

	if dir != "" {
		files, dirErrs := v.discoverer.Discover(dir, p)
		for _, de := range dirErrs {
			rel := de.Path
			if r, err := filepath.Rel(root, de.Path); err == nil {
				rel = filepath.ToSlash(r)
			}
			logger.Warn(ctx, de.Err, "Skipping unreadable directory", "path", rel)
			scope.WarnPathf(RulePackageUnreadableDir, rel, "package %d: cannot read directory: %v", p.Index, de.Err)
		}

		if len(files) == 0 {
			scope.Errorf(RulePackageTemplates, "package %d: no template files (*%s) found in %q", p.Index, v.rules.Tables.TemplateSuffix, p.TemplatesDir)
		}

		scanner.SortByPath(files)
		for i := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := &files[i]
			path := filepath.ToSlash(filepath.Join(p.TemplatesDir, f.RelPath))
			v.checkTemplate(ctx, scope.File(i+1, path), f)
		}
		checked = len(files)
	}

	name := p.Name
	if name == "" {
		name = "unnamed"
	}
	scope.Infof(RulePackageSummary, "package %d (%s): %d template(s) checked", p.Index, name, checked)
	logger.Debug(ctx, "Package validated", "name", name, "templates", checked)

	return nil
}
