package validator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/alfariiizi/vpkg-template/internal/catalog"
	"github.com/alfariiizi/vpkg-template/internal/diagnostics"
)

// Rule identifiers for package-level findings.
const (
	RuleCatalogPackages      = "catalog.packages"
	RuleCatalogSchemaVersion = "catalog.schema_version"
	RulePackageRequired      = "package.required"
	RulePackageDuplicate     = "package.duplicate"
	RulePackageName          = "package.name.format"
	RulePackageType          = "package.type.unknown"
	RulePackageVersion       = "package.version.format"
	RulePackagePrerelease    = "package.version.prerelease"
	RulePackageTemplatesDir  = "package.templates_dir"
	RulePackageTemplates     = "package.templates.empty"
	RulePackageUnreadableDir = "package.templates.unreadable"
	RulePackageTags          = "package.tags"
	RulePackageDependencies  = "package.dependencies"
	RulePackageSummary       = "package.summary"
)

// checkCatalog runs the document-level rules. It returns false when there
// are no packages to validate.
func (v *Validator) checkCatalog(scope *diagnostics.Scope, cat *catalog.Catalog) bool {
	switch {
	case cat.SchemaVersion == "":
		scope.Warnf(RuleCatalogSchemaVersion, "schemaVersion is missing")
	case !v.rules.SchemaVersion.MatchString(cat.SchemaVersion):
		scope.Warnf(RuleCatalogSchemaVersion, "schemaVersion %q does not match %s", cat.SchemaVersion, v.rules.Tables.SchemaVersionPattern)
	}

	if !cat.HasPackages {
		scope.Errorf(RuleCatalogPackages, "packages array is required")
		return false
	}
	if len(cat.Packages) == 0 {
		scope.Errorf(RuleCatalogPackages, "packages array cannot be empty")
		return false
	}

	return true
}

// duplicateNames maps the index of every repeated package name to the index
// that declared it first.
func duplicateNames(cat *catalog.Catalog) map[int]int {
	first := make(map[string]int, len(cat.Packages))
	dups := make(map[int]int)
	for _, p := range cat.Packages {
		if p.Name == "" {
			continue
		}
		if idx, ok := first[p.Name]; ok {
			dups[p.Index] = idx
			continue
		}
		first[p.Name] = p.Index
	}
	return dups
}

// checkPackage runs the package rules and returns the resolved templates
// directory. The directory is empty when discovery must be skipped. Every
// rule runs regardless of the others.
func (v *Validator) checkPackage(scope *diagnostics.Scope, root string, p *catalog.PackageSpec, dupOf int) string {
	for _, field := range catalog.RequiredFields {
		if strings.TrimSpace(field.Value(p)) == "" {
			scope.Errorf(RulePackageRequired, "package %d: missing required field %q", p.Index, field.Name)
		}
	}

	if dupOf > 0 {
		scope.Errorf(RulePackageDuplicate, "package %d: duplicate package name %q (first declared by package %d)", p.Index, p.Name, dupOf)
	}

	if p.Name != "" && !v.rules.Name.MatchString(p.Name) {
		scope.Errorf(RulePackageName, "package %d: invalid name %q, expected <org>/<package> using lowercase letters, digits and hyphens", p.Index, p.Name)
	}

	if p.Type != "" && !v.rules.KnownType(p.Type) {
		scope.Warnf(RulePackageType, "package %d: unknown package type %q (known: %s)", p.Index, p.Type, strings.Join(v.rules.Tables.PackageTypes, ", "))
	}

	if p.Version != "" {
		if !v.rules.Version.MatchString(p.Version) {
			scope.Warnf(RulePackageVersion, "package %d: version %q is not a semantic version", p.Index, p.Version)
		} else if sv, err := semver.NewVersion(p.Version); err == nil && sv.Prerelease() != "" {
			scope.Infof(RulePackagePrerelease, "package %d: version %s is a pre-release", p.Index, p.Version)
		}
	}

	dir := ""
	if p.TemplatesDir != "" {
		dir = v.checkTemplatesDir(scope, root, p)
	}

	v.checkList(scope, RulePackageTags, "tags", p, &p.Tags)
	v.checkList(scope, RulePackageDependencies, "dependencies", p, &p.Dependencies)

	return dir
}

func (v *Validator) checkTemplatesDir(scope *diagnostics.Scope, root string, p *catalog.PackageSpec) string {
	dir := p.TemplatesDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	dir = filepath.Clean(dir)

	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		scope.Errorf(RulePackageTemplatesDir, "package %d: templatesDir %q resolves outside the catalog root", p.Index, p.TemplatesDir)
		return ""
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		scope.Errorf(RulePackageTemplatesDir, "package %d: templatesDir %q does not exist", p.Index, p.TemplatesDir)
		return ""
	case err != nil:
		scope.Errorf(RulePackageTemplatesDir, "package %d: templatesDir %q cannot be accessed: %v", p.Index, p.TemplatesDir, err)
		return ""
	case !info.IsDir():
		scope.Errorf(RulePackageTemplatesDir, "package %d: templatesDir %q is not a directory", p.Index, p.TemplatesDir)
		return ""
	}

	return dir
}

func (v *Validator) checkList(scope *diagnostics.Scope, rule, field string, p *catalog.PackageSpec, node *yaml.Node) {
	switch catalog.ListShape(node) {
	case catalog.ListInvalid:
		scope.Errorf(rule, "package %d: %s must be an array", p.Index, field)
	case catalog.ListSequence:
		if _, invalid := catalog.Strings(node); invalid > 0 {
			scope.Warnf(rule, "package %d: %s has %d non-string entries", p.Index, field, invalid)
		}
	}
}
