// Package rules holds the pattern tables the validator runs on.
//
// Tables is the serializable form: it is what configuration overrides and
// what `vpkg rules` prints. Compile turns it into a RuleSet with compiled
// regular expressions, which the validator shares read-only between workers.
package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind is the classification of a template file.
type Kind int

const (
	KindOther Kind = iota
	KindSource
	KindDocumentation
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindDocumentation:
		return "documentation"
	default:
		return "other"
	}
}

// Security pattern categories.
const (
	CategorySecret = "secret"
	CategoryExec   = "exec"
	CategoryUnsafe = "unsafe"
)

// SecurityPattern is one entry of the security scan.
type SecurityPattern struct {
	Name        string `yaml:"name" json:"name" mapstructure:"name"`
	Category    string `yaml:"category" json:"category" mapstructure:"category"`
	Description string `yaml:"description" json:"description" mapstructure:"description"`
	Pattern     string `yaml:"pattern" json:"pattern" mapstructure:"pattern"`
}

// Tables is the full, uncompiled rule configuration.
type Tables struct {
	NamePattern          string   `yaml:"name_pattern" json:"name_pattern" mapstructure:"name_pattern"`
	VersionPattern       string   `yaml:"version_pattern" json:"version_pattern" mapstructure:"version_pattern"`
	SchemaVersionPattern string   `yaml:"schema_version_pattern" json:"schema_version_pattern" mapstructure:"schema_version_pattern"`
	PackageTypes         []string `yaml:"package_types" json:"package_types" mapstructure:"package_types"`
	ModuleType           string   `yaml:"module_type" json:"module_type" mapstructure:"module_type"`

	TemplateSuffix string   `yaml:"template_suffix" json:"template_suffix" mapstructure:"template_suffix"`
	SourceSuffixes []string `yaml:"source_suffixes" json:"source_suffixes" mapstructure:"source_suffixes"`
	DocMarkers     []string `yaml:"doc_markers" json:"doc_markers" mapstructure:"doc_markers"`

	OpenDelim  string `yaml:"open_delim" json:"open_delim" mapstructure:"open_delim"`
	CloseDelim string `yaml:"close_delim" json:"close_delim" mapstructure:"close_delim"`

	DeclarationPattern   string   `yaml:"declaration_pattern" json:"declaration_pattern" mapstructure:"declaration_pattern"`
	ModuleImports        []string `yaml:"module_imports" json:"module_imports" mapstructure:"module_imports"`
	ModuleExportPatterns []string `yaml:"module_export_patterns" json:"module_export_patterns" mapstructure:"module_export_patterns"`
	ExportedFuncPattern  string   `yaml:"exported_func_pattern" json:"exported_func_pattern" mapstructure:"exported_func_pattern"`
	DocCommentPrefix     string   `yaml:"doc_comment_prefix" json:"doc_comment_prefix" mapstructure:"doc_comment_prefix"`

	HeadingPattern string   `yaml:"heading_pattern" json:"heading_pattern" mapstructure:"heading_pattern"`
	InstallMarker  string   `yaml:"install_marker" json:"install_marker" mapstructure:"install_marker"`
	CodeFences     []string `yaml:"code_fences" json:"code_fences" mapstructure:"code_fences"`

	SecurityPatterns []SecurityPattern `yaml:"security_patterns" json:"security_patterns" mapstructure:"security_patterns"`
}

// Default returns the built-in rule tables.
func Default() Tables {
	return Tables{
		NamePattern:          `^[a-z0-9-]+/[a-z0-9-]+$`,
		VersionPattern:       `^v?\d+\.\d+\.\d+`,
		SchemaVersionPattern: `^\d+\.\d+$`,
		PackageTypes:         []string{"fx-module", "cli-command", "utility", "middleware", "service"},
		ModuleType:           "fx-module",

		TemplateSuffix: ".tmpl",
		SourceSuffixes: []string{".go.tmpl"},
		DocMarkers:     []string{"readme"},

		OpenDelim:  "{{",
		CloseDelim: "}}",

		DeclarationPattern: `(?m)^package\s+(\w+|\{\{)`,
		ModuleImports:      []string{"go.uber.org/fx"},
		ModuleExportPatterns: []string{
			`(?m)^\s*var\s+Module\b`,
			`(?m)^\s*func\s+NewModule\b`,
		},
		ExportedFuncPattern: `^func\s+(?:\([^)]*\)\s*)?([A-Z]\w*)`,
		DocCommentPrefix:    "//",

		HeadingPattern: `(?m)^\s{0,3}#{1,6}\s`,
		InstallMarker:  "install",
		CodeFences:     []string{"```", "~~~"},

		SecurityPatterns: []SecurityPattern{
			{
				Name:        "secret.assignment",
				Category:    CategorySecret,
				Description: "hardcoded credential assigned to a literal",
				Pattern:     `(?i)\w*(password|passwd|secret|token|key)\w*["']?\s*(:=|=|:)\s*["'][^"'{}\n]+["']`,
			},
			{
				Name:        "exec.command",
				Category:    CategoryExec,
				Description: "process execution via os/exec",
				Pattern:     `\bexec\.Command(Context)?\s*\(`,
			},
			{
				Name:        "exec.syscall",
				Category:    CategoryExec,
				Description: "process replacement via syscall.Exec",
				Pattern:     `\bsyscall\.(Exec|ForkExec)\s*\(`,
			},
			{
				Name:        "exec.start_process",
				Category:    CategoryExec,
				Description: "process creation via os.StartProcess",
				Pattern:     `\bos\.StartProcess\s*\(`,
			},
			{
				Name:        "unsafe.package",
				Category:    CategoryUnsafe,
				Description: "use of the unsafe package",
				Pattern:     `"unsafe"|\bunsafe\.\w+`,
			},
			{
				Name:        "unsafe.linkname",
				Category:    CategoryUnsafe,
				Description: "go:linkname directive",
				Pattern:     `//go:linkname\b`,
			},
		},
	}
}

// CompiledPattern is a security pattern with its compiled expression.
type CompiledPattern struct {
	SecurityPattern
	Regexp *regexp.Regexp
}

// RuleSet is the compiled, read-only form of Tables.
type RuleSet struct {
	Tables Tables

	Name          *regexp.Regexp
	Version       *regexp.Regexp
	SchemaVersion *regexp.Regexp
	Declaration   *regexp.Regexp
	ExportedFunc  *regexp.Regexp
	Heading       *regexp.Regexp
	ModuleExports []*regexp.Regexp
	Security      []CompiledPattern

	types map[string]bool
}

// Compile validates the tables and compiles every pattern.
func (t Tables) Compile() (*RuleSet, error) {
	if t.TemplateSuffix == "" {
		return nil, fmt.Errorf("template_suffix cannot be empty")
	}
	if t.OpenDelim == "" || t.CloseDelim == "" {
		return nil, fmt.Errorf("substitution delimiters cannot be empty")
	}

	rs := &RuleSet{
		Tables: t,
		types:  make(map[string]bool, len(t.PackageTypes)),
	}

	single := []struct {
		field  string
		source string
		dst    **regexp.Regexp
	}{
		{"name_pattern", t.NamePattern, &rs.Name},
		{"version_pattern", t.VersionPattern, &rs.Version},
		{"schema_version_pattern", t.SchemaVersionPattern, &rs.SchemaVersion},
		{"declaration_pattern", t.DeclarationPattern, &rs.Declaration},
		{"exported_func_pattern", t.ExportedFuncPattern, &rs.ExportedFunc},
		{"heading_pattern", t.HeadingPattern, &rs.Heading},
	}
	for _, s := range single {
		if s.source == "" {
			return nil, fmt.Errorf("%s cannot be empty", s.field)
		}
		re, err := regexp.Compile(s.source)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", s.field, err)
		}
		*s.dst = re
	}

	for i, src := range t.ModuleExportPatterns {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compiling module_export_patterns[%d]: %w", i, err)
		}
		rs.ModuleExports = append(rs.ModuleExports, re)
	}

	for i, p := range t.SecurityPatterns {
		if p.Name == "" {
			return nil, fmt.Errorf("security_patterns[%d] has no name", i)
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling security pattern %s: %w", p.Name, err)
		}
		rs.Security = append(rs.Security, CompiledPattern{SecurityPattern: p, Regexp: re})
	}

	for _, typ := range t.PackageTypes {
		rs.types[typ] = true
	}

	return rs, nil
}

// MustDefault compiles the default tables. It panics only if the built-in
// patterns are broken.
func MustDefault() *RuleSet {
	rs, err := Default().Compile()
	if err != nil {
		panic(err)
	}
	return rs
}

// KnownType reports whether typ is a recognized package type.
func (rs *RuleSet) KnownType(typ string) bool {
	return rs.types[typ]
}

// IsTemplate reports whether a file name carries the template suffix.
func (rs *RuleSet) IsTemplate(name string) bool {
	return strings.HasSuffix(name, rs.Tables.TemplateSuffix)
}

// KindOf classifies a template by its path relative to the templates
// directory. Source suffixes win over documentation markers.
func (rs *RuleSet) KindOf(relPath string) Kind {
	base := filepath.Base(relPath)
	for _, suffix := range rs.Tables.SourceSuffixes {
		if strings.HasSuffix(base, suffix) {
			return KindSource
		}
	}

	lower := strings.ToLower(filepath.ToSlash(relPath))
	for _, marker := range rs.Tables.DocMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return KindDocumentation
		}
	}

	return KindOther
}
