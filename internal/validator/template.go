package validator

import (
	"bytes"
	"context"
	"strings"
	"text/template/parse"

	"github.com/alfariiizi/vpkg-template/internal/catalog"
	"github.com/alfariiizi/vpkg-template/internal/diagnostics"
	"github.com/alfariiizi/vpkg-template/internal/rules"
	"github.com/alfariiizi/vpkg-template/internal/scanner"
)

// Rule identifiers for template findings. Security findings use the
// pattern name prefixed with "security.".
const (
	RuleTemplateRead       = "template.read"
	RuleTemplateVariables  = "template.variables"
	RuleTemplateSyntax     = "template.syntax"
	RuleSourceDeclaration  = "source.declaration"
	RuleSourceModuleImport = "source.module.import"
	RuleSourceModuleExport = "source.module.export"
	RuleSourceDocComment   = "source.doc_comment"
	RuleDocHeading         = "doc.heading"
	RuleDocInstall         = "doc.install"
	RuleDocCodeFence       = "doc.code_fence"
	RuleSecurityPrefix     = "security."
)

// checkTemplate reads one template and runs every content rule on it. The
// content is dropped when the function returns.
func (v *Validator) checkTemplate(ctx context.Context, scope *diagnostics.Scope, f *scanner.TemplateFile) {
	content, err := f.ReadContent(v.opts.MaxFileSize)
	if err != nil {
		scope.Errorf(RuleTemplateRead, "cannot read template: %v", err)
		return
	}

	v.logger.Debug(ctx, "Checking template",
		"package", f.Package.Index,
		"file", f.RelPath,
		"kind", f.Kind.String(),
		"bytes", len(content))

	v.CheckContent(scope, f.Package, f.RelPath, f.Kind, content)
}

// CheckContent evaluates the variable, structure and security rules against
// content. Every rule runs regardless of what the others found.
func (v *Validator) CheckContent(scope *diagnostics.Scope, pkg *catalog.PackageSpec, name string, kind rules.Kind, content []byte) {
	text := string(content)

	v.checkVariables(scope, name, text)

	switch kind {
	case rules.KindSource:
		v.checkSource(scope, pkg, text)
	case rules.KindDocumentation:
		v.checkDocumentation(scope, text)
	}

	v.checkSecurity(scope, content)
}

func (v *Validator) checkVariables(scope *diagnostics.Scope, name, text string) {
	t := v.rules.Tables
	if !strings.Contains(text, t.OpenDelim) || !strings.Contains(text, t.CloseDelim) {
		scope.Warnf(RuleTemplateVariables, "no %s %s substitution markers, possibly a static file", t.OpenDelim, t.CloseDelim)
		return
	}

	tree := parse.New(name)
	tree.Mode = parse.SkipFuncCheck
	if _, err := tree.Parse(text, t.OpenDelim, t.CloseDelim, map[string]*parse.Tree{}); err != nil {
		scope.Warnf(RuleTemplateSyntax, "template does not parse: %v", err)
	}
}

func (v *Validator) checkSource(scope *diagnostics.Scope, pkg *catalog.PackageSpec, text string) {
	if !v.rules.Declaration.MatchString(text) {
		scope.Errorf(RuleSourceDeclaration, "missing package declaration")
	}

	if pkg != nil && pkg.Type == v.rules.Tables.ModuleType {
		if len(v.rules.Tables.ModuleImports) > 0 && !containsAny(text, v.rules.Tables.ModuleImports) {
			scope.Warnf(RuleSourceModuleImport, "%s package does not import %s", pkg.Type, strings.Join(v.rules.Tables.ModuleImports, " or "))
		}

		exported := false
		for _, re := range v.rules.ModuleExports {
			if re.MatchString(text) {
				exported = true
				break
			}
		}
		if !exported {
			scope.Warnf(RuleSourceModuleExport, "%s package does not export Module or NewModule", pkg.Type)
		}
	}

	prefix := v.rules.Tables.DocCommentPrefix
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := v.rules.ExportedFunc.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if i > 0 && strings.HasPrefix(strings.TrimSpace(lines[i-1]), prefix) {
			continue
		}
		scope.Warnf(RuleSourceDocComment, "exported function %s on line %d has no doc comment", m[1], i+1)
	}
}

func (v *Validator) checkDocumentation(scope *diagnostics.Scope, text string) {
	t := v.rules.Tables

	if !v.rules.Heading.MatchString(text) {
		scope.Warnf(RuleDocHeading, "documentation has no markdown heading")
	}
	if !strings.Contains(strings.ToLower(text), strings.ToLower(t.InstallMarker)) {
		scope.Warnf(RuleDocInstall, "documentation does not mention %q", t.InstallMarker)
	}
	if !containsAny(text, t.CodeFences) {
		scope.Warnf(RuleDocCodeFence, "documentation has no fenced code block")
	}
}

func (v *Validator) checkSecurity(scope *diagnostics.Scope, content []byte) {
	for _, p := range v.rules.Security {
		loc := p.Regexp.FindIndex(content)
		if loc == nil {
			continue
		}
		line := bytes.Count(content[:loc[0]], []byte("\n")) + 1
		scope.Errorf(RuleSecurityPrefix+p.Name, "%s on line %d", p.Description, line)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
