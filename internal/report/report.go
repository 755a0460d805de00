// Package report renders a diagnostics.Report as text, JSON or YAML.
//
// The text form is for people: one section per severity, errors first. The
// JSON and YAML forms share one shape and are meant for CI. With color off
// every renderer is a pure function of the report, so unchanged inputs give
// byte-identical output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v2"

	"github.com/alfariiizi/vpkg-template/internal/diagnostics"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat converts a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (text, json, yaml)", s)
	}
}

// Options controls rendering.
type Options struct {
	Format Format
	// Color enables ANSI colors in the text format.
	Color bool
	// Source names the catalog in the text header.
	Source string
}

// Render writes r in the requested format.
func Render(w io.Writer, r *diagnostics.Report, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		return Text(w, r, opts)
	case FormatJSON:
		return JSON(w, r)
	case FormatYAML:
		return YAML(w, r)
	default:
		return fmt.Errorf("unsupported format %q", opts.Format)
	}
}

// Entry is one finding in the machine-readable forms.
type Entry struct {
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Package  int    `json:"package" yaml:"package"`
	Rule     string `json:"rule" yaml:"rule"`
}

// Summary is the machine-readable form of a report.
type Summary struct {
	Valid    bool    `json:"valid" yaml:"valid"`
	Errors   int     `json:"errors" yaml:"errors"`
	Warnings int     `json:"warnings" yaml:"warnings"`
	Info     int     `json:"info" yaml:"info"`
	Findings []Entry `json:"findings" yaml:"findings"`
}

// NewSummary converts a report.
func NewSummary(r *diagnostics.Report) Summary {
	s := Summary{
		Valid:    r.Valid,
		Errors:   r.Errors,
		Warnings: r.Warnings,
		Info:     r.Infos,
		Findings: make([]Entry, 0, len(r.Findings)),
	}
	for _, f := range r.Findings {
		s.Findings = append(s.Findings, Entry{
			Severity: f.Severity.String(),
			Message:  f.Message,
			Path:     f.Path,
			Package:  f.Package,
			Rule:     f.Rule,
		})
	}
	return s
}

// JSON writes the summary as indented JSON.
func JSON(w io.Writer, r *diagnostics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewSummary(r)); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

// YAML writes the summary as YAML.
func YAML(w io.Writer, r *diagnostics.Report) error {
	data, err := yaml.Marshal(NewSummary(r))
	if err != nil {
		return fmt.Errorf("encoding YAML report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

var sections = []struct {
	severity diagnostics.Severity
	title    string
	attrs    []color.Attribute
}{
	{diagnostics.SeverityError, "errors", []color.Attribute{color.FgRed, color.Bold}},
	{diagnostics.SeverityWarning, "warnings", []color.Attribute{color.FgYellow, color.Bold}},
	{diagnostics.SeverityInfo, "info", []color.Attribute{color.FgCyan}},
}

// Text writes the human-readable report.
func Text(w io.Writer, r *diagnostics.Report, opts Options) error {
	title := cases.Title(language.English)
	paint := func(s string, attrs ...color.Attribute) string {
		c := color.New(attrs...)
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprint(s)
	}

	var b strings.Builder
	source := opts.Source
	if source == "" {
		source = "catalog"
	}
	fmt.Fprintf(&b, "Validation report for %s\n", source)

	for _, sec := range sections {
		var group []diagnostics.Finding
		for _, f := range r.Findings {
			if f.Severity == sec.severity {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n%s\n", paint(fmt.Sprintf("%s (%d)", title.String(sec.title), len(group)), sec.attrs...))
		for _, f := range group {
			b.WriteString("  - ")
			b.WriteString(label(f))
			b.WriteString(" ")
			b.WriteString(f.Message)
			if f.Path != "" {
				b.WriteString(" (" + f.Path + ")")
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nSummary: %d error(s), %d warning(s), %d info\n", r.Errors, r.Warnings, r.Infos)
	if r.Valid {
		fmt.Fprintf(&b, "Result: %s\n", paint("PASS", color.FgGreen, color.Bold))
	} else {
		fmt.Fprintf(&b, "Result: %s\n", paint("FAIL", color.FgRed, color.Bold))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func label(f diagnostics.Finding) string {
	if f.Package == 0 {
		return "[catalog]"
	}
	return fmt.Sprintf("[package %d]", f.Package)
}
