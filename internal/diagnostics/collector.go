// Package diagnostics collects the findings produced by a validation run.
//
// A Collector is the single piece of mutable state shared between package
// workers. Findings are appended under a mutex and sorted only when a Report
// is built, so the order in which workers finish never shows up in output.
package diagnostics

import (
	"fmt"
	"sort"
	"sync"
)

// Severity represents the severity of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Finding is one diagnostic. Package is the 1-based package index (0 for
// catalog-level findings), File the 1-based ordinal of the template within
// its package (0 for package-level findings) and Seq the emission order
// within that scope.
type Finding struct {
	Severity Severity
	Rule     string
	Message  string
	Path     string
	Package  int
	File     int
	Seq      int
}

// String formats the finding on a single line.
func (f Finding) String() string {
	s := fmt.Sprintf("%s: %s", f.Severity, f.Message)
	if f.Path != "" {
		s += " (" + f.Path + ")"
	}
	return s
}

// Report is the aggregate of a finished run.
type Report struct {
	Findings []Finding
	Errors   int
	Warnings int
	Infos    int
	Valid    bool
}

// ByPackage returns the findings that belong to the given package index.
func (r *Report) ByPackage(index int) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Package == index {
			out = append(out, f)
		}
	}
	return out
}

// Collector accumulates findings from concurrent validations.
type Collector struct {
	findings []Finding
	counts   [3]int
	mutex    sync.RWMutex
}

// NewCollector creates a new collector.
func NewCollector() *Collector {
	return &Collector{
		findings: make([]Finding, 0),
	}
}

// Add appends a finding.
func (c *Collector) Add(f Finding) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.findings = append(c.findings, f)
	if f.Severity >= SeverityInfo && f.Severity <= SeverityError {
		c.counts[f.Severity]++
	}
}

// Len returns the number of findings collected so far.
func (c *Collector) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.findings)
}

// Count returns the number of findings with the given severity.
func (c *Collector) Count(sev Severity) int {
	if sev < SeverityInfo || sev > SeverityError {
		return 0
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.counts[sev]
}

// HasErrors returns true if any error finding was collected.
func (c *Collector) HasErrors() bool {
	return c.Count(SeverityError) > 0
}

// Verdict returns true iff no error finding was collected. Warnings and
// info findings never affect it.
func (c *Collector) Verdict() bool {
	return !c.HasErrors()
}

// Findings returns a sorted copy of the collected findings.
func (c *Collector) Findings() []Finding {
	c.mutex.RLock()
	result := make([]Finding, len(c.findings))
	copy(result, c.findings)
	c.mutex.RUnlock()

	Sort(result)
	return result
}

// Report builds the final report.
func (c *Collector) Report() *Report {
	findings := c.Findings()

	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return &Report{
		Findings: findings,
		Errors:   c.counts[SeverityError],
		Warnings: c.counts[SeverityWarning],
		Infos:    c.counts[SeverityInfo],
		Valid:    c.counts[SeverityError] == 0,
	}
}

// Sort orders findings by severity (errors first), then package index,
// file ordinal, emission sequence and message.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.Message < b.Message
	})
}

// Scope binds findings to a package and file so callers don't repeat the
// ordering key. A Scope is owned by one goroutine; the Collector behind it
// is shared.
type Scope struct {
	collector *Collector
	pkg       int
	file      int
	path      string
	seq       int
}

// Scope returns a scope for the given package index and file ordinal.
func (c *Collector) Scope(pkg, file int, path string) *Scope {
	return &Scope{collector: c, pkg: pkg, file: file, path: path}
}

// File returns a scope for a template of the same package. The sequence
// restarts because the file ordinal already separates the findings.
func (s *Scope) File(file int, path string) *Scope {
	return s.collector.Scope(s.pkg, file, path)
}

// Package returns the package index of the scope.
func (s *Scope) Package() int {
	return s.pkg
}

func (s *Scope) add(sev Severity, rule, path, msg string) {
	s.seq++
	s.collector.Add(Finding{
		Severity: sev,
		Rule:     rule,
		Message:  msg,
		Path:     path,
		Package:  s.pkg,
		File:     s.file,
		Seq:      s.seq,
	})
}

// Errorf records an error finding.
func (s *Scope) Errorf(rule, format string, args ...interface{}) {
	s.add(SeverityError, rule, s.path, fmt.Sprintf(format, args...))
}

// Warnf records a warning finding.
func (s *Scope) Warnf(rule, format string, args ...interface{}) {
	s.add(SeverityWarning, rule, s.path, fmt.Sprintf(format, args...))
}

// Infof records an info finding.
func (s *Scope) Infof(rule, format string, args ...interface{}) {
	s.add(SeverityInfo, rule, s.path, fmt.Sprintf(format, args...))
}

// WarnPathf records a warning finding for a path other than the scope's.
func (s *Scope) WarnPathf(rule, path, format string, args ...interface{}) {
	s.add(SeverityWarning, rule, path, fmt.Sprintf(format, args...))
}
