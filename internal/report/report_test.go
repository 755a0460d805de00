package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"

	"github.com/alfariiizi/vpkg-template/internal/diagnostics"
)

func sampleReport() *diagnostics.Report {
	c := diagnostics.NewCollector()
	c.Scope(0, 0, "packages.json").Warnf("catalog.schema_version", "schemaVersion is missing")
	pkg := c.Scope(1, 0, "")
	pkg.Errorf("package.required", `package 1: missing required field "version"`)
	pkg.File(1, "tpl/cache.go.tmpl").Warnf("source.module.export", "fx-module package does not export Module or NewModule")
	pkg.Infof("package.summary", "package 1 (acme/cache): 1 template(s) checked")
	return c.Report()
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseFormat(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleReport(), Options{Source: "packages.json"}))

	want := `Validation report for packages.json

Errors (1)
  - [package 1] package 1: missing required field "version"

Warnings (2)
  - [catalog] schemaVersion is missing (packages.json)
  - [package 1] fx-module package does not export Module or NewModule (tpl/cache.go.tmpl)

Info (1)
  - [package 1] package 1 (acme/cache): 1 template(s) checked

Summary: 1 error(s), 2 warning(s), 1 info
Result: FAIL
`
	assert.Equal(t, want, buf.String())
}

func TestTextPassOmitsEmptySections(t *testing.T) {
	c := diagnostics.NewCollector()
	c.Scope(1, 0, "").Infof("package.summary", "package 1 (acme/a): 1 template(s) checked")

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, c.Report(), Options{}))

	out := buf.String()
	assert.NotContains(t, out, "Errors")
	assert.NotContains(t, out, "Warnings")
	assert.Contains(t, out, "Validation report for catalog")
	assert.True(t, strings.HasSuffix(out, "Result: PASS\n"))
}

func TestTextColor(t *testing.T) {
	var plain, colored bytes.Buffer
	report := sampleReport()

	require.NoError(t, Text(&plain, report, Options{}))
	require.NoError(t, Text(&colored, report, Options{Color: true}))

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
}

func TestTextIsStable(t *testing.T) {
	report := sampleReport()
	var a, b bytes.Buffer
	require.NoError(t, Text(&a, report, Options{}))
	require.NoError(t, Text(&b, report, Options{}))
	assert.Equal(t, a.String(), b.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), Options{Format: FormatJSON}))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, false, got["valid"])
	assert.Equal(t, float64(1), got["errors"])
	assert.Equal(t, float64(2), got["warnings"])
	assert.Equal(t, float64(1), got["info"])

	findings, ok := got["findings"].([]interface{})
	require.True(t, ok)
	require.Len(t, findings, 4)

	first := findings[0].(map[string]interface{})
	assert.Equal(t, "error", first["severity"])
	assert.Equal(t, "package.required", first["rule"])
	assert.Equal(t, float64(1), first["package"])
	_, hasPath := first["path"]
	assert.False(t, hasPath)
}

func TestJSONEmptyFindings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, diagnostics.NewCollector().Report()))
	assert.Contains(t, buf.String(), `"findings": []`)
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), Options{Format: FormatYAML}))

	var got Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.Valid)
	assert.Equal(t, 2, got.Warnings)
	require.Len(t, got.Findings, 4)
	assert.Equal(t, "tpl/cache.go.tmpl", got.Findings[2].Path)
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, sampleReport(), Options{Format: "xml"}))
}
