package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCompiles(t *testing.T) {
	rs, err := Default().Compile()
	require.NoError(t, err)
	assert.Len(t, rs.Security, len(Default().SecurityPatterns))
	assert.Len(t, rs.ModuleExports, 2)
}

func TestCompileRejectsBadTables(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Tables)
	}{
		{"empty suffix", func(t *Tables) { t.TemplateSuffix = "" }},
		{"empty delimiter", func(t *Tables) { t.CloseDelim = "" }},
		{"bad name pattern", func(t *Tables) { t.NamePattern = "[a-z" }},
		{"empty version pattern", func(t *Tables) { t.VersionPattern = "" }},
		{"bad export pattern", func(t *Tables) { t.ModuleExportPatterns = []string{"(unclosed"} }},
		{"unnamed security pattern", func(t *Tables) {
			t.SecurityPatterns = append(t.SecurityPatterns, SecurityPattern{Pattern: "x"})
		}},
		{"bad security pattern", func(t *Tables) {
			t.SecurityPatterns = []SecurityPattern{{Name: "broken", Pattern: "*x"}}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tables := Default()
			tc.mutate(&tables)
			_, err := tables.Compile()
			assert.Error(t, err)
		})
	}
}

func TestNamePattern(t *testing.T) {
	rs := MustDefault()

	testCases := []struct {
		name  string
		valid bool
	}{
		{"acme/cache", true},
		{"my-org/http-server2", true},
		{"acme", false},
		{"Acme/cache", false},
		{"acme/cache/extra", false},
		{"acme/ca_che", false},
		{"acme/", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, rs.Name.MatchString(tc.name))
		})
	}
}

func TestVersionPattern(t *testing.T) {
	rs := MustDefault()

	assert.True(t, rs.Version.MatchString("1.2.3"))
	assert.True(t, rs.Version.MatchString("v0.1.0"))
	assert.True(t, rs.Version.MatchString("1.2.3-beta.1"))
	assert.False(t, rs.Version.MatchString("1.2"))
	assert.False(t, rs.Version.MatchString("latest"))
}

func TestKnownType(t *testing.T) {
	rs := MustDefault()

	for _, typ := range []string{"fx-module", "cli-command", "utility", "middleware", "service"} {
		assert.True(t, rs.KnownType(typ), typ)
	}
	assert.False(t, rs.KnownType("plugin"))
	assert.False(t, rs.KnownType(""))
}

func TestKindOf(t *testing.T) {
	rs := MustDefault()

	testCases := []struct {
		path string
		want Kind
	}{
		{"cache.go.tmpl", KindSource},
		{"internal/cache/cache.go.tmpl", KindSource},
		{"README.md.tmpl", KindDocumentation},
		{"docs/readme.tmpl", KindDocumentation},
		{"readme/notes.txt.tmpl", KindDocumentation},
		{"config.yaml.tmpl", KindOther},
		{"Makefile.tmpl", KindOther},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, rs.KindOf(tc.path))
			assert.NotEmpty(t, tc.want.String())
		})
	}
}

func TestIsTemplate(t *testing.T) {
	rs := MustDefault()
	assert.True(t, rs.IsTemplate("cache.go.tmpl"))
	assert.False(t, rs.IsTemplate("cache.go"))
	assert.False(t, rs.IsTemplate("tmpl"))
}

func TestSecurityPatterns(t *testing.T) {
	rs := MustDefault()

	byName := make(map[string]CompiledPattern)
	for _, p := range rs.Security {
		byName[p.Name] = p
	}

	testCases := []struct {
		pattern string
		content string
		match   bool
	}{
		{"secret.assignment", `password = "hunter2"`, true},
		{"secret.assignment", `PASSWORD := "hunter2"`, true},
		{"secret.assignment", `apiToken: "abc123"`, true},
		{"secret.assignment", `dbPassword := "{{ .DBPassword }}"`, false},
		{"secret.assignment", `token := os.Getenv("TOKEN")`, false},
		{"exec.command", `cmd := exec.Command("rm", "-rf", "/")`, true},
		{"exec.command", `exec.CommandContext(ctx, "sh")`, true},
		{"exec.command", `// executes the command later`, false},
		{"exec.syscall", `syscall.Exec(path, args, env)`, true},
		{"exec.start_process", `os.StartProcess(name, argv, attr)`, true},
		{"unsafe.package", `import "unsafe"`, true},
		{"unsafe.package", `p := unsafe.Pointer(&x)`, true},
		{"unsafe.package", `// this is not unsafe at all`, false},
		{"unsafe.linkname", `//go:linkname nanotime runtime.nanotime`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.pattern+"/"+tc.content, func(t *testing.T) {
			p, ok := byName[tc.pattern]
			require.True(t, ok)
			assert.Equal(t, tc.match, p.Regexp.MatchString(tc.content))
		})
	}
}

func TestDeclarationPattern(t *testing.T) {
	rs := MustDefault()

	assert.True(t, rs.Declaration.MatchString("package cache\n"))
	assert.True(t, rs.Declaration.MatchString("// header\npackage {{ .PackageName }}\n"))
	assert.False(t, rs.Declaration.MatchString("// package cache is documented\n"))
	assert.False(t, rs.Declaration.MatchString("func main() {}\n"))
}
