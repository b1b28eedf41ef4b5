package lint

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

func lint(t *testing.T, lang domain.LanguageTag, opts Options, code string) []string {
	t.Helper()
	l, err := New(lang, opts)
	require.NoError(t, err)
	raw, err := l.Run(context.Background(), code)
	require.NoError(t, err)
	require.Equal(t, domain.FormatLintText, raw.Format)

	out := strings.TrimSpace(string(raw.Data))
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestPython(t *testing.T) {
	code := "import os\nimport sys\n\ndef getData():\n    unused = 1\n    return sys.argv\n"
	assert.Equal(t, []string{
		"1:0:1:9: W0611 unused-import: Unused import os",
		`4:4:4:11: C0103 invalid-name: Function name "getData" doesn't conform to snake_case naming style`,
		"5:4:5:10: W0612 unused-variable: Unused variable 'unused'",
	}, lint(t, domain.LangPython, Options{}, code))
}

func TestPythonFromImport(t *testing.T) {
	code := "from os import path, sep\nfrom __future__ import annotations\n\nprint(sep)\n"
	assert.Equal(t, []string{
		"1:15:1:19: W0611 unused-import: Unused path imported from os",
	}, lint(t, domain.LangPython, Options{}, code))
}

func TestPythonAliasedImport(t *testing.T) {
	code := "import numpy as np\nimport pandas as pd\n\npd.DataFrame()\n"
	assert.Equal(t, []string{
		"1:0:1:18: W0611 unused-import: Unused import numpy as np",
	}, lint(t, domain.LangPython, Options{}, code))
}

func TestPythonClean(t *testing.T) {
	code := "import os\n\n\nclass Loader:\n    def read_file(self, name):\n        path = os.path.join('/tmp', name)\n        return path\n"
	assert.Empty(t, lint(t, domain.LangPython, Options{}, code))
}

func TestPythonModuleLevelAssignmentIgnored(t *testing.T) {
	assert.Empty(t, lint(t, domain.LangPython, Options{}, "CONFIG = 1\n"))
}

func TestComplexity(t *testing.T) {
	code := `def f(a, b):
    if a and b:
        return 1
    elif a:
        return 2
    for i in range(3):
        pass
    return 0
`
	assert.Equal(t, []string{
		"1:0:None:None: R1260 too-complex: 'f' is too complex. The McCabe rating is 5",
	}, lint(t, domain.LangPython, Options{MaxComplexity: 3}, code))
	assert.Empty(t, lint(t, domain.LangPython, Options{}, code))
}

func TestNestedFunctionRatedSeparately(t *testing.T) {
	code := "def outer():\n    def inner(x):\n        if x:\n            return 1\n    return inner\n"
	assert.Equal(t, []string{
		"2:4:None:None: R1260 too-complex: 'inner' is too complex. The McCabe rating is 2",
	}, lint(t, domain.LangPython, Options{MaxComplexity: 1}, code))
}

func TestCComplexity(t *testing.T) {
	code := "int f(int a) { if (a && a > 1) return 1; return 0; }\n"
	assert.Equal(t, []string{
		"1:0:None:None: R1260 too-complex: 'f' is too complex. The McCabe rating is 3",
	}, lint(t, domain.LangC, Options{MaxComplexity: 1}, code))
}

func TestJavaScript(t *testing.T) {
	code := "function load_data() {\n  const temp = 1;\n  const used = 2;\n  return used;\n}\n"
	assert.Equal(t, []string{
		`1:9:1:18: C0103 invalid-name: Function name "load_data" doesn't conform to camelCase naming style`,
		"2:8:2:12: W0612 unused-variable: Unused variable 'temp'",
	}, lint(t, domain.LangJavaScript, Options{}, code))
}

func TestJava(t *testing.T) {
	code := "class my_class {\n    void Run() {\n        int count = 0;\n    }\n}\n"
	assert.Equal(t, []string{
		`1:6:1:14: C0103 invalid-name: Class name "my_class" doesn't conform to PascalCase naming style`,
		`2:9:2:12: C0103 invalid-name: Method name "Run" doesn't conform to camelCase naming style`,
		"3:12:3:17: W0612 unused-variable: Unused variable 'count'",
	}, lint(t, domain.LangJava, Options{}, code))
}

func TestGo(t *testing.T) {
	code := "package main\n\nimport (\n\t\"fmt\"\n\t\"os\"\n\t\"gopkg.in/yaml.v3\"\n)\n\nfunc do_work() {\n\tfmt.Println(os.Args)\n}\n\nfunc TestSomething_x() {}\n"
	assert.Equal(t, []string{
		"6:1:6:19: W0611 unused-import: Unused import gopkg.in/yaml.v3",
		`9:5:9:12: C0103 invalid-name: Function name "do_work" doesn't conform to MixedCaps naming style`,
	}, lint(t, domain.LangGo, Options{}, code))
}

func TestGoPackageName(t *testing.T) {
	assert.Equal(t, "fmt", goPackageName("fmt"))
	assert.Equal(t, "chi", goPackageName("github.com/go-chi/chi/v5"))
	assert.Equal(t, "yaml", goPackageName("gopkg.in/yaml.v3"))
	assert.Equal(t, "", goPackageName("github.com/sashabaranov/go-openai"))
}

func TestLineTooLong(t *testing.T) {
	code := "x = 1\ny = 'aaaaaaaaaaaaaaaaaa'\n"
	assert.Equal(t, []string{
		"2:0:None:None: C0301 line-too-long: Line too long (24/20)",
	}, lint(t, domain.LangPython, Options{MaxLineLength: 20}, code))
}

func TestLinters(t *testing.T) {
	names := map[string]bool{}
	for _, l := range Linters(Options{}) {
		d := l.Descriptor()
		assert.Equal(t, domain.KindStyle, d.Kind)
		names[d.Name] = true
	}
	for _, n := range []string{"lint-python", "lint-javascript", "lint-java", "lint-c", "lint-cpp", "lint-go"} {
		assert.True(t, names[n], n)
	}

	_, err := New(domain.LangUnknown, Options{})
	assert.Error(t, err)
}
