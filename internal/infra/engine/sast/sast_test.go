package sast

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine"
)

func adapterFor(t *testing.T, lang domain.LanguageTag) *Adapter {
	t.Helper()
	all, err := Adapters()
	require.NoError(t, err)
	for _, a := range all {
		if a.Descriptor().Language == lang {
			return a
		}
	}
	t.Fatalf("no sast adapter for %s", lang)
	return nil
}

func scan(t *testing.T, lang domain.LanguageTag, code string) []engine.SecurityResult {
	t.Helper()
	raw, err := adapterFor(t, lang).Run(context.Background(), code)
	require.NoError(t, err)
	require.Equal(t, domain.FormatSecurityJSON, raw.Format)

	var report struct {
		Results []engine.SecurityResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw.Data, &report))
	return report.Results
}

func ids(results []engine.SecurityResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.TestID)
	}
	return out
}

func TestBuiltinRulesCompile(t *testing.T) {
	raws, err := BuiltinRules()
	require.NoError(t, err)
	require.NotEmpty(t, raws)
	for _, raw := range raws {
		_, err := Compile(raw)
		assert.NoError(t, err, raw.ID)
	}
}

func TestAdaptersCoverEveryLanguage(t *testing.T) {
	all, err := Adapters()
	require.NoError(t, err)

	names := map[string]domain.ToolKind{}
	for _, a := range all {
		d := a.Descriptor()
		names[d.Name] = d.Kind
	}
	for _, n := range []string{"sast-python", "sast-javascript", "sast-java", "sast-c", "sast-cpp", "sast-go"} {
		assert.Equal(t, domain.KindSecurity, names[n], n)
	}
}

func TestPythonPickle(t *testing.T) {
	code := "import pickle\npickle.loads(user_input)"
	results := scan(t, domain.LangPython, code)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "B301", r.TestID)
	assert.Equal(t, domain.TypeUnsafeDeserialization, r.Category)
	assert.Equal(t, 2, r.LineNumber)
	assert.Equal(t, 0, r.ColOffset)
	assert.Equal(t, len("pickle.loads(user_input)"), r.EndColOffset)
	assert.Equal(t, []int{2}, r.LineRange)
}

func TestPythonRules(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []string
	}{
		{"os system", "import os\nos.system(cmd)\n", []string{"B605"}},
		{"shell true", "import subprocess\nsubprocess.call(cmd, shell=True)\n", []string{"B602"}},
		{"shell false", "import subprocess\nsubprocess.call(['ls', path])\n", []string{}},
		{"eval", "x = eval(data)\n", []string{"B307"}},
		{"eval in comment", "# eval(data)\nx = 1\n", []string{}},
		{"eval in string", "msg = \"eval(data)\"\n", []string{}},
		{"yaml load", "import yaml\nyaml.load(body)\n", []string{"B506"}},
		{"yaml safe loader", "import yaml\nyaml.load(body, Loader=yaml.SafeLoader)\n", []string{}},
		{"md5", "import hashlib\nhashlib.md5(pw).hexdigest()\n", []string{"B303"}},
		{"sql format", "cur.execute(\"SELECT * FROM t WHERE id = %s\" % uid)\n", []string{"B608"}},
		{"sql params", "cur.execute(\"SELECT * FROM t WHERE id = %s\", (uid,))\n", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(scan(t, domain.LangPython, tt.code)))
		})
	}
}

func TestJavaScriptRules(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []string
	}{
		{"eval", "const v = eval(input);\n", []string{"JS001"}},
		{"new function", "const f = new Function(body);\n", []string{"JS001"}},
		{"inner html", "el.innerHTML = userInput;\n", []string{"JS004"}},
		{"text content", "el.textContent = userInput;\n", []string{}},
		{"math random", "const token = Math.random();\n", []string{"JS006"}},
		{"regex exec", "const m = re.exec(line);\n", []string{}},
		{"md5", "crypto.createHash('md5').update(pw);\n", []string{"JS007"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(scan(t, domain.LangJavaScript, tt.code)))
		})
	}
}

func TestJavaRules(t *testing.T) {
	code := `class A {
    void run(String cmd) throws Exception {
        Runtime.getRuntime().exec(cmd);
        MessageDigest md = MessageDigest.getInstance("MD5");
        MessageDigest ok = MessageDigest.getInstance("SHA-256");
    }
}
`
	results := scan(t, domain.LangJava, code)
	require.Equal(t, []string{"JAVA002", "JAVA003"}, ids(results))
	assert.Equal(t, 3, results[0].LineNumber)
	assert.Equal(t, 8, results[0].ColOffset)
}

func TestCRules(t *testing.T) {
	code := "#include <stdio.h>\nint main() {\n  char buf[8];\n  gets(buf);\n  strncpy(buf, src, 7);\n  strcpy(buf, src);\n}\n"
	results := scan(t, domain.LangC, code)
	require.Equal(t, []string{"C001", "C001"}, ids(results))
	assert.Equal(t, 4, results[0].LineNumber)
	assert.Equal(t, 6, results[1].LineNumber)
}

func TestCPPQualifiedCall(t *testing.T) {
	code := "int main() {\n  std::strcpy(dst, src);\n}\n"
	assert.Equal(t, []string{"CPP001"}, ids(scan(t, domain.LangCPP, code)))
}

func TestGoRules(t *testing.T) {
	code := `package main

import (
	"crypto/md5"
	"os/exec"
)

func main() {
	exec.Command("sh", "-c", os.Args[1]).Run()
	_ = md5.New()
}
`
	results := scan(t, domain.LangGo, code)
	require.Equal(t, []string{"G204", "G401"}, ids(results))
	assert.Equal(t, 10, results[1].LineNumber)
}

func TestCustomRule(t *testing.T) {
	all, err := Adapters(RawRule{
		ID:       "X1",
		Language: "python",
		Category: domain.TypeSecurityIssue,
		Calls:    []string{"danger"},
		Exact:    true,
	})
	require.NoError(t, err)

	var py *Adapter
	for _, a := range all {
		if a.Descriptor().Language == domain.LangPython {
			py = a
		}
	}
	require.NotNil(t, py)

	raw, err := py.Run(context.Background(), "danger(1)\n")
	require.NoError(t, err)
	assert.Contains(t, string(raw.Data), `"test_id":"X1"`)
}

func TestCompileRejectsBadRules(t *testing.T) {
	_, err := Compile(RawRule{ID: "a", Language: "cobol", Category: domain.TypeSecurityIssue, Calls: []string{"x"}})
	assert.Error(t, err)
	_, err = Compile(RawRule{ID: "a", Language: "python", Category: "made up", Calls: []string{"x"}})
	assert.Error(t, err)
	_, err = Compile(RawRule{ID: "a", Language: "python", Category: domain.TypeSecurityIssue})
	assert.Error(t, err)
	_, err = Compile(RawRule{ID: "a", Language: "python", Category: domain.TypeSecurityIssue, Calls: []string{"x"}, ArgsMatch: "("})
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := adapterFor(t, domain.LangPython).Run(ctx, "x = 1\n")
	assert.Error(t, err)
}
