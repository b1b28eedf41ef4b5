package detect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-code/internal/application/detect"
	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

func TestDetectByExtension(t *testing.T) {
	cases := map[string]domain.LanguageTag{
		"a.py":        domain.LangPython,
		"a.js":        domain.LangJavaScript,
		"Main.java":   domain.LangJava,
		"a.c":         domain.LangC,
		"a.cpp":       domain.LangCPP,
		"A.CPP":       domain.LangCPP,
		"main.go":     domain.LangGo,
		"notes.txt":   domain.LangUnknown,
		"a.xyz":       domain.LangUnknown,
		"Makefile":    domain.LangUnknown,
		"dir.py/file": domain.LangUnknown,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			got := detect.Detect(domain.Submission{Filename: name})
			assert.Equal(t, want, got)
		})
	}
}

func TestDetectExtensionBeatsContent(t *testing.T) {
	sub := domain.Submission{
		Filename: "a.xyz",
		Content:  "import os\n\ndef main():\n    print(os.getcwd())\n",
	}
	assert.Equal(t, domain.LangUnknown, detect.Detect(sub))
}

func TestDetectDeclaredLanguage(t *testing.T) {
	sub := domain.Submission{Content: "x", DeclaredLanguage: "golang"}
	assert.Equal(t, domain.LangGo, detect.Detect(sub))

	// filename still wins
	sub.Filename = "a.py"
	assert.Equal(t, domain.LangPython, detect.Detect(sub))
}

func TestDetectByContent(t *testing.T) {
	cases := []struct {
		name string
		code string
		want domain.LanguageTag
	}{
		{"python", "import os\n\ndef main():\n    print('hi')\n", domain.LangPython},
		{"javascript", "const fs = require('fs');\nfunction run() {\n  console.log(fs);\n}\n", domain.LangJavaScript},
		{"java", "public class Main {\n  public static void main(String[] args) {\n    System.out.println(\"hi\");\n  }\n}\n", domain.LangJava},
		{"c", "#include <stdio.h>\nint main() {\n  printf(\"hi\");\n  return 0;\n}\n", domain.LangC},
		{"cpp", "#include <iostream>\nint main() {\n  std::cout << \"hi\";\n}\n", domain.LangCPP},
		{"go", "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n", domain.LangGo},
		{"prose", "hello world, this is plain prose.", domain.LangUnknown},
		{"weak", "The answer is True.", domain.LangUnknown},
		{"empty", "", domain.LangUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, detect.Detect(domain.Submission{Content: tc.code}))
		})
	}
}

func TestFromContentAmbiguous(t *testing.T) {
	tag, err := detect.FromContent("lorem ipsum dolor sit amet")
	require.ErrorIs(t, err, domain.ErrDetectionAmbiguous)
	assert.Equal(t, domain.LangUnknown, tag)
}

func TestDetectDeterministic(t *testing.T) {
	inputs := []string{"", "???", "int main() {}", "x := 1", "def f(): pass"}
	for _, in := range inputs {
		first := detect.Detect(domain.Submission{Content: in})
		for i := 0; i < 20; i++ {
			require.Equal(t, first, detect.Detect(domain.Submission{Content: in}))
		}
	}
}

func TestDetectTieUsesRanking(t *testing.T) {
	// "int main(" scores 1 for both c and c++, "malloc(" lifts c to 3.
	assert.Equal(t, domain.LangC, detect.Detect(domain.Submission{Content: "int main() { char *p = malloc(4); }"}))
	// python and go both score 2 here; python ranks first.
	scores := detect.Scores("x := 1\nimport os\n")
	require.Equal(t, scores[domain.LangPython], scores[domain.LangGo])
	assert.Equal(t, domain.LangPython, detect.Detect(domain.Submission{Content: "x := 1\nimport os\n"}))
}
