// Package detect classifies a submission into one of the supported languages.
package detect

import (
	"path/filepath"
	"regexp"
	"strings"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// extensions maps lowercase file extensions to languages.
var extensions = map[string]domain.LanguageTag{
	".py":   domain.LangPython,
	".js":   domain.LangJavaScript,
	".mjs":  domain.LangJavaScript,
	".cjs":  domain.LangJavaScript,
	".java": domain.LangJava,
	".c":    domain.LangC,
	".h":    domain.LangC,
	".cpp":  domain.LangCPP,
	".cc":   domain.LangCPP,
	".cxx":  domain.LangCPP,
	".hpp":  domain.LangCPP,
	".hh":   domain.LangCPP,
	".go":   domain.LangGo,
}

// ranking breaks score ties. Earlier wins.
var ranking = []domain.LanguageTag{
	domain.LangPython,
	domain.LangJava,
	domain.LangJavaScript,
	domain.LangGo,
	domain.LangCPP,
	domain.LangC,
}

// MinScore is the lowest heuristic score accepted as a confident match.
const MinScore = 2

type marker struct {
	re     *regexp.Regexp
	weight int
}

func m(expr string, weight int) marker {
	return marker{re: regexp.MustCompile(expr), weight: weight}
}

var markers = map[domain.LanguageTag][]marker{
	domain.LangPython: {
		m(`(?m)^[ \t]*def\s+\w+\s*\(.*\)\s*(->\s*[^:]+)?:[ \t]*(#.*)?$`, 3),
		m(`(?m)^[ \t]*(from\s+[\w.]+\s+)?import\s+[\w.]+(\s+as\s+\w+)?(\s*,\s*[\w.]+(\s+as\s+\w+)?)*[ \t]*$`, 2),
		m(`(?m)^[ \t]*(if|elif|else|for|while|with|try|except|finally|class)\b[^;{]*:[ \t]*(#.*)?$`, 1),
		m(`__name__\s*==\s*['"]__main__['"]`, 3),
		m(`(?m)^[ \t]*elif\b`, 2),
		m(`\bself\.\w+`, 1),
		m(`\bprint\s*\(`, 1),
		m(`\b(None|True|False)\b`, 1),
	},
	domain.LangJavaScript: {
		m(`\bfunction\s*\w*\s*\([^)]*\)\s*\{`, 2),
		m(`=>`, 1),
		m(`\b(const|let|var)\s+[\w$]+\s*=`, 2),
		m(`\bconsole\.(log|error|warn|info)\s*\(`, 3),
		m(`\brequire\s*\(\s*['"]`, 2),
		m(`\b(document|window)\.\w+`, 2),
		m(`===|!==`, 2),
		m(`(?m)^[ \t]*(export\s+default|module\.exports)\b`, 2),
	},
	domain.LangJava: {
		m(`\bpublic\s+static\s+void\s+main\s*\(`, 4),
		m(`\b(public|private|protected)\s+(abstract\s+|static\s+|final\s+)*(class|interface|enum)\s+\w+`, 3),
		m(`\bSystem\.(out|err)\.print`, 3),
		m(`(?m)^[ \t]*import\s+java(x)?\.[\w.*]+;`, 3),
		m(`(?m)^[ \t]*package\s+[\w.]+;`, 3),
		m(`@Override\b`, 2),
	},
	domain.LangC: {
		m(`#include\s*<\w+\.h>`, 3),
		m(`\bprintf\s*\(`, 1),
		m(`\bint\s+main\s*\(`, 1),
		m(`\b(malloc|calloc|free)\s*\(`, 2),
		m(`\b(struct|typedef)\s+\w+`, 1),
		m(`\bscanf\s*\(`, 2),
	},
	domain.LangCPP: {
		m(`#include\s*<(iostream|vector|string|map|memory|algorithm|fstream|sstream)>`, 3),
		m(`\bstd::`, 3),
		m(`\b(cout|cerr)\s*<<|\bcin\s*>>`, 3),
		m(`\busing\s+namespace\s+\w+\s*;`, 3),
		m(`\btemplate\s*<`, 2),
		m(`\bint\s+main\s*\(`, 1),
	},
	domain.LangGo: {
		m(`(?m)^[ \t]*package\s+\w+[ \t]*$`, 3),
		m(`\bfunc\s+(\(\s*\w+\s+\*?\w+\s*\)\s*)?\w+\s*\(`, 3),
		m(`(?m)^[ \t]*import\s+(\(|"[\w/.-]+")`, 2),
		m(`:=`, 2),
		m(`\bfmt\.\w+\(`, 2),
		m(`\b(go\s+func|chan\s+\w+|defer\s+\w+)`, 1),
	},
}

// Detect returns the language of sub. It never fails: anything that cannot
// be classified is LangUnknown.
func Detect(sub domain.Submission) domain.LanguageTag {
	if sub.Filename != "" {
		return FromFilename(sub.Filename)
	}
	if sub.DeclaredLanguage != "" {
		if tag, ok := domain.ParseTag(string(sub.DeclaredLanguage)); ok {
			return tag
		}
	}
	tag, err := FromContent(sub.Content)
	if err != nil {
		return domain.LangUnknown
	}
	return tag
}

// FromFilename maps a file name through the extension table.
func FromFilename(name string) domain.LanguageTag {
	ext := strings.ToLower(filepath.Ext(name))
	if tag, ok := extensions[ext]; ok {
		return tag
	}
	return domain.LangUnknown
}

// KnownExtension reports whether name has an extension in the table.
func KnownExtension(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FromContent applies the keyword heuristics. It returns
// ErrDetectionAmbiguous when no language reaches MinScore.
func FromContent(code string) (domain.LanguageTag, error) {
	scores := Scores(code)
	best, bestScore := domain.LangUnknown, 0
	for _, tag := range ranking {
		if s := scores[tag]; s > bestScore {
			best, bestScore = tag, s
		}
	}
	if bestScore < MinScore {
		return domain.LangUnknown, domain.ErrDetectionAmbiguous
	}
	return best, nil
}

// Scores returns the heuristic score of every language for code.
func Scores(code string) map[domain.LanguageTag]int {
	scores := make(map[domain.LanguageTag]int, len(markers))
	if strings.TrimSpace(code) == "" {
		return scores
	}
	for tag, ms := range markers {
		for _, mk := range ms {
			if mk.re.MatchString(code) {
				scores[tag] += mk.weight
			}
		}
	}
	return scores
}
