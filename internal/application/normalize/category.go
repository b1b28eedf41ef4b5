package normalize

import (
	"strings"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// ruleTypes maps tool rule identifiers (bandit test ids, pylint message ids
// and symbols) to the finding vocabulary.
var ruleTypes = map[string]string{
	// bandit
	"B102": domain.TypeCodeInjection,
	"B301": domain.TypeUnsafeDeserialization,
	"B302": domain.TypeUnsafeDeserialization,
	"B303": domain.TypeWeakCrypto,
	"B304": domain.TypeWeakCrypto,
	"B305": domain.TypeWeakCrypto,
	"B307": domain.TypeCodeInjection,
	"B311": domain.TypeInsecureRandom,
	"B324": domain.TypeWeakCrypto,
	"B403": domain.TypeUnsafeDeserialization,
	"B413": domain.TypeWeakCrypto,
	"B105": domain.TypeHardcodedSecret,
	"B106": domain.TypeHardcodedSecret,
	"B107": domain.TypeHardcodedSecret,
	"B506": domain.TypeUnsafeDeserialization,
	"B602": domain.TypeCommandInjection,
	"B603": domain.TypeCommandInjection,
	"B604": domain.TypeCommandInjection,
	"B605": domain.TypeCommandInjection,
	"B606": domain.TypeCommandInjection,
	"B607": domain.TypeCommandInjection,
	"B609": domain.TypeCommandInjection,
	"B608": domain.TypeSQLInjection,
	"B701": domain.TypeXSS,
	"B703": domain.TypeXSS,
	"B704": domain.TypeXSS,

	// pylint
	"W0611":             domain.TypeUnusedImport,
	"unused-import":     domain.TypeUnusedImport,
	"W0612":             domain.TypeUnusedVariable,
	"unused-variable":   domain.TypeUnusedVariable,
	"W0613":             domain.TypeUnusedVariable,
	"unused-argument":   domain.TypeUnusedVariable,
	"R1260":             domain.TypeComplexFunction,
	"too-complex":       domain.TypeComplexFunction,
	"R0912":             domain.TypeComplexFunction,
	"too-many-branches": domain.TypeComplexFunction,
	"R0915":             domain.TypeComplexFunction,
	"C0103":             domain.TypeNaming,
	"invalid-name":      domain.TypeNaming,
	"C0301":             domain.TypeLineTooLong,
	"line-too-long":     domain.TypeLineTooLong,
	"W0122":             domain.TypeCodeInjection,
	"exec-used":         domain.TypeCodeInjection,
	"W0123":             domain.TypeCodeInjection,
	"eval-used":         domain.TypeCodeInjection,
}

type keyword struct {
	word string
	typ  string
}

// Checked in order; the first hit wins.
var securityKeywords = []keyword{
	{"deserializ", domain.TypeUnsafeDeserialization},
	{"pickle", domain.TypeUnsafeDeserialization},
	{"yaml.load", domain.TypeUnsafeDeserialization},
	{"marshal", domain.TypeUnsafeDeserialization},
	{"shell", domain.TypeCommandInjection},
	{"subprocess", domain.TypeCommandInjection},
	{"command", domain.TypeCommandInjection},
	{"os.system", domain.TypeCommandInjection},
	{"sql", domain.TypeSQLInjection},
	{"eval", domain.TypeCodeInjection},
	{"code injection", domain.TypeCodeInjection},
	{"exec", domain.TypeCodeInjection},
	{"password", domain.TypeHardcodedSecret},
	{"secret", domain.TypeHardcodedSecret},
	{"token", domain.TypeHardcodedSecret},
	{"credential", domain.TypeHardcodedSecret},
	{"md5", domain.TypeWeakCrypto},
	{"sha1", domain.TypeWeakCrypto},
	{"cipher", domain.TypeWeakCrypto},
	{"crypt", domain.TypeWeakCrypto},
	{"random", domain.TypeInsecureRandom},
	{"overflow", domain.TypeBufferOverflow},
	{"strcpy", domain.TypeBufferOverflow},
	{"xss", domain.TypeXSS},
	{"cross-site", domain.TypeXSS},
	{"innerhtml", domain.TypeXSS},
}

var styleKeywords = []keyword{
	{"unused-import", domain.TypeUnusedImport},
	{"unused import", domain.TypeUnusedImport},
	{"unused", domain.TypeUnusedVariable},
	{"complex", domain.TypeComplexFunction},
	{"too-many", domain.TypeComplexFunction},
	{"naming", domain.TypeNaming},
	{"invalid-name", domain.TypeNaming},
	{"line-too-long", domain.TypeLineTooLong},
	{"line too long", domain.TypeLineTooLong},
}

// MapType resolves the vocabulary type of one diagnostic. category is a
// tool-supplied category (used as-is when it already is a vocabulary type),
// ids are rule identifiers and text is free text used for keyword matching.
func MapType(kind domain.ToolKind, category string, ids []string, text string) string {
	if c := strings.ToLower(strings.TrimSpace(category)); domain.IsKnownType(c) {
		return c
	}
	for _, id := range ids {
		if t, ok := ruleTypes[id]; ok {
			return t
		}
	}
	kws := securityKeywords
	if kind == domain.KindStyle {
		kws = styleKeywords
	}
	hay := strings.ToLower(category + " " + strings.Join(ids, " ") + " " + text)
	for _, kw := range kws {
		if strings.Contains(hay, kw.word) {
			return kw.typ
		}
	}
	return domain.FallbackType(kind)
}

// MapSeverity maps tool severity words to a Severity.
func MapSeverity(s string) domain.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "fatal":
		return domain.SeverityCritical
	case "high", "error":
		return domain.SeverityHigh
	case "medium", "warning", "moderate":
		return domain.SeverityMedium
	case "low", "note", "convention", "refactor":
		return domain.SeverityLow
	case "info", "informational", "none":
		return domain.SeverityInfo
	default:
		return ""
	}
}

// lintSeverity maps a pylint message id category letter.
func lintSeverity(msgID string) domain.Severity {
	if msgID == "" {
		return ""
	}
	switch msgID[0] {
	case 'F', 'E':
		return domain.SeverityHigh
	case 'W':
		return domain.SeverityMedium
	case 'R', 'C':
		return domain.SeverityLow
	case 'I':
		return domain.SeverityInfo
	default:
		return ""
	}
}
