package analysis

// Finding types. The UI keys icons and labels on these exact strings.
const (
	TypeUnsafeDeserialization = "unsafe deserialization"
	TypeCommandInjection      = "command injection"
	TypeCodeInjection         = "code injection"
	TypeSQLInjection          = "sql injection"
	TypeHardcodedSecret       = "hardcoded secret"
	TypeWeakCrypto            = "weak cryptography"
	TypeInsecureRandom        = "insecure randomness"
	TypeBufferOverflow        = "buffer overflow"
	TypeXSS                   = "cross-site scripting"
	TypeSecurityIssue         = "security issue"

	TypeUnusedVariable  = "unused variable"
	TypeUnusedImport    = "unused import"
	TypeComplexFunction = "complex function"
	TypeNaming          = "naming convention"
	TypeLineTooLong     = "line too long"
	TypeStyleIssue      = "style issue"
)

var vocabulary = map[string]ToolKind{
	TypeUnsafeDeserialization: KindSecurity,
	TypeCommandInjection:      KindSecurity,
	TypeCodeInjection:         KindSecurity,
	TypeSQLInjection:          KindSecurity,
	TypeHardcodedSecret:       KindSecurity,
	TypeWeakCrypto:            KindSecurity,
	TypeInsecureRandom:        KindSecurity,
	TypeBufferOverflow:        KindSecurity,
	TypeXSS:                   KindSecurity,
	TypeSecurityIssue:         KindSecurity,
	TypeUnusedVariable:        KindStyle,
	TypeUnusedImport:          KindStyle,
	TypeComplexFunction:       KindStyle,
	TypeNaming:                KindStyle,
	TypeLineTooLong:           KindStyle,
	TypeStyleIssue:            KindStyle,
}

// IsKnownType reports whether t belongs to the fixed vocabulary.
func IsKnownType(t string) bool {
	_, ok := vocabulary[t]
	return ok
}

// FallbackType is the catch-all type for a kind.
func FallbackType(kind ToolKind) string {
	if kind == KindStyle {
		return TypeStyleIssue
	}
	return TypeSecurityIssue
}
