package normalize

import (
	"fmt"

	"gopkg.in/yaml.v3"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

var builtinSolutions = map[string]string{
	domain.TypeUnsafeDeserialization: "Never deserialize untrusted data with pickle, marshal, yaml.load or native object streams. Use a data-only format such as JSON, or yaml.safe_load, and validate the result.",
	domain.TypeCommandInjection:      "Do not build shell commands from input. Pass an argument list to the process API with the shell disabled and validate every argument against an allow-list.",
	domain.TypeCodeInjection:         "Remove eval/exec on dynamic input. Parse the expected data explicitly (for example ast.literal_eval or JSON.parse) or dispatch through a fixed table of functions.",
	domain.TypeSQLInjection:          "Use parameterized queries or prepared statements instead of concatenating or formatting values into SQL text.",
	domain.TypeHardcodedSecret:       "Move the secret out of source code into an environment variable or a secret manager and rotate the exposed value.",
	domain.TypeWeakCrypto:            "Replace MD5/SHA-1 and legacy ciphers with SHA-256 or better, and use a dedicated password hash (bcrypt, scrypt, argon2) for passwords.",
	domain.TypeInsecureRandom:        "Use a cryptographically secure generator (secrets, crypto/rand, SecureRandom, crypto.getRandomValues) for tokens, keys and identifiers.",
	domain.TypeBufferOverflow:        "Use bounded functions (fgets, strncpy/strlcpy, snprintf) and check every length against the destination buffer size.",
	domain.TypeXSS:                   "Do not write untrusted strings into innerHTML or similar sinks. Use textContent or a templating layer that escapes output.",
	domain.TypeSecurityIssue:         "Review the flagged construct, validate all external input reaching it and prefer the safe API variant.",
	domain.TypeUnusedVariable:        "Remove the variable or use it. Prefix intentionally unused names with an underscore.",
	domain.TypeUnusedImport:          "Remove the unused import.",
	domain.TypeComplexFunction:       "Split the function into smaller helpers, use early returns and replace long conditional chains with lookup tables.",
	domain.TypeNaming:                "Rename the symbol to follow the language's naming convention.",
	domain.TypeLineTooLong:           "Wrap the line or extract parts of the expression into named variables.",
	domain.TypeStyleIssue:            "Follow the linter's suggestion for this message.",
}

// Catalog is the remediation knowledge base keyed by finding type. A Catalog
// is immutable once built.
type Catalog struct {
	solutions map[string]string
}

// NewCatalog returns the built-in catalog with overlays applied in order.
// Overlay entries for types outside the vocabulary are ignored.
func NewCatalog(overlays ...map[string]string) *Catalog {
	sol := make(map[string]string, len(builtinSolutions))
	for k, v := range builtinSolutions {
		sol[k] = v
	}
	for _, o := range overlays {
		for k, v := range o {
			if domain.IsKnownType(k) && v != "" {
				sol[k] = v
			}
		}
	}
	return &Catalog{solutions: sol}
}

// Lookup returns the solution text for a type.
func (c *Catalog) Lookup(typ string) string {
	if s, ok := c.solutions[typ]; ok {
		return s
	}
	return c.solutions[domain.TypeSecurityIssue]
}

// ParseCatalogYAML reads an overlay document of the form
//
//	solutions:
//	  "sql injection": "..."
func ParseCatalogYAML(data []byte) (map[string]string, error) {
	var doc struct {
		Solutions map[string]string `yaml:"solutions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing remediation catalog: %w", err)
	}
	return doc.Solutions, nil
}
