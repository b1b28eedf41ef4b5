package lint

import (
	"regexp"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// namingRule constrains the name stored under field of nodes of one type.
type namingRule struct {
	node  string
	field string
	what  string
	style string
	re    *regexp.Regexp
}

// binding describes a node that introduces a local name.
type binding struct {
	node  string
	field string
}

// profile holds the grammar node types each check looks at.
type profile struct {
	functions  map[string]bool
	decisions  map[string]bool
	boolOps    map[string]bool // binary expressions counted when the operator is in boolOps
	binaryNode string

	locals    []binding // declarations checked for unused variables
	writes    []binding // assignment targets that do not count as reads
	readTypes map[string]bool

	naming []namingRule
	// exempt names never reported by naming rules
	exempt *regexp.Regexp
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

var (
	snakeCase  = regexp.MustCompile(`^_{0,2}[a-z][a-z0-9_]*_{0,2}$`)
	capWords   = regexp.MustCompile(`^_?[A-Z][a-zA-Z0-9]*$`)
	camelCase  = regexp.MustCompile(`^[_$]?[a-z][a-zA-Z0-9$]*$`)
	pascalCase = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	jsFunction = regexp.MustCompile(`^[_$]?[A-Za-z][a-zA-Z0-9$]*$`)
	mixedCaps  = regexp.MustCompile(`^_?[A-Za-z][a-zA-Z0-9]*$`)
	goTestName = regexp.MustCompile(`^(Test|Benchmark|Example|Fuzz)`)
)

var profiles = map[domain.LanguageTag]*profile{
	domain.LangPython: {
		functions: set("function_definition", "lambda"),
		decisions: set("if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "conditional_expression", "boolean_operator", "for_in_clause",
			"if_clause", "case_clause"),
		locals:    []binding{{"assignment", "left"}},
		writes:    []binding{{"assignment", "left"}},
		readTypes: set("identifier"),
		naming: []namingRule{
			{"function_definition", "name", "Function", "snake_case", snakeCase},
			{"class_definition", "name", "Class", "PascalCase", capWords},
		},
	},
	domain.LangJavaScript: {
		functions: set("function_declaration", "function_expression", "arrow_function",
			"method_definition", "generator_function_declaration"),
		decisions: set("if_statement", "for_statement", "for_in_statement", "while_statement",
			"do_statement", "switch_case", "catch_clause", "ternary_expression"),
		boolOps:    set("&&", "||", "??"),
		binaryNode: "binary_expression",
		locals:     []binding{{"variable_declarator", "name"}},
		writes:     []binding{{"variable_declarator", "name"}, {"assignment_expression", "left"}},
		readTypes:  set("identifier", "shorthand_property_identifier"),
		naming: []namingRule{
			{"function_declaration", "name", "Function", "camelCase", jsFunction},
			{"class_declaration", "name", "Class", "PascalCase", pascalCase},
		},
	},
	domain.LangJava: {
		functions: set("method_declaration", "constructor_declaration", "lambda_expression"),
		decisions: set("if_statement", "for_statement", "enhanced_for_statement", "while_statement",
			"do_statement", "switch_label", "catch_clause", "ternary_expression"),
		boolOps:    set("&&", "||"),
		binaryNode: "binary_expression",
		locals:     []binding{{"variable_declarator", "name"}},
		writes:     []binding{{"variable_declarator", "name"}, {"assignment_expression", "left"}},
		readTypes:  set("identifier"),
		naming: []namingRule{
			{"class_declaration", "name", "Class", "PascalCase", pascalCase},
			{"interface_declaration", "name", "Interface", "PascalCase", pascalCase},
			{"enum_declaration", "name", "Enum", "PascalCase", pascalCase},
			{"method_declaration", "name", "Method", "camelCase", camelCase},
		},
	},
	domain.LangC: {
		functions: set("function_definition"),
		decisions: set("if_statement", "for_statement", "while_statement", "do_statement",
			"case_statement", "conditional_expression"),
		boolOps:    set("&&", "||"),
		binaryNode: "binary_expression",
	},
	domain.LangCPP: {
		functions: set("function_definition", "lambda_expression"),
		decisions: set("if_statement", "for_statement", "for_range_loop", "while_statement",
			"do_statement", "case_statement", "conditional_expression", "catch_clause"),
		boolOps:    set("&&", "||", "and", "or"),
		binaryNode: "binary_expression",
	},
	domain.LangGo: {
		functions: set("function_declaration", "method_declaration", "func_literal"),
		decisions: set("if_statement", "for_statement", "expression_case", "type_case",
			"communication_case"),
		boolOps:    set("&&", "||"),
		binaryNode: "binary_expression",
		naming: []namingRule{
			{"function_declaration", "name", "Function", "MixedCaps", mixedCaps},
			{"method_declaration", "name", "Method", "MixedCaps", mixedCaps},
			{"type_spec", "name", "Type", "MixedCaps", mixedCaps},
		},
		exempt: goTestName,
	},
}
