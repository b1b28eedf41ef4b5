// Package engine holds the pieces shared by the in-process analyzers: tree-sitter
// grammars, AST walking and the native report formats they emit.
package engine

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// Grammar returns the tree-sitter grammar for lang, or nil.
func Grammar(lang domain.LanguageTag) *sitter.Language {
	switch lang {
	case domain.LangPython:
		return python.GetLanguage()
	case domain.LangJavaScript:
		return javascript.GetLanguage()
	case domain.LangJava:
		return java.GetLanguage()
	case domain.LangC:
		return c.GetLanguage()
	case domain.LangCPP:
		return cpp.GetLanguage()
	case domain.LangGo:
		return golang.GetLanguage()
	default:
		return nil
	}
}

// Slug is the language name usable inside adapter names.
func Slug(lang domain.LanguageTag) string {
	if lang == domain.LangCPP {
		return "cpp"
	}
	return string(lang)
}

// Parse parses src with a fresh parser. Parsers are not shared between calls.
// The caller closes the returned tree.
func Parse(ctx context.Context, lang domain.LanguageTag, src []byte) (*sitter.Tree, error) {
	grammar := Grammar(lang)
	if grammar == nil {
		return nil, fmt.Errorf("no grammar for %s", lang)
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", lang, err)
	}
	return tree, nil
}

// Text returns the source text of n.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// Walk visits n and its descendants in pre-order. visit returns false to skip
// a node's children. Walk stops early when ctx is done.
func Walk(ctx context.Context, n *sitter.Node, visit func(*sitter.Node) bool) error {
	var seen int
	var walk func(*sitter.Node) error
	walk = func(n *sitter.Node) error {
		if n == nil {
			return nil
		}
		seen++
		if seen%256 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if !visit(n) {
			return nil
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if err := walk(n.Child(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(n); err != nil {
		return err
	}
	return ctx.Err()
}

// Same reports whether a and b are the same node of one tree.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// IsField reports whether n is the child stored under field of its parent.
func IsField(n *sitter.Node, parentType, field string) bool {
	p := n.Parent()
	if p == nil || p.Type() != parentType {
		return false
	}
	return Same(p.ChildByFieldName(field), n)
}
