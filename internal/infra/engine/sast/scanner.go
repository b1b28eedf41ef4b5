// Package sast is the in-process security analyzer. It parses the submission
// with tree-sitter and flags calls to dangerous APIs, so matches inside
// comments and string literals are ignored.
package sast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine"
)

// Adapter runs the dangerous-call rules of one language.
//
// Run is safe for concurrent use; a parser is created per call.
type Adapter struct {
	lang  domain.LanguageTag
	rules []*Rule
}

// New creates the adapter for lang using the rules that target it.
func New(lang domain.LanguageTag, rules []*Rule) (*Adapter, error) {
	if engine.Grammar(lang) == nil {
		return nil, fmt.Errorf("sast: no grammar for %s", lang)
	}
	a := &Adapter{lang: lang}
	for _, r := range rules {
		if r.Language == lang {
			a.rules = append(a.rules, r)
		}
	}
	return a, nil
}

// Adapters compiles the built-in rules plus extra and returns one adapter per
// language that has at least one rule.
func Adapters(extra ...RawRule) ([]*Adapter, error) {
	raws, err := BuiltinRules()
	if err != nil {
		return nil, err
	}
	raws = append(raws, extra...)

	var compiled []*Rule
	for _, raw := range raws {
		r, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, r)
	}

	var out []*Adapter
	for _, lang := range domain.Languages {
		a, err := New(lang, compiled)
		if err != nil {
			return nil, err
		}
		if len(a.rules) > 0 {
			out = append(out, a)
		}
	}
	return out, nil
}

func (a *Adapter) Descriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:     "sast-" + engine.Slug(a.lang),
		Language: a.lang,
		Kind:     domain.KindSecurity,
	}
}

// Run parses code and reports every matching call site in source order.
func (a *Adapter) Run(ctx context.Context, code string) (domain.RawOutput, error) {
	src := []byte(code)
	tree, err := engine.Parse(ctx, a.lang, src)
	if err != nil {
		return domain.RawOutput{}, err
	}
	defer tree.Close()

	var results []engine.SecurityResult
	err = engine.Walk(ctx, tree.RootNode(), func(n *sitter.Node) bool {
		if r := a.match(n, src); r != nil {
			results = append(results, engine.SecurityResult{
				TestID:        r.ID,
				TestName:      r.Name,
				IssueText:     r.Message,
				IssueSeverity: r.Severity,
				Category:      r.Category,
				Remediation:   r.Remediation,
			}.At(n))
		}
		return true
	})
	if err != nil {
		return domain.RawOutput{}, err
	}
	return engine.SecurityReport(results)
}

// match returns the first rule matching n.
func (a *Adapter) match(n *sitter.Node, src []byte) *Rule {
	callee, args, assign := a.site(n, src)
	if callee == "" && assign == "" {
		return nil
	}
	for _, r := range a.rules {
		if callee != "" && r.matchCall(callee) && r.matchArgs(args) {
			return r
		}
		if assign != "" && r.matchAssign(assign) {
			return r
		}
	}
	return nil
}

// site extracts the callee name and argument text of a call node, or the
// target of an assignment node.
func (a *Adapter) site(n *sitter.Node, src []byte) (callee, args, assign string) {
	switch a.lang {
	case domain.LangPython:
		if n.Type() == "call" {
			return engine.Text(n.ChildByFieldName("function"), src), engine.Text(n.ChildByFieldName("arguments"), src), ""
		}
	case domain.LangJavaScript:
		switch n.Type() {
		case "call_expression":
			return engine.Text(n.ChildByFieldName("function"), src), engine.Text(n.ChildByFieldName("arguments"), src), ""
		case "new_expression":
			return "new " + engine.Text(n.ChildByFieldName("constructor"), src), engine.Text(n.ChildByFieldName("arguments"), src), ""
		case "assignment_expression", "augmented_assignment_expression":
			return "", "", engine.Text(n.ChildByFieldName("left"), src)
		}
	case domain.LangJava:
		switch n.Type() {
		case "method_invocation":
			name := engine.Text(n.ChildByFieldName("name"), src)
			if obj := n.ChildByFieldName("object"); obj != nil {
				name = engine.Text(obj, src) + "." + name
			}
			return name, engine.Text(n.ChildByFieldName("arguments"), src), ""
		case "object_creation_expression":
			return "new " + engine.Text(n.ChildByFieldName("type"), src), engine.Text(n.ChildByFieldName("arguments"), src), ""
		}
	case domain.LangC, domain.LangCPP, domain.LangGo:
		if n.Type() == "call_expression" {
			return engine.Text(n.ChildByFieldName("function"), src), engine.Text(n.ChildByFieldName("arguments"), src), ""
		}
	}
	return "", "", ""
}
