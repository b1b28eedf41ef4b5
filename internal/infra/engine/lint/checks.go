package lint

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine"
)

var (
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	versionRe = regexp.MustCompile(`^v[0-9]+$`)
	dotVerRe  = regexp.MustCompile(`\.v[0-9]+$`)
)

type checker struct {
	ctx  context.Context
	lang domain.LanguageTag
	opts Options
	prof *profile
	src  []byte
	msgs []engine.LintMessage

	reads map[uint32]map[string]bool
}

func (c *checker) text(n *sitter.Node) string { return engine.Text(n, c.src) }

func (c *checker) add(m engine.LintMessage) { c.msgs = append(c.msgs, m) }

// wholeLine reports on the line where n starts.
func wholeLine(n *sitter.Node, msgID, symbol, text string) engine.LintMessage {
	p := n.StartPoint()
	return engine.LintMessage{Line: int(p.Row) + 1, Col: int(p.Column), MsgID: msgID, Symbol: symbol, Text: text}
}

// identifiers collects the text of nodes of the given types, skipping the
// subtrees rooted at nodes whose type is in skip.
func (c *checker) identifiers(root *sitter.Node, types, skip map[string]bool) (map[string]bool, error) {
	seen := map[string]bool{}
	err := engine.Walk(c.ctx, root, func(n *sitter.Node) bool {
		if skip[n.Type()] {
			return false
		}
		if types[n.Type()] {
			seen[c.text(n)] = true
		}
		return true
	})
	return seen, err
}

func (c *checker) unusedImports(root *sitter.Node) error {
	switch c.lang {
	case domain.LangPython:
		return c.pythonImports(root)
	case domain.LangGo:
		return c.goImports(root)
	}
	return nil
}

func (c *checker) pythonImports(root *sitter.Node) error {
	used, err := c.identifiers(root, set("identifier"), set("import_statement", "import_from_statement"))
	if err != nil {
		return err
	}
	return engine.Walk(c.ctx, root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement", "import_from_statement":
		default:
			return true
		}

		module := n.ChildByFieldName("module_name")
		if module != nil && c.text(module) == "__future__" {
			return false
		}
		var names []*sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if engine.Same(child, module) {
				continue
			}
			if child.Type() == "dotted_name" || child.Type() == "aliased_import" {
				names = append(names, child)
			}
		}

		for _, name := range names {
			bound := c.pythonBinding(name, module == nil)
			if bound == "" || used[bound] {
				continue
			}
			text := "Unused import " + c.text(name)
			if module != nil {
				text = fmt.Sprintf("Unused %s imported from %s", c.text(name), c.text(module))
			}
			target := name
			if len(names) == 1 {
				target = n
			}
			c.add(engine.LintAt(target, "W0611", "unused-import", text))
		}
		return false
	})
}

// pythonBinding is the local name an imported item binds. "import a.b" binds
// "a"; "from m import a" binds "a".
func (c *checker) pythonBinding(name *sitter.Node, plain bool) string {
	if name.Type() == "aliased_import" {
		return c.text(name.ChildByFieldName("alias"))
	}
	count := int(name.NamedChildCount())
	if count == 0 {
		return c.text(name)
	}
	if plain {
		return c.text(name.NamedChild(0))
	}
	return c.text(name.NamedChild(count - 1))
}

func (c *checker) goImports(root *sitter.Node) error {
	used, err := c.identifiers(root, set("identifier", "package_identifier"), set("import_declaration"))
	if err != nil {
		return err
	}
	return engine.Walk(c.ctx, root, func(n *sitter.Node) bool {
		if n.Type() != "import_spec" {
			return true
		}
		path := strings.Trim(c.text(n.ChildByFieldName("path")), "\"`")
		bound := goPackageName(path)
		if alias := n.ChildByFieldName("name"); alias != nil {
			bound = c.text(alias)
			if bound == "_" || bound == "." {
				return false
			}
		}
		if bound != "" && !used[bound] {
			c.add(engine.LintAt(n, "W0611", "unused-import", "Unused import "+path))
		}
		return false
	})
}

// goPackageName guesses the package name of an import path. It returns ""
// when the name cannot be known from the path alone.
func goPackageName(path string) string {
	segs := strings.Split(path, "/")
	name := segs[len(segs)-1]
	if versionRe.MatchString(name) && len(segs) > 1 {
		name = segs[len(segs)-2]
	}
	name = dotVerRe.ReplaceAllString(name, "")
	if !identRe.MatchString(name) {
		return ""
	}
	return name
}

func (c *checker) enclosingFunction(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if c.prof.functions[p.Type()] {
			return p
		}
	}
	return nil
}

func (c *checker) isWrite(n *sitter.Node) bool {
	for _, w := range c.prof.writes {
		if engine.IsField(n, w.node, w.field) {
			return true
		}
	}
	return false
}

// readsIn returns the names read anywhere inside fn.
func (c *checker) readsIn(fn *sitter.Node) (map[string]bool, error) {
	if r, ok := c.reads[fn.StartByte()]; ok {
		return r, nil
	}
	r := map[string]bool{}
	err := engine.Walk(c.ctx, fn, func(n *sitter.Node) bool {
		if c.prof.readTypes[n.Type()] && !c.isWrite(n) {
			r[c.text(n)] = true
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if c.reads == nil {
		c.reads = map[uint32]map[string]bool{}
	}
	c.reads[fn.StartByte()] = r
	return r, nil
}

func (c *checker) unusedVariables(root *sitter.Node) error {
	if len(c.prof.locals) == 0 {
		return nil
	}
	reported := map[string]bool{}
	var inner error
	err := engine.Walk(c.ctx, root, func(n *sitter.Node) bool {
		if inner != nil {
			return false
		}
		for _, b := range c.prof.locals {
			if n.Type() != b.node {
				continue
			}
			target := n.ChildByFieldName(b.field)
			if target == nil || target.Type() != "identifier" {
				continue
			}
			name := c.text(target)
			if strings.HasPrefix(name, "_") {
				continue
			}
			fn := c.enclosingFunction(n)
			if fn == nil {
				continue
			}
			key := fmt.Sprintf("%d/%s", fn.StartByte(), name)
			if reported[key] {
				continue
			}
			reads, err := c.readsIn(fn)
			if err != nil {
				inner = err
				return false
			}
			if !reads[name] {
				reported[key] = true
				c.add(engine.LintAt(target, "W0612", "unused-variable", fmt.Sprintf("Unused variable '%s'", name)))
			}
		}
		return true
	})
	if inner != nil {
		return inner
	}
	return err
}

func (c *checker) functionName(fn *sitter.Node) string {
	if name := fn.ChildByFieldName("name"); name != nil {
		return c.text(name)
	}
	d := fn.ChildByFieldName("declarator")
	for d != nil {
		next := d.ChildByFieldName("declarator")
		if next == nil {
			break
		}
		d = next
	}
	if d != nil {
		return c.text(d)
	}
	return "<anonymous>"
}

// rating is the McCabe complexity of fn, not counting nested functions.
func (c *checker) rating(fn *sitter.Node) (int, error) {
	score := 1
	err := engine.Walk(c.ctx, fn, func(n *sitter.Node) bool {
		if !engine.Same(n, fn) && c.prof.functions[n.Type()] {
			return false
		}
		if c.prof.decisions[n.Type()] {
			score++
		}
		if c.prof.binaryNode != "" && n.Type() == c.prof.binaryNode {
			if op := n.ChildByFieldName("operator"); op != nil && c.prof.boolOps[c.text(op)] {
				score++
			}
		}
		return true
	})
	return score, err
}

func (c *checker) complexity(root *sitter.Node) error {
	var fns []*sitter.Node
	err := engine.Walk(c.ctx, root, func(n *sitter.Node) bool {
		if c.prof.functions[n.Type()] {
			fns = append(fns, n)
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, fn := range fns {
		score, err := c.rating(fn)
		if err != nil {
			return err
		}
		if score > c.opts.MaxComplexity {
			c.add(wholeLine(fn, "R1260", "too-complex",
				fmt.Sprintf("'%s' is too complex. The McCabe rating is %d", c.functionName(fn), score)))
		}
	}
	return nil
}

func (c *checker) naming(root *sitter.Node) error {
	if len(c.prof.naming) == 0 {
		return nil
	}
	return engine.Walk(c.ctx, root, func(n *sitter.Node) bool {
		for _, r := range c.prof.naming {
			if n.Type() != r.node {
				continue
			}
			name := n.ChildByFieldName(r.field)
			if name == nil {
				continue
			}
			t := c.text(name)
			if t == "_" || (c.prof.exempt != nil && c.prof.exempt.MatchString(t)) {
				continue
			}
			if !r.re.MatchString(t) {
				c.add(engine.LintAt(name, "C0103", "invalid-name",
					fmt.Sprintf("%s name \"%s\" doesn't conform to %s naming style", r.what, t, r.style)))
			}
		}
		return true
	})
}

func (c *checker) lineLength(code string) {
	for i, line := range strings.Split(code, "\n") {
		n := utf8.RuneCountInString(strings.TrimRight(line, "\r"))
		if n > c.opts.MaxLineLength {
			c.add(engine.LintMessage{
				Line:   i + 1,
				MsgID:  "C0301",
				Symbol: "line-too-long",
				Text:   fmt.Sprintf("Line too long (%d/%d)", n, c.opts.MaxLineLength),
			})
		}
	}
}
