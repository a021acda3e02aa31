// Package translator is the external "grammar" collaborator: it matches a
// tokenized line against a small set of known forms and turns matched
// lines into ast.Statement values. This is the `match`/`translate` contract
// the REPL's dispatch table is built directly on top of.
package translator

import (
	"fmt"
	"io"

	"github.com/mikecovlee/covscript/pkg/ast"
	"github.com/mikecovlee/covscript/pkg/token"
)

// MethodType mirrors method_types from the original: the shape a matched
// grammar form takes, and therefore how the REPL must assemble it.
type MethodType int

const (
	MethodNull MethodType = iota
	MethodSingle
	MethodBlock
	MethodJIT
)

// TargetType distinguishes the handful of single-method forms the REPL
// treats specially (currently only "end", which closes a block).
type TargetType int

const (
	TargetNone TargetType = iota
	TargetEnd
)

// Method is what Match returns: enough information for the REPL to decide
// whether a line stands alone, opens a block, closes one, or is a
// REPL-only command.
type Method struct {
	Type    MethodType
	Target  TargetType
	Keyword string
}

// Translator is the contract Instance and the REPL drive.
type Translator interface {
	// Match classifies a single tokenized line without consuming it.
	Match(line []token.Token) (*Method, error)
	// Translate turns one or more accumulated token lines (more than one
	// only for a completed block) into a single Statement.
	Translate(lines [][]token.Token, loc ast.Locator, startLine int) (ast.Statement, error)
	// RunJIT executes a jit_command line immediately; it never produces a
	// persistent Statement (matching method_types::jit_command).
	RunJIT(line []token.Token) error
	// RegisteredModules lists the names every `import` statement translated
	// so far named, in the order Translate saw them - the compiler's own
	// module registry, independent of whether those imports ever execute.
	RegisteredModules() []string
}

var blockKeywords = map[string]bool{
	"if":    true,
	"while": true,
	"for":   true,
	"block": true,
}

var jitCommands = map[string]bool{
	"help": true,
	"cls":  true,
}

// CovTranslator is the default Translator implementation.
type CovTranslator struct {
	Importer ast.Importer
	Setter   ast.PackageSetter
	Out      io.Writer

	modules []string
}

func New(importer ast.Importer, setter ast.PackageSetter, out io.Writer) *CovTranslator {
	return &CovTranslator{Importer: importer, Setter: setter, Out: out}
}

func (t *CovTranslator) RegisteredModules() []string {
	return t.modules
}

func (t *CovTranslator) Match(line []token.Token) (*Method, error) {
	if len(line) == 0 {
		return &Method{Type: MethodNull}, nil
	}
	head := line[0]
	if head.Type != token.IDENT {
		return &Method{Type: MethodNull}, nil
	}
	switch {
	case head.Literal == "end":
		return &Method{Type: MethodSingle, Target: TargetEnd, Keyword: "end"}, nil
	case head.Literal == "import":
		return &Method{Type: MethodSingle, Keyword: "import"}, nil
	case head.Literal == "print" || head.Literal == "var" || head.Literal == "package":
		return &Method{Type: MethodSingle, Keyword: head.Literal}, nil
	case blockKeywords[head.Literal]:
		return &Method{Type: MethodBlock, Keyword: head.Literal}, nil
	case jitCommands[head.Literal]:
		return &Method{Type: MethodJIT, Keyword: head.Literal}, nil
	default:
		return &Method{Type: MethodNull}, nil
	}
}

func (t *CovTranslator) RunJIT(line []token.Token) error {
	if len(line) == 0 {
		return nil
	}
	switch line[0].Literal {
	case "cls":
		fmt.Fprint(t.Out, "\033[2J\033[H")
	case "help":
		fmt.Fprintln(t.Out, "CovScript REPL. Directives: @begin, @end. Statements: import, var, print, if/while/for/block ... end.")
	}
	return nil
}

func (t *CovTranslator) Translate(lines [][]token.Token, loc ast.Locator, startLine int) (ast.Statement, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("translate: no input")
	}
	head := lines[0]
	base := ast.Base{Loc: loc, Line: startLine}
	switch head[0].Literal {
	case "end":
		return &ast.EndStatement{Base: base}, nil
	case "import":
		return t.translateImport(head, base)
	case "print":
		return t.translatePrint(head, base)
	case "var":
		return t.translateAssign(head, base)
	case "package":
		return t.translatePackage(head, base)
	case "if", "while", "for", "block":
		return t.translateBlock(lines, base)
	default:
		return nil, fmt.Errorf("line %d: unrecognized grammar form %q", startLine, head[0].Literal)
	}
}

func (t *CovTranslator) translateImport(line []token.Token, base ast.Base) (ast.Statement, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("line %d: import requires a path", base.Line)
	}
	name := line[1].Literal
	t.modules = append(t.modules, name)
	return &ast.ImportStatement{Base: base, Importer: t.Importer, Name: name}, nil
}

func (t *CovTranslator) translatePrint(line []token.Token, base ast.Base) (ast.Statement, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("line %d: print requires an argument", base.Line)
	}
	return &ast.PrintStatement{Base: base, Out: t.Out, Arg: line[1]}, nil
}

func (t *CovTranslator) translateAssign(line []token.Token, base ast.Base) (ast.Statement, error) {
	// var NAME = VALUE
	if len(line) < 4 || line[1].Type != token.IDENT || line[2].Literal != "=" {
		return nil, fmt.Errorf("line %d: malformed var statement", base.Line)
	}
	return &ast.AssignStatement{Base: base, Name: line[1].Literal, Value: line[3]}, nil
}

func (t *CovTranslator) translatePackage(line []token.Token, base ast.Base) (ast.Statement, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("line %d: package requires a name", base.Line)
	}
	return &ast.PackageStatement{Base: base, Setter: t.Setter, Name: line[1].Literal}, nil
}

func (t *CovTranslator) translateBlock(lines [][]token.Token, base ast.Base) (ast.Statement, error) {
	head := lines[0]
	block := &ast.BlockStatement{Base: base, Keyword: head[0].Literal}
	for _, body := range lines[1:] {
		if len(body) == 0 {
			continue
		}
		if body[0].Literal == "end" {
			continue
		}
		stmt, err := t.Translate([][]token.Token{body}, base.Loc, base.Line)
		if err != nil {
			return nil, err
		}
		block.Children = append(block.Children, stmt)
	}
	return block, nil
}
