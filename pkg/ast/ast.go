// Package ast defines the Statement contract that pkg/translator produces
// and pkg/instance/pkg/repl execute, plus a small set of concrete statement
// kinds sufficient to exercise every branch of the REPL's dispatch table
// (null/single/block/jit_command). Full CovScript language semantics are
// out of scope; these are stand-ins for the "external collaborator"
// statement objects the original's codegen produces.
package ast

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mikecovlee/covscript/pkg/storage"
	"github.com/mikecovlee/covscript/pkg/token"
)

// Locator supplies a statement with the location metadata the original
// reads off statement_base's back-reference to its owning context.
type Locator interface {
	FilePath() string
	PackageName() string
	RawCode(line int) string
}

// Importer is implemented by pkg/instance.Instance; kept as an interface
// here so ast never imports instance (which itself holds []Statement).
type Importer interface {
	Import(path, name string) (any, error)
}

// PackageSetter is implemented by pkg/instance.Instance so a `package`
// statement can record the compiling file's declared package name, which
// import.csp validation later checks against the requested import name.
type PackageSetter interface {
	SetPackageName(name string)
}

// Statement is the polymorphic unit produced by translation, matching
// statement_base's run/repl_run/dump/get_* contract.
type Statement interface {
	Run(s storage.Storage) error
	ReplRun(s storage.Storage) error
	Dump(w io.Writer)
	LineNum() int
	FilePath() string
	PackageName() string
	RawCode() string
}

// Base is embedded by every concrete statement to satisfy the location
// methods of Statement.
type Base struct {
	Loc  Locator
	Line int
}

func (b Base) LineNum() int        { return b.Line }
func (b Base) FilePath() string    { return b.Loc.FilePath() }
func (b Base) PackageName() string { return b.Loc.PackageName() }
func (b Base) RawCode() string     { return b.Loc.RawCode(b.Line) }

// PrintStatement writes a literal or a variable's value followed by a
// newline, standing in for CovScript's `println`.
type PrintStatement struct {
	Base
	Out io.Writer
	Arg token.Token
}

func (p *PrintStatement) Run(s storage.Storage) error     { return p.exec(s) }
func (p *PrintStatement) ReplRun(s storage.Storage) error { return p.exec(s) }

func (p *PrintStatement) exec(s storage.Storage) error {
	v, err := evalLiteralOrVar(p.Arg, s)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.Out, v)
	return nil
}

func (p *PrintStatement) Dump(w io.Writer) {
	fmt.Fprintf(w, "%d\tprint\t%s\n", p.Line, p.Arg.Literal)
}

// AssignStatement binds a name to a literal value in the innermost scope.
type AssignStatement struct {
	Base
	Name  string
	Value token.Token
}

func (a *AssignStatement) Run(s storage.Storage) error     { return a.exec(s) }
func (a *AssignStatement) ReplRun(s storage.Storage) error { return a.exec(s) }

func (a *AssignStatement) exec(s storage.Storage) error {
	v, err := evalLiteral(a.Value)
	if err != nil {
		return err
	}
	s.Set(a.Name, v)
	return nil
}

func (a *AssignStatement) Dump(w io.Writer) {
	fmt.Fprintf(w, "%d\tassign\t%s = %s\n", a.Line, a.Name, a.Value.Literal)
}

// BlockStatement runs its children within a fresh domain/set, matching the
// add_domain/add_set ... remove_set/remove_domain discipline block-opening
// grammar methods perform around their body.
type BlockStatement struct {
	Base
	Keyword  string
	Children []Statement
}

func (b *BlockStatement) Run(s storage.Storage) error {
	s.AddDomain()
	defer s.RemoveDomain()
	for _, child := range b.Children {
		if err := child.Run(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *BlockStatement) ReplRun(s storage.Storage) error {
	// In the REPL, the domain/set pushed when the block-opening line was
	// seen is popped again when the matching `end` line arrives, before
	// this runs, so the children get a fresh domain here as in Run.
	s.AddDomain()
	defer s.RemoveDomain()
	for _, child := range b.Children {
		if err := child.ReplRun(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *BlockStatement) Dump(w io.Writer) {
	fmt.Fprintf(w, "%d\tblock\t%s\n", b.Line, b.Keyword)
	for _, c := range b.Children {
		c.Dump(w)
	}
	fmt.Fprintf(w, "%d\tend\n", b.Line)
}

// EndStatement is bookkeeping only: the REPL dispatch table pops the block
// stack when it sees one, matching the original's statement_types::end_
// being handled inline rather than via repl_run.
type EndStatement struct {
	Base
}

func (e *EndStatement) Run(storage.Storage) error     { return nil }
func (e *EndStatement) ReplRun(storage.Storage) error { return nil }
func (e *EndStatement) Dump(w io.Writer)              { fmt.Fprintf(w, "%d\tend\n", e.Line) }

// ImportStatement resolves Name via the Importer contract (searching Path,
// or the importer's own search path when Path is empty), then binds the
// resulting extension under Name.
type ImportStatement struct {
	Base
	Importer Importer
	Path     string
	Name     string
}

func (i *ImportStatement) Run(s storage.Storage) error     { return i.exec(s) }
func (i *ImportStatement) ReplRun(s storage.Storage) error { return i.exec(s) }

func (i *ImportStatement) exec(s storage.Storage) error {
	ext, err := i.Importer.Import(i.Path, i.Name)
	if err != nil {
		return err
	}
	s.Set(i.Name, ext)
	return nil
}

func (i *ImportStatement) Dump(w io.Writer) {
	fmt.Fprintf(w, "%d\timport\t%s::%s\n", i.Line, i.Path, i.Name)
}

// PackageStatement declares the compiling file's package name, matching
// the `package NAME` form original .csp packages open with.
type PackageStatement struct {
	Base
	Setter PackageSetter
	Name   string
}

func (p *PackageStatement) Run(storage.Storage) error {
	p.Setter.SetPackageName(p.Name)
	return nil
}

func (p *PackageStatement) ReplRun(storage.Storage) error {
	p.Setter.SetPackageName(p.Name)
	return nil
}

func (p *PackageStatement) Dump(w io.Writer) {
	fmt.Fprintf(w, "%d\tpackage\t%s\n", p.Line, p.Name)
}

func evalLiteral(t token.Token) (any, error) {
	switch t.Type {
	case token.NUMBER:
		if n, err := strconv.ParseFloat(t.Literal, 64); err == nil {
			return n, nil
		}
		return nil, fmt.Errorf("malformed numeric literal %q", t.Literal)
	case token.STRING:
		return t.Literal, nil
	case token.IDENT:
		switch t.Literal {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return t.Literal, nil
	default:
		return t.Literal, nil
	}
}

func evalLiteralOrVar(t token.Token, s storage.Storage) (any, error) {
	if t.Type == token.IDENT {
		if v, ok := s.Get(t.Literal); ok {
			return v, nil
		}
	}
	return evalLiteral(t)
}
