// Package instance implements the Instance lifecycle: compiling a source
// file into statements, running them, dumping the AST, and resolving
// `import` against the module search path. It is the one package that wires
// the lexer/translator/storage/modules contracts together into something
// runnable.
package instance

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mikecovlee/covscript/pkg/ast"
	"github.com/mikecovlee/covscript/pkg/cserr"
	"github.com/mikecovlee/covscript/pkg/lexer"
	"github.com/mikecovlee/covscript/pkg/modules"
	"github.com/mikecovlee/covscript/pkg/source"
	"github.com/mikecovlee/covscript/pkg/storage"
	"github.com/mikecovlee/covscript/pkg/token"
	"github.com/mikecovlee/covscript/pkg/translator"
)

const (
	version         = "1.0"
	stdVersion      = "1.0"
	outputPrecision = 10
)

// Context holds everything a running statement needs to know about where
// it came from: the file it was read from, its declared package name (if
// any), and the source text those line numbers index into.
type Context struct {
	FilePath    string
	PackageName string
	Source      *source.SourceFile

	inst *Instance
}

func (c *Context) RawCode(line int) string {
	if c.Source == nil {
		return ""
	}
	return c.Source.Line(line)
}

// Instance owns a Context, its compiled statements, and the child
// instances created by import, keeping their storage alive for the
// lifetime of this Instance (Refers, matching the original's refers deque).
type Instance struct {
	Context    *Context
	Statements []ast.Statement
	Refers     []*Instance
	Storage    storage.Storage

	Compiler   lexer.Compiler
	Translator translator.Translator
	ImportPath []string
	ExtLoader  modules.ExtensionLoader
	FS         modules.FS

	Out io.Writer

	// SigCh, when set by the driver, is polled once per statement during
	// Interpret so a SIGINT delivered while a script is running unwinds the
	// interpreter loop instead of being observed only between REPL lines.
	SigCh <-chan os.Signal
}

// New builds an Instance ready to Compile or run REPL lines against. The
// caller supplies the search path and output sink; everything else is
// wired to sensible defaults matching the rest of this package's contracts.
func New(importPath []string, fsys modules.FS, out io.Writer) *Instance {
	ctx := &Context{Source: source.NewEvalSource("")}
	inst := &Instance{
		Context:    ctx,
		Storage:    storage.New(),
		Compiler:   lexer.New(),
		ImportPath: importPath,
		FS:         fsys,
		Out:        out,
	}
	ctx.inst = inst
	inst.ExtLoader = modules.OpaqueFileLoader{FS: fsys}
	inst.Translator = translator.New(inst, inst, out)
	return inst
}

// FilePath and PackageName implement ast.Locator by delegating to Context,
// so Instance itself can stand in as the Locator for its top-level statements.
func (i *Instance) FilePath() string        { return i.Context.FilePath }
func (i *Instance) PackageName() string     { return i.Context.PackageName }
func (i *Instance) RawCode(line int) string { return i.Context.RawCode(line) }

// SetPackageName implements ast.PackageSetter for a `package` statement.
func (i *Instance) SetPackageName(name string) { i.Context.PackageName = name }

// Compile reads path, tokenizes and translates it into i.Statements. It
// mirrors instance_type::compile: read the whole file, build_ast,
// translate, mark_constant.
func (i *Instance) Compile(path string) error {
	sf, err := source.ReadFile(path)
	if err != nil {
		return cserr.NewFatal("%s: No such file or directory", path)
	}
	i.Context.FilePath = path
	i.Context.Source = sf

	lines, err := i.Compiler.BuildAST(sf.Content)
	if err != nil {
		return cserr.NewFatal("%s", err)
	}

	statements, err := translateLines(i.Translator, lines, i)
	if err != nil {
		return cserr.NewFatal("%s", err)
	}
	i.Statements = statements
	i.Compiler.MarkConstant()
	return nil
}

// translateLines groups consecutive lines belonging to a single block
// together before handing them to Translate, matching the file-mode
// counterpart of the REPL's block-assembly logic: a block-opening method
// accumulates every line up to and including its matching `end` before the
// whole group is translated as one BlockStatement.
func translateLines(t translator.Translator, lines [][]token.Token, loc ast.Locator) ([]ast.Statement, error) {
	var statements []ast.Statement
	i := 0
	for i < len(lines) {
		line := lines[i]
		lineNum := 1
		if len(line) > 0 {
			lineNum = line[0].Line
		}
		m, err := t.Match(line)
		if err != nil {
			return nil, err
		}
		switch m.Type {
		case translator.MethodNull:
			return nil, fmt.Errorf("line %d: null type of grammar", lineNum)
		case translator.MethodJIT:
			// jit_command has no place in a compiled file; original grammar
			// only ever produces it from REPL-only forms, so file mode
			// simply refuses to match one here as a distinct grammar form.
			return nil, fmt.Errorf("line %d: %q is a REPL-only command", lineNum, m.Keyword)
		case translator.MethodSingle:
			if m.Target == translator.TargetEnd {
				return nil, fmt.Errorf("line %d: hanging end statement", lineNum)
			}
			stmt, err := t.Translate([][]token.Token{line}, loc, lineNum)
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
			i++
		case translator.MethodBlock:
			group := [][]token.Token{line}
			depth := 1
			j := i + 1
			for j < len(lines) && depth > 0 {
				body := lines[j]
				bm, err := t.Match(body)
				if err != nil {
					return nil, err
				}
				group = append(group, body)
				switch bm.Type {
				case translator.MethodBlock:
					depth++
				case translator.MethodSingle:
					if bm.Target == translator.TargetEnd {
						depth--
					}
				}
				j++
			}
			if depth > 0 {
				return nil, fmt.Errorf("line %d: unterminated block", lineNum)
			}
			stmt, err := t.Translate(group, loc, lineNum)
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
			i = j
		}
	}
	return statements, nil
}

// Interpret runs every compiled statement in order, applying the
// three-tier error policy from instance_type::interpret: an escaped
// LanguageError becomes fatal "Uncaught exception: ...", a CovError passes
// through unchanged, and anything else is wrapped with the statement's
// location.
func (i *Instance) Interpret() error {
	for _, stmt := range i.Statements {
		if i.SigCh != nil {
			select {
			case <-i.SigCh:
				return cserr.NewFatal("Keyboard Interrupt (Ctrl+C Received)")
			default:
			}
		}
		err := stmt.Run(i.Storage)
		if err == nil {
			continue
		}
		if le, ok := err.(*cserr.LanguageError); ok {
			return cserr.NewFatal("Uncaught exception: %s", le.Message())
		}
		if _, ok := err.(cserr.CovError); ok {
			return err
		}
		return cserr.Wrap(cserr.Position{
			Line:   stmt.LineNum(),
			File:   stmt.FilePath(),
			Source: i.Context.Source,
		}, err)
	}
	return nil
}

// DumpAST writes the AST dump in the original's exact meta-header shape:
// Version, STD Version, Output Precision, Import Path, Platform.
func (i *Instance) DumpAST(w io.Writer) {
	fmt.Fprintf(w, "< Covariant Script AST Dump >\n< BeginMetaData >\n< Version: %s >\n< STD Version: %s >\n< Output Precision: %d >\n< Import Path: \"%s\" >\n",
		version, stdVersion, outputPrecision, joinImportPath(i.ImportPath))
	fmt.Fprintf(w, "< Platform: %s >\n", platformName())
	fmt.Fprintf(w, "< EndMetaData >\n")
	for _, s := range i.Statements {
		s.Dump(w)
	}
}

// Import resolves name against path (or i.ImportPath when path is empty)
// and either compiles+interprets a .csp package, validating its declared
// package name, or hands back an opaque .cse extension. It matches
// instance_type::import, including leaving cycles undetected: a package
// that imports itself recurses until the Go runtime's stack gives out.
func (i *Instance) Import(path, name string) (any, error) {
	dirs := i.ImportPath
	if path != "" {
		dirs = modules.SplitImportPath(path)
	}
	res, err := modules.Resolve(i.FS, dirs, name)
	if err != nil {
		return nil, cserr.NewFatal("%s", err)
	}
	switch res.Kind {
	case modules.KindScript:
		child := New(i.ImportPath, i.FS, i.Out)
		child.SigCh = i.SigCh
		if err := child.Compile(res.Path); err != nil {
			return nil, err
		}
		if err := child.Interpret(); err != nil {
			return nil, err
		}
		if child.Context.PackageName == "" {
			return nil, cserr.NewLanguage("Target file is not a package.")
		}
		if child.Context.PackageName != name {
			return nil, cserr.NewLanguage("Package name is different from file name.")
		}
		i.Refers = append(i.Refers, child)
		return &modules.Extension{PackageGlobal: child.Storage.GetGlobal()}, nil
	default:
		ext, err := i.ExtLoader.Load(res.Path)
		if err != nil {
			return nil, cserr.NewFatal("%s", err)
		}
		return ext, nil
	}
}

// CleanupContext rebalances storage on an abnormal exit, matching the
// division of labor the original keeps between repl::reset_status (REPL
// bookkeeping only) and the driver's own cleanup on SIGINT/exit.
func CleanupContext(inst *Instance) {
	inst.Storage.Close()
	inst.Storage = storage.New()
}

func joinImportPath(dirs []string) string {
	out := ""
	for i, d := range dirs {
		if i > 0 {
			out += string(filepath.ListSeparator)
		}
		out += d
	}
	return out
}

func platformName() string {
	if runtime.GOOS == "windows" {
		return "Win32"
	}
	return "Unix"
}
