// Package repl implements the REPL line-assembly state machine: a pre-pass
// scanner that recognizes comments, `@begin`/`@end` directives and code, and
// a block-assembly dispatch table that groups consecutive lines into a
// single statement once a block's matching `end` is seen.
package repl

import (
	"fmt"
	"strings"

	"github.com/mikecovlee/covscript/pkg/ast"
	"github.com/mikecovlee/covscript/pkg/cserr"
	"github.com/mikecovlee/covscript/pkg/instance"
	"github.com/mikecovlee/covscript/pkg/source"
	"github.com/mikecovlee/covscript/pkg/token"
	"github.com/mikecovlee/covscript/pkg/translator"
)

// REPL holds the state a persistent interactive session accumulates
// between lines: how deep into an open block it is, the tokens gathered so
// far for that block, whether an `@begin`/`@end` directive pair is open,
// and the running line counter used for error reporting.
type REPL struct {
	Instance *instance.Instance

	level      int
	method     *translator.Method
	tmp        [][]token.Token
	blockStart int
	multiLine  bool
	lineBuff  strings.Builder
	cmdBuff   strings.Builder
	lineNum   int
}

// New wraps inst in a fresh REPL, matching the original's repl object
// holding a back-reference to its owning instance/context.
func New(inst *instance.Instance) *REPL {
	return &REPL{Instance: inst}
}

// Level reports the current block nesting depth, used by the driver to
// render the "...> " prompt indent (repl.get_level() * 2 in the original).
func (r *REPL) Level() int {
	return r.level
}

// Exec is the pre-pass scanner (repl::exec): it classifies one line of
// input as a comment, a directive, or code, and either records it into the
// file buffer immediately or accumulates it for a later @end.
func (r *REPL) Exec(code string) error {
	r.lineNum++
	mode := 0
	r.cmdBuff.Reset()
	for _, ch := range code {
		switch mode {
		case 0:
			if isSpace(ch) {
				continue
			}
			switch ch {
			case '#':
				r.appendFileBuff("")
				return nil
			case '@':
				mode = 1
			default:
				mode = -1
			}
		case 1:
			if !isSpace(ch) {
				r.cmdBuff.WriteRune(ch)
			}
		default:
			// mode == -1: plain code, stop scanning further meaning out of
			// the line, the whole thing is handled below as code.
		}
		if mode == -1 {
			break
		}
	}
	switch mode {
	case 0:
		r.appendFileBuff("")
		return nil
	case 1:
		// Every non-whitespace rune after '@' was collected, so trailing text
		// joins the directive token: `@begin extra` reads as "beginextra"
		// and is rejected below.
		cmd := r.cmdBuff.String()
		r.cmdBuff.Reset()
		switch {
		case cmd == "begin" && !r.multiLine:
			r.multiLine = true
			r.appendFileBuff("")
			return nil
		case cmd == "end" && r.multiLine:
			r.multiLine = false
			buffered := r.lineBuff.String()
			r.lineBuff.Reset()
			return r.Run(buffered)
		default:
			return fmt.Errorf("line %d: wrong grammar for preprocessor command %q", r.lineNum, cmd)
		}
	}
	if r.multiLine {
		r.appendFileBuff("")
		r.lineBuff.WriteString(code)
		r.lineBuff.WriteByte('\n')
		return nil
	}
	r.appendFileBuff(code)
	return r.Run(code)
}

// Run is repl::run: tokenize one logical line, match it against the
// translator's grammar table, and dispatch according to the matched
// method's type according to the dispatch table below.
func (r *REPL) Run(code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	tokens, err := r.Instance.Compiler.BuildLine(code)
	if err != nil {
		r.ResetStatus()
		return cserr.Wrap(cserr.Position{Line: r.lineNum, File: r.Instance.FilePath(), Source: r.Instance.Context.Source}, err)
	}

	m, err := r.Instance.Translator.Match(tokens)
	if err != nil {
		r.ResetStatus()
		return err
	}

	var stmt ast.Statement
	switch m.Type {
	case translator.MethodNull:
		r.ResetStatus()
		return fmt.Errorf("line %d: null type of grammar", r.lineNum)

	case translator.MethodSingle:
		if r.level > 0 {
			if m.Target == translator.TargetEnd {
				if err := r.Instance.Storage.RemoveSet(); err != nil {
					r.ResetStatus()
					return err
				}
				if err := r.Instance.Storage.RemoveDomain(); err != nil {
					r.ResetStatus()
					return err
				}
				r.level--
			}
			if r.level == 0 {
				s, err := r.Instance.Translator.Translate(r.tmp, r.Instance, r.blockStart)
				if err != nil {
					r.ResetStatus()
					return err
				}
				stmt = s
				r.tmp = nil
				r.method = nil
			} else {
				r.tmp = append(r.tmp, tokens)
			}
		} else {
			if m.Target == translator.TargetEnd {
				r.ResetStatus()
				return fmt.Errorf("line %d: hanging end statement", r.lineNum)
			}
			s, err := r.Instance.Translator.Translate([][]token.Token{tokens}, r.Instance, r.lineNum)
			if err != nil {
				r.ResetStatus()
				return err
			}
			stmt = s
		}

	case translator.MethodBlock:
		if r.level == 0 {
			r.method = m
			r.blockStart = r.lineNum
		}
		r.level++
		r.Instance.Storage.AddDomain()
		r.Instance.Storage.AddSet()
		r.tmp = append(r.tmp, tokens)

	case translator.MethodJIT:
		if err := r.Instance.Translator.RunJIT(tokens); err != nil {
			r.ResetStatus()
			return err
		}
	}

	if stmt != nil {
		if err := stmt.ReplRun(r.Instance.Storage); err != nil {
			r.ResetStatus()
			if le, ok := err.(*cserr.LanguageError); ok {
				return cserr.NewFatal("Uncaught exception: %s", le.Message())
			}
			if _, ok := err.(cserr.CovError); ok {
				return err
			}
			return cserr.Wrap(cserr.Position{Line: r.lineNum, File: r.Instance.FilePath(), Source: r.Instance.Context.Source}, err)
		}
	}
	r.Instance.Compiler.MarkConstant()
	return nil
}

// ResetStatus clears only the REPL's own bookkeeping. It deliberately does
// not rebalance storage domains/sets left open by an unfinished block; that
// is CleanupContext's job, called separately by the driver on SIGINT — see
// the Open Question decision in DESIGN.md.
func (r *REPL) ResetStatus() {
	r.level = 0
	r.method = nil
	r.tmp = nil
	r.multiLine = false
	r.lineBuff.Reset()
	r.cmdBuff.Reset()
}

func (r *REPL) appendFileBuff(line string) {
	if r.Instance.Context.Source == nil {
		r.Instance.Context.Source = source.NewReplSource("")
	}
	r.Instance.Context.Source.AppendLine(line)
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}
