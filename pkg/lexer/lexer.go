// Package lexer is the external "compiler" collaborator declared in the
// spec's contracts: it turns raw source text into token lines that
// pkg/translator turns into statements. CovScript's real grammar is out of
// scope for this driver (see pkg/ast), so this tokenizer is intentionally
// small: identifiers, numbers, strings, braces, and runs of punctuation as
// generic operators.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mikecovlee/covscript/pkg/token"
)

// Compiler is the contract Instance and the REPL drive: build_ast/build_line
// from the original, plus mark_constant, a no-op hook here since constant
// folding is explicitly out of scope but the call site is kept so a fuller
// compiler can be dropped in later.
type Compiler interface {
	// BuildAST tokenizes a whole file into one token line per source line.
	BuildAST(src string) ([][]token.Token, error)
	// BuildLine tokenizes a single REPL line.
	BuildLine(line string) ([]token.Token, error)
	// MarkConstant is invoked once per compile/repl-eval, mirroring the
	// original's post-translate constant-folding pass.
	MarkConstant()
}

// Lexer is the default, minimal Compiler implementation.
type Lexer struct{}

// New returns a ready-to-use Lexer.
func New() *Lexer { return &Lexer{} }

func (l *Lexer) BuildAST(src string) ([][]token.Token, error) {
	lines := strings.Split(src, "\n")
	ast := make([][]token.Token, 0, len(lines))
	for i, raw := range lines {
		toks, err := l.tokenizeLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if len(toks) == 0 {
			continue
		}
		ast = append(ast, toks)
	}
	return ast, nil
}

func (l *Lexer) BuildLine(line string) ([]token.Token, error) {
	return l.tokenizeLine(line, 1)
}

func (l *Lexer) MarkConstant() {}

func (l *Lexer) tokenizeLine(raw string, lineNum int) ([]token.Token, error) {
	runes := []rune(raw)
	var toks []token.Token
	i := 0
	for i < len(runes) {
		ch := runes[i]
		col := i + 1
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '#':
			// comment runs to end of line; nothing further on this line
			// participates in translation.
			return toks, nil
		case ch == '{':
			toks = append(toks, token.Token{Type: token.LBRACE, Literal: "{", Line: lineNum, Column: col})
			i++
		case ch == '}':
			toks = append(toks, token.Token{Type: token.RBRACE, Literal: "}", Line: lineNum, Column: col})
			i++
		case ch == '"' || ch == '\'':
			lit, n, err := scanString(runes[i:], ch)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			toks = append(toks, token.Token{Type: token.STRING, Literal: lit, Line: lineNum, Column: col})
			i += n
		case unicode.IsDigit(ch):
			lit, n := scanWhile(runes[i:], func(r rune) bool {
				return unicode.IsDigit(r) || r == '.'
			})
			toks = append(toks, token.Token{Type: token.NUMBER, Literal: lit, Line: lineNum, Column: col})
			i += n
		case isIdentStart(ch):
			lit, n := scanWhile(runes[i:], isIdentPart)
			toks = append(toks, token.Token{Type: token.IDENT, Literal: lit, Line: lineNum, Column: col})
			i += n
		default:
			lit, n := scanWhile(runes[i:], isOpChar)
			if n == 0 {
				// unrecognized single rune, still make forward progress
				lit, n = string(ch), 1
			}
			toks = append(toks, token.Token{Type: token.OP, Literal: lit, Line: lineNum, Column: col})
			i += n
		}
	}
	return toks, nil
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isOpChar(r rune) bool {
	switch r {
	case '{', '}', '"', '\'', '#':
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func scanWhile(runes []rune, pred func(rune) bool) (string, int) {
	n := 0
	for n < len(runes) && pred(runes[n]) {
		n++
	}
	return string(runes[:n]), n
}

func scanString(runes []rune, quote rune) (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(runes) {
		if runes[i] == quote {
			return b.String(), i + 1, nil
		}
		if runes[i] == '\\' && i+1 < len(runes) {
			b.WriteRune(runes[i+1])
			i += 2
			continue
		}
		b.WriteRune(runes[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}
