package translator

import (
	"bytes"
	"testing"

	"github.com/mikecovlee/covscript/pkg/ast"
	"github.com/mikecovlee/covscript/pkg/lexer"
	"github.com/mikecovlee/covscript/pkg/storage"
	"github.com/mikecovlee/covscript/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImporter struct{}

func (fakeImporter) Import(path, name string) (any, error) { return nil, nil }

type fakeSetter struct{ name string }

func (f *fakeSetter) SetPackageName(name string) { f.name = name }

type fakeLocator struct{}

func (fakeLocator) FilePath() string    { return "<test>" }
func (fakeLocator) PackageName() string { return "" }
func (fakeLocator) RawCode(int) string  { return "" }

func newTranslator(out *bytes.Buffer) (*CovTranslator, *fakeSetter) {
	setter := &fakeSetter{}
	return New(fakeImporter{}, setter, out), setter
}

func tokenize(t *testing.T, line string) []token.Token {
	t.Helper()
	l := lexer.New()
	toks, err := l.BuildLine(line)
	require.NoError(t, err)
	return toks
}

func wrap(toks []token.Token) [][]token.Token {
	return [][]token.Token{toks}
}

func TestMatchRecognizesEachGrammarForm(t *testing.T) {
	var out bytes.Buffer
	tr, _ := newTranslator(&out)

	cases := map[string]MethodType{
		`end`:         MethodSingle,
		`import foo`:  MethodSingle,
		`print "hi"`:  MethodSingle,
		`var x = 1`:   MethodSingle,
		`package foo`: MethodSingle,
		`block`:       MethodBlock,
		`if`:          MethodBlock,
		`help`:        MethodJIT,
		`cls`:         MethodJIT,
		`frobnicate`:  MethodNull,
	}
	for line, want := range cases {
		toks := tokenize(t, line)
		m, err := tr.Match(toks)
		require.NoError(t, err)
		assert.Equal(t, want, m.Type, "line %q", line)
	}
}

func TestMatchEndHasTargetEnd(t *testing.T) {
	var out bytes.Buffer
	tr, _ := newTranslator(&out)
	toks := tokenize(t, "end")
	m, err := tr.Match(toks)
	require.NoError(t, err)
	assert.Equal(t, TargetEnd, m.Target)
}

func TestTranslatePrintProducesRunnableStatement(t *testing.T) {
	var out bytes.Buffer
	tr, _ := newTranslator(&out)
	toks := tokenize(t, `print "hello"`)
	stmt, err := tr.Translate(wrap(toks), fakeLocator{}, 1)
	require.NoError(t, err)

	store := storage.New()
	require.NoError(t, stmt.ReplRun(store))
	assert.Contains(t, out.String(), "hello")
}

func TestTranslatePackageCallsSetter(t *testing.T) {
	var out bytes.Buffer
	tr, setter := newTranslator(&out)
	toks := tokenize(t, "package greeter")
	stmt, err := tr.Translate(wrap(toks), fakeLocator{}, 1)
	require.NoError(t, err)

	store := storage.New()
	require.NoError(t, stmt.ReplRun(store))
	assert.Equal(t, "greeter", setter.name)
}

func TestTranslateBlockGroupsBodyExcludingEnd(t *testing.T) {
	var out bytes.Buffer
	tr, _ := newTranslator(&out)
	head := tokenize(t, "block")
	body := tokenize(t, `print "inside"`)
	end := tokenize(t, "end")

	stmt, err := tr.Translate([][]token.Token{head, body, end}, fakeLocator{}, 1)
	require.NoError(t, err)
	block, ok := stmt.(*ast.BlockStatement)
	require.True(t, ok)
	assert.Len(t, block.Children, 1)
}

func TestTranslateUnrecognizedFormIsAnError(t *testing.T) {
	var out bytes.Buffer
	tr, _ := newTranslator(&out)
	toks := tokenize(t, "frobnicate")
	_, err := tr.Translate(wrap(toks), fakeLocator{}, 1)
	assert.Error(t, err)
}
