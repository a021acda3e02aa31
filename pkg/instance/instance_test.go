package instance

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikecovlee/covscript/pkg/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompileAndInterpretRunsStatements(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.csp", "var x = 1\nprint x\n")

	var out bytes.Buffer
	inst := New([]string{dir}, modules.OSFileSystem{}, &out)
	require.NoError(t, inst.Compile(path))
	require.NoError(t, inst.Interpret())
	assert.Contains(t, out.String(), "1")
}

func TestFileBuffSizingMatchesSourceLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.csp", "var x = 1\nvar y = 2\nprint x\n")

	var out bytes.Buffer
	inst := New([]string{dir}, modules.OSFileSystem{}, &out)
	require.NoError(t, inst.Compile(path))
	assert.Len(t, inst.Context.Source.Lines(), 4) // trailing newline yields a 4th empty line
}

func TestDumpASTIncludesMetaHeaderAndStatements(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.csp", "print \"hi\"\n")

	var out bytes.Buffer
	inst := New([]string{dir}, modules.OSFileSystem{}, &out)
	require.NoError(t, inst.Compile(path))

	var dump bytes.Buffer
	inst.DumpAST(&dump)
	text := dump.String()
	assert.Contains(t, text, "< Covariant Script AST Dump >")
	assert.Contains(t, text, "< BeginMetaData >")
	assert.Contains(t, text, "< EndMetaData >")
	assert.Contains(t, text, "print")
}

func TestImportResolvesCspPackageAndBindsGlobal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.csp", "package greeter\nvar greeting = 1\n")
	mainPath := writeFile(t, dir, "main.csp", "import greeter\n")

	var out bytes.Buffer
	inst := New([]string{dir}, modules.OSFileSystem{}, &out)
	require.NoError(t, inst.Compile(mainPath))
	require.NoError(t, inst.Interpret())

	v, ok := inst.Storage.Get("greeter")
	require.True(t, ok)
	ext, ok := v.(*modules.Extension)
	require.True(t, ok)
	assert.NotNil(t, ext.PackageGlobal)
	assert.Len(t, inst.Refers, 1)
}

func TestImportRejectsMismatchedPackageName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.csp", "package notgreeter\n")
	mainPath := writeFile(t, dir, "main.csp", "import greeter\n")

	var out bytes.Buffer
	inst := New([]string{dir}, modules.OSFileSystem{}, &out)
	require.NoError(t, inst.Compile(mainPath))
	err := inst.Interpret()
	assert.Error(t, err)
}

func TestImportMissingFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	mainPath := writeFile(t, dir, "main.csp", "import nosuchmodule\n")

	var out bytes.Buffer
	inst := New([]string{dir}, modules.OSFileSystem{}, &out)
	require.NoError(t, inst.Compile(mainPath))
	err := inst.Interpret()
	require.Error(t, err)
}

func TestCompileMissingFileReturnsFatalError(t *testing.T) {
	var out bytes.Buffer
	inst := New([]string{"."}, modules.OSFileSystem{}, &out)
	err := inst.Compile("/no/such/path.csp")
	assert.Error(t, err)
}
