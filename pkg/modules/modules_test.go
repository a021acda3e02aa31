package modules

import (
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapFS adapts an fstest.MapFS to this package's FS contract.
type mapFS struct {
	fstest.MapFS
}

func (m mapFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(m.MapFS, name)
}

func (m mapFS) Open(name string) (fs.File, error) {
	return m.MapFS.Open(name)
}

func TestSplitImportPathPreservesEmptyEntries(t *testing.T) {
	parts := SplitImportPath("")
	assert.Equal(t, []string{""}, parts)
}

func TestSplitImportPathMultipleDirs(t *testing.T) {
	sep := string(filepath.ListSeparator)
	parts := SplitImportPath("a" + sep + "b" + sep + "c")
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}

func TestResolvePrefersCspOverCseInSameDirectory(t *testing.T) {
	fsys := mapFS{fstest.MapFS{
		"dir/mymodule.csp": {Data: []byte("package mymodule")},
		"dir/mymodule.cse": {Data: []byte{0x01}},
	}}
	res, err := Resolve(fsys, []string{"dir"}, "mymodule")
	require.NoError(t, err)
	assert.Equal(t, KindScript, res.Kind)
	assert.Equal(t, "dir/mymodule.csp", res.Path)
}

func TestResolveEarlierDirectoryWins(t *testing.T) {
	fsys := mapFS{fstest.MapFS{
		"first/mymodule.csp":  {Data: []byte("package mymodule")},
		"second/mymodule.csp": {Data: []byte("package mymodule")},
	}}
	res, err := Resolve(fsys, []string{"first", "second"}, "mymodule")
	require.NoError(t, err)
	assert.Equal(t, "first/mymodule.csp", res.Path)
}

func TestResolveFallsBackToCse(t *testing.T) {
	fsys := mapFS{fstest.MapFS{
		"dir/plugin.cse": {Data: []byte{0x01, 0x02}},
	}}
	res, err := Resolve(fsys, []string{"dir"}, "plugin")
	require.NoError(t, err)
	assert.Equal(t, KindExtension, res.Kind)
}

func TestResolveNotFound(t *testing.T) {
	fsys := mapFS{fstest.MapFS{}}
	_, err := Resolve(fsys, []string{"dir"}, "missing")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestOpaqueFileLoaderRejectsEmptyFile(t *testing.T) {
	fsys := mapFS{fstest.MapFS{
		"dir/empty.cse": {Data: []byte{}},
	}}
	loader := OpaqueFileLoader{FS: fsys}
	_, err := loader.Load("dir/empty.cse")
	require.Error(t, err)
}

func TestOpaqueFileLoaderAcceptsNonEmptyFile(t *testing.T) {
	fsys := mapFS{fstest.MapFS{
		"dir/plugin.cse": {Data: []byte{0x01}},
	}}
	loader := OpaqueFileLoader{FS: fsys}
	ext, err := loader.Load("dir/plugin.cse")
	require.NoError(t, err)
	assert.Equal(t, "dir/plugin.cse", ext.OpaquePath)
}
