// Package modules implements the import path resolver: split an import path
// on the platform list separator, probe each directory for a script package
// (.csp) then a precompiled extension (.cse), and return whichever is found
// first, .csp winning over .cse within the same directory and earlier
// directories winning over later ones.
package modules

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem abstraction resolution runs against, mirroring the
// teacher's ModuleFS/osFS split so search-path ordering is testable with an
// in-memory fstest.MapFS instead of real files.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (fs.File, error)
}

// OSFileSystem is the default FS backed by the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (OSFileSystem) Open(name string) (fs.File, error)     { return os.Open(name) }

const (
	scriptExt     = ".csp"
	extensionExt  = ".cse"
)

// Kind identifies which of the two file forms Resolve found.
type Kind int

const (
	KindScript Kind = iota
	KindExtension
)

// Result is what Resolve returns on success.
type Result struct {
	Kind Kind
	Path string // full path including extension
}

// SplitImportPath splits an import path on the OS list separator, matching
// the original's cs::path_delimiter split (';' on Windows, ':' elsewhere,
// modeled here with filepath.ListSeparator). Empty entries are preserved,
// matching the original's plain char-by-char split.
func SplitImportPath(path string) []string {
	sep := string(filepath.ListSeparator)
	if path == "" {
		return []string{""}
	}
	var out []string
	start := 0
	for i := 0; i < len(path); i++ {
		if string(path[i]) == sep {
			out = append(out, path[start:i])
			start = i + 1
		}
	}
	out = append(out, path[start:])
	return out
}

// Resolve probes dirs in order for name, checking name+".csp" before
// name+".cse" within each directory, and returns the first hit. Directories
// come from SplitImportPath(importPath) joined with the caller's own
// current directory conventions.
func Resolve(fsys FS, dirs []string, name string) (*Result, error) {
	for _, dir := range dirs {
		base := filepath.Join(dir, name)
		scriptPath := base + scriptExt
		if info, err := fsys.Stat(scriptPath); err == nil && !info.IsDir() {
			return &Result{Kind: KindScript, Path: scriptPath}, nil
		}
		extPath := base + extensionExt
		if info, err := fsys.Stat(extPath); err == nil && !info.IsDir() {
			return &Result{Kind: KindExtension, Path: extPath}, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// NotFoundError matches the original's fatal_error("No such file or directory.").
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string { return "No such file or directory." }

// Extension is what a successful import resolves to: either the global
// scope of an interpreted .csp package, or an opaque handle to a .cse blob.
type Extension struct {
	PackageGlobal map[string]any // non-nil for a .csp import
	OpaquePath    string         // non-empty for a .cse import
}

// ExtensionLoader is the seam where a real .cse loader (bytecode, WASM via
// wazero, ...) would plug in. The format is opaque to this core, so the
// shipped default only validates the file opens and is non-empty; it never
// inspects the blob's contents.
type ExtensionLoader interface {
	Load(path string) (*Extension, error)
}

// OpaqueFileLoader is the default ExtensionLoader.
type OpaqueFileLoader struct {
	FS FS
}

func (l OpaqueFileLoader) Load(path string) (*Extension, error) {
	f, err := l.FS.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, &NotFoundError{Name: path}
	}
	return &Extension{OpaquePath: path}, nil
}
