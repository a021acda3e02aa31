// Package source holds the raw text of a CovScript file or REPL line and
// the small amount of bookkeeping (display name, cached line split) that
// the rest of the driver needs to report locations back to the user.
package source

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SourceFile represents a source file with its content and metadata.
type SourceFile struct {
	Name    string // display name (e.g. "main.csp", "<repl>", "<eval>")
	Path    string // full file path (empty for REPL/eval)
	Content string // the source code content, BOM already stripped
	lines   []string
}

// NewSourceFile creates a new source file.
func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{Name: name, Path: path, Content: content}
}

// NewEvalSource creates a source file for eval input.
func NewEvalSource(content string) *SourceFile {
	return &SourceFile{Name: "<eval>", Content: content}
}

// NewReplSource creates a source file for a single REPL line.
func NewReplSource(content string) *SourceFile {
	return &SourceFile{Name: "<repl>", Content: content}
}

// NewStdinSource creates a source file for stdin input.
func NewStdinSource(content string) *SourceFile {
	return &SourceFile{Name: "<stdin>", Content: content}
}

// Lines returns the source split into lines, caching the split.
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// Line returns the 1-indexed line, matching the file_buff.at(line_num - 1)
// access pattern of the original instance.
func (sf *SourceFile) Line(n int) string {
	lines := sf.Lines()
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// AppendLine appends a line to Content (REPL/file-buffer growth) and
// invalidates the cached split so the next Lines() call re-splits.
func (sf *SourceFile) AppendLine(line string) {
	sf.Content += line + "\n"
	sf.lines = nil
}

// DisplayPath returns the best path for display.
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// IsFile reports whether this source represents an actual file on disk.
func (sf *SourceFile) IsFile() bool {
	return sf.Path != ""
}

// FromFile creates a SourceFile from a file path and already-read content.
func FromFile(filePath, content string) *SourceFile {
	return NewSourceFile(filepath.Base(filePath), filePath, content)
}

// ReadFile reads path and decodes a leading UTF-8 BOM if present, so a
// FileBuff built from an editor-saved script never carries a stray marker
// on its first line. The original C++ reader pulls raw bytes and has no
// such handling; this is one of the few places this driver improves on it
// rather than merely reproducing it.
func ReadFile(path string) (*SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	raw, err := io.ReadAll(transform.NewReader(f, decoder))
	if err != nil {
		return nil, err
	}
	return FromFile(path, string(raw)), nil
}
