// Package buffer holds the text being viewed: an ordered, read-only list of
// lines loaded from a file.
package buffer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LoadErrorKind classifies why a file could not be loaded.
type LoadErrorKind int

const (
	LoadNotFound LoadErrorKind = iota
	LoadIO
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadNotFound:
		return "not found"
	default:
		return "io"
	}
}

type LoadError struct {
	Kind LoadErrorKind
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Buffer is immutable once loaded. The zero value is the empty buffer.
type Buffer struct {
	name  string
	lines []string
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Load reads name fully and splits it into lines. Line terminators are
// stripped; a final terminator does not add an empty line.
func Load(name string) (*Buffer, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		kind := LoadIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = LoadNotFound
		}
		return nil, &LoadError{Kind: kind, Name: name, Err: err}
	}
	return &Buffer{name: name, lines: splitLines(string(data))}, nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func (b *Buffer) Name() string {
	return b.name
}

func (b *Buffer) IsEmpty() bool {
	return len(b.lines) == 0
}

func (b *Buffer) Len() int {
	return len(b.lines)
}

// Line returns line i, or false when i is out of range.
func (b *Buffer) Line(i int) (string, bool) {
	if i < 0 || i >= len(b.lines) {
		return "", false
	}
	return b.lines[i], true
}
