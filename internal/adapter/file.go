package adapter

import (
	"context"
	"fmt"
	"io"
	"os"

	"nmapgraph/internal/codec"
	"nmapgraph/internal/scandoc"
)

// StdinPath selects standard input as a FileSource path
const StdinPath = "-"

// FileSource reads a saved scan from a file or standard input
type FileSource struct {
	path     string
	importer codec.Importer
	stdin    io.Reader
}

// NewFileSource creates a source for path in the given input format
// ("xml" or "json"). A path of "-" or "" reads standard input.
func NewFileSource(path, format string) (*FileSource, error) {
	importer, err := codec.ImporterFor(format)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = StdinPath
	}
	return &FileSource{path: path, importer: importer, stdin: os.Stdin}, nil
}

// WithStdin replaces the reader used for standard input
func (f *FileSource) WithStdin(r io.Reader) *FileSource {
	f.stdin = r
	return f
}

// Name returns the adapter identifier
func (f *FileSource) Name() string {
	return "file:" + f.path
}

// Scan parses the whole input. Cancellation is checked before reading.
func (f *FileSource) Scan(ctx context.Context) (*scandoc.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if f.path == StdinPath {
		return f.importer.Parse(f.stdin)
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open scan file: %w", err)
	}
	defer file.Close()

	return f.importer.Parse(file)
}
