package scandoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// ErrMalformedDocument is returned when the input cannot be understood as a
// scan document at all. Per-host problems never produce it.
var ErrMalformedDocument = errors.New("malformed scan document")

var commentLine = regexp.MustCompile(`(?m)^#.+$`)

// StripComments blanks out lines starting with '#', which nmap writes
// around its XML when output is captured from a terminal.
func StripComments(data []byte) []byte {
	return commentLine.ReplaceAll(data, nil)
}

// Decode reads a document already in object form (JSON)
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses a document already in object form (JSON)
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.Run == nil {
		return nil, fmt.Errorf("%w: missing nmaprun root", ErrMalformedDocument)
	}
	return &doc, nil
}

// Hosts returns every host node of the document in order
func (d *Document) Hosts() []Host {
	if d == nil || d.Run == nil {
		return nil
	}
	return d.Run.Hosts.Items()
}
