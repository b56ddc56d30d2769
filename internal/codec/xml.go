package codec

import (
	"bytes"
	"fmt"
	"io"

	"nmapgraph/internal/scandoc"
)

// XMLCodec reads nmap's XML output (nmap -oX)
type XMLCodec struct{}

// NewXMLCodec creates a new XML codec
func NewXMLCodec() *XMLCodec {
	return &XMLCodec{}
}

// Format returns the codec format identifier
func (c *XMLCodec) Format() string {
	return "xml"
}

// Parse reads a scan document from XML. Comment lines are dropped first.
func (c *XMLCodec) Parse(r io.Reader) (*scandoc.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read XML: %w", err)
	}

	doc, err := scandoc.DecodeXML(bytes.NewReader(scandoc.StripComments(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return doc, nil
}
