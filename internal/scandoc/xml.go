package scandoc

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// textKey holds element text when the element also has attributes or children
const textKey = "_"

// xmlElement is one element while its subtree is being read
type xmlElement struct {
	name  string
	value map[string]any
	text  strings.Builder
}

// DecodeXML reads nmap XML output and converts it to a Document.
//
// Elements become objects with their attributes merged in. A child that
// occurs once stays a single value and only repeated children become
// sequences, so the result carries the same shape ambiguity as any other
// producer of the object form.
func DecodeXML(r io.Reader) (*Document, error) {
	tree, err := parseXMLTree(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return Unmarshal(data)
}

// parseXMLTree converts an XML stream into nested maps, strings and slices
func parseXMLTree(r io.Reader) (map[string]any, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true

	var stack []*xmlElement
	var root map[string]any

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{name: t.Name.Local, value: make(map[string]any)}
			for _, attr := range t.Attr {
				appendValue(el.value, attr.Name.Local, attr.Value)
			}
			stack = append(stack, el)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing tag </%s>", t.Name.Local)
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			value := el.finish()
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = map[string]any{el.name: value}
				continue
			}
			appendValue(stack[len(stack)-1].value, el.name, value)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].name)
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

// finish collapses an element to a string when it has only text
func (e *xmlElement) finish() any {
	text := strings.TrimSpace(e.text.String())
	if len(e.value) == 0 {
		return text
	}
	if text != "" {
		appendValue(e.value, textKey, text)
	}
	return e.value
}

// appendValue stores v under key, turning the slot into a sequence on repeat
func appendValue(m map[string]any, key string, v any) {
	existing, ok := m[key]
	if !ok {
		m[key] = v
		return
	}
	if seq, ok := existing.([]any); ok {
		m[key] = append(seq, v)
		return
	}
	m[key] = []any{existing, v}
}
