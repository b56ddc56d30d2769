package codec

import (
	"fmt"
	"io"
	"sort"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

// Importer interface for reading scan documents from various formats
type Importer interface {
	Parse(r io.Reader) (*scandoc.Document, error)
	Format() string
}

// Exporter interface for writing entity batches to various formats
type Exporter interface {
	Export(entities []domain.HostEntity, w io.Writer) error
	Format() string
}

var (
	importers = map[string]Importer{}
	exporters = map[string]Exporter{}
)

func init() {
	for _, imp := range []Importer{NewXMLCodec(), NewJSONCodec()} {
		importers[imp.Format()] = imp
	}
	for _, exp := range []Exporter{NewJSONCodec(), NewYAMLCodec()} {
		exporters[exp.Format()] = exp
	}
}

// ImporterFor returns the importer registered for format
func ImporterFor(format string) (Importer, error) {
	imp, ok := importers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported input format %q (want one of %v)", format, keys(importers))
	}
	return imp, nil
}

// ExporterFor returns the exporter registered for format
func ExporterFor(format string) (Exporter, error) {
	exp, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format %q (want one of %v)", format, keys(exporters))
	}
	return exp, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
