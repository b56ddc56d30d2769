package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

func sampleEntities() []domain.HostEntity {
	return []domain.HostEntity{{
		Key:   "nmap:router.lan::192.168.1.1",
		Type:  domain.EntityTypeNmapHost,
		Class: []string{domain.ClassHost, domain.ClassGateway},
		Properties: domain.Properties{
			domain.PropIPAddress: "192.168.1.1",
			domain.PropOpenPorts: []int{53, 80},
		},
		RawData: json.RawMessage(`{"status":{"state":"up"}}`),
	}}
}

func TestRegistry(t *testing.T) {
	for _, format := range []string{"xml", "json"} {
		imp, err := ImporterFor(format)
		require.NoError(t, err)
		assert.Equal(t, format, imp.Format())
	}
	for _, format := range []string{"json", "yaml"} {
		exp, err := ExporterFor(format)
		require.NoError(t, err)
		assert.Equal(t, format, exp.Format())
	}

	_, err := ImporterFor("yaml")
	assert.ErrorContains(t, err, "[json xml]")
	_, err = ExporterFor("csv")
	assert.Error(t, err)
}

func TestXMLCodec_Parse(t *testing.T) {
	input := "# Nmap 7.94 scan initiated\n<nmaprun args=\"nmap -sn 10.0.0.1\">\n<host><status state=\"up\"/><address addr=\"10.0.0.1\" addrtype=\"ipv4\"/></host>\n</nmaprun>\n# Nmap done\n"

	doc, err := NewXMLCodec().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Hosts(), 1)
	assert.Equal(t, "10.0.0.1", doc.Hosts()[0].Addresses.Items()[0].Addr)
	assert.Equal(t, "nmap -sn 10.0.0.1", doc.Run.Args)
}

func TestXMLCodec_ParseMalformed(t *testing.T) {
	_, err := NewXMLCodec().Parse(strings.NewReader("<nmaprun><host>"))
	assert.ErrorIs(t, err, scandoc.ErrMalformedDocument)
}

func TestJSONCodec_Parse(t *testing.T) {
	input := "# captured from terminal\n{\"nmaprun\": {\"host\": {\"status\": {\"state\": \"up\"}}}}"

	doc, err := NewJSONCodec().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, doc.Hosts(), 1)

	_, err = NewJSONCodec().Parse(strings.NewReader(`{"other": {}}`))
	assert.ErrorIs(t, err, scandoc.ErrMalformedDocument)
}

func TestJSONCodec_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(sampleEntities(), &buf))

	assert.JSONEq(t, `[{
		"entityKey": "nmap:router.lan::192.168.1.1",
		"entityType": "nmap_discovered_host",
		"entityClass": ["Host", "Gateway"],
		"properties": {"ipAddress": "192.168.1.1", "openPorts": [53, 80]},
		"rawData": {"status": {"state": "up"}}
	}]`, buf.String())

	buf.Reset()
	require.NoError(t, NewJSONCodec().Export(nil, &buf))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestYAMLCodec_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(sampleEntities(), &buf))

	assert.NotContains(t, buf.String(), "rawData")
	assert.Contains(t, buf.String(), "entityClass: [Host, Gateway]")

	var decoded yamlBatch
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Entities, 1)
	assert.Equal(t, "nmap:router.lan::192.168.1.1", decoded.Entities[0].Key)
	assert.Equal(t, "192.168.1.1", decoded.Entities[0].Properties["ipAddress"])
	assert.Equal(t, []any{53, 80}, decoded.Entities[0].Properties["openPorts"])
}
