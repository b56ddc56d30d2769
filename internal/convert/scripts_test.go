package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nmapgraph/internal/scandoc"
)

func TestParseAFPServerInfo(t *testing.T) {
	tests := []struct {
		name   string
		script scandoc.Script
		want   afpServerInfo
		wantOK bool
	}{
		{
			name:   "full listing",
			script: scandoc.Script{Output: "Server Name: MAC-mini\nMachine Type: Macmini7,1\nNetwork Addresses:\n  afpserver/MAC-mini.local"},
			want:   afpServerInfo{AFPServerName: "MAC-mini.local", ServerName: "MAC-mini", MachineType: "Macmini7,1"},
			wantOK: true,
		},
		{
			name:   "boolean server name rejected",
			script: scandoc.Script{Output: "Supports Server Name: true"},
		},
		{
			name:   "boolean prefix skipped for later match",
			script: scandoc.Script{Output: "Server Name: TRUE\nServer Name: office-mac"},
			want:   afpServerInfo{ServerName: "office-mac"},
			wantOK: true,
		},
		{
			name: "elements back up the text",
			script: scandoc.Script{
				Output: "",
				Elems: scandoc.Many(
					scandoc.ScriptElem{Key: "Server Name", Value: "studio"},
					scandoc.ScriptElem{Key: "Machine Type", Value: "iMac21,1"},
				),
			},
			want:   afpServerInfo{ServerName: "studio", MachineType: "iMac21,1"},
			wantOK: true,
		},
		{
			name:   "nothing matched",
			script: scandoc.Script{Output: "ERROR: Script execution failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseAFPServerInfo(tt.script)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNBStat(t *testing.T) {
	info, ok := parseNBStat(scandoc.Script{Output: "NetBIOS name: FILESRV, NetBIOS user: <unknown>"})
	assert.True(t, ok)
	assert.Equal(t, "FILESRV", info.NetBIOSName)

	_, ok = parseNBStat(scandoc.Script{Output: "no answer"})
	assert.False(t, ok)
}

func TestScriptDetails_LaterMatchWins(t *testing.T) {
	var d scriptDetails
	d.collect(scandoc.Script{ID: "afp-serverinfo", Output: "Server Name: first\nMachine Type: Old1,1"})
	d.collect(scandoc.Script{ID: "afp-serverinfo", Output: "Server Name: second"})
	d.collect(scandoc.Script{ID: "afp-serverinfo", Output: "nothing useful"})
	d.collect(scandoc.Script{ID: "http-title", Output: "Server Name: ignored"})

	assert.Equal(t, "second", d.serverName)
	assert.Equal(t, "Old1,1", d.machineType)
}
