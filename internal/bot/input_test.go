package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name string
		u    Update
		want input
	}{
		{"start command", Update{Text: "/start"}, input{kind: inputStart}},
		{"cancel command", Update{Text: "/cancel"}, input{kind: inputCancel}},
		{"cancel menu label", Update{Text: MenuCancel}, input{kind: inputCancel}},
		{"configure menu", Update{Text: MenuConfigureNode}, input{kind: inputMenuConfigure}},
		{"nodes menu", Update{Text: MenuNodes}, input{kind: inputMenuNodes}},
		{"statistics menu", Update{Text: MenuStatistics}, input{kind: inputMenuStatistics}},
		{"help menu", Update{Text: MenuHelp}, input{kind: inputMenuHelp}},
		{"plain text trimmed", Update{Text: "  203.0.113.5  "}, input{kind: inputText, text: "203.0.113.5"}},
		{"ports preset", Update{ButtonPayload: "ports_8443_8880"}, input{kind: inputPortsPreset, servicePort: 8443, apiPort: 8880}},
		{"ports manual", Update{ButtonPayload: "ports_manual"}, input{kind: inputPortsManual}},
		{"node select", Update{ButtonPayload: "node_7"}, input{kind: inputNodeSelect, nodeID: 7}},
		{"delete confirm", Update{ButtonPayload: "delete_yes_7"}, input{kind: inputDeleteConfirm, nodeID: 7}},
		{"delete abort", Update{ButtonPayload: "delete_no"}, input{kind: inputDeleteAbort}},
		{"confirm yes", Update{ButtonPayload: "confirm_yes"}, input{kind: inputConfirmYes}},
		{"confirm no", Update{ButtonPayload: "confirm_no"}, input{kind: inputConfirmNo}},
		{"garbage payload", Update{ButtonPayload: "nonsense"}, input{kind: inputUnknownPayload}},
		{"malformed node id", Update{ButtonPayload: "node_x"}, input{kind: inputUnknownPayload}},
		{"malformed ports", Update{ButtonPayload: "ports_a_b"}, input{kind: inputUnknownPayload}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseInput(tt.u))
		})
	}
}

func TestPortsPresetPayloadRoundTrip(t *testing.T) {
	in := parsePayload(portsPresetPayload(9000, 9001))
	assert.Equal(t, inputPortsPreset, in.kind)
	assert.Equal(t, 9000, in.servicePort)
	assert.Equal(t, 9001, in.apiPort)
}
