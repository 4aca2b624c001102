package bot

import (
	"strconv"
	"strings"
)

// Main menu labels, mirrored by every transport's keyboard.
const (
	MenuConfigureNode = "🔧 Configure Node"
	MenuNodes         = "📋 Nodes"
	MenuStatistics    = "📊 Statistics"
	MenuHelp          = "❓ Help"
	MenuCancel        = "❌ Cancel"
)

// Button payloads.
const (
	payloadPortsPrefix  = "ports_"
	payloadPortsManual  = "ports_manual"
	payloadNodePrefix   = "node_"
	payloadDeletePrefix = "delete_yes_"
	payloadDeleteNo     = "delete_no"
	payloadConfirmYes   = "confirm_yes"
	payloadConfirmNo    = "confirm_no"
)

type inputKind int

const (
	inputText inputKind = iota
	inputStart
	inputCancel
	inputMenuConfigure
	inputMenuNodes
	inputMenuStatistics
	inputMenuHelp
	inputPortsPreset
	inputPortsManual
	inputNodeSelect
	inputDeleteConfirm
	inputDeleteAbort
	inputConfirmYes
	inputConfirmNo
	inputUnknownPayload
)

// input is the typed form of an Update. The state machine switches on kind
// exhaustively instead of matching raw strings in handlers.
type input struct {
	kind inputKind
	text string

	nodeID      int64
	servicePort int
	apiPort     int
}

// parseInput classifies an update independent of conversation state.
func parseInput(u Update) input {
	if u.ButtonPayload != "" {
		return parsePayload(u.ButtonPayload)
	}

	text := strings.TrimSpace(u.Text)
	switch text {
	case "/start":
		return input{kind: inputStart}
	case "/cancel", MenuCancel:
		return input{kind: inputCancel}
	case MenuConfigureNode:
		return input{kind: inputMenuConfigure}
	case MenuNodes:
		return input{kind: inputMenuNodes}
	case MenuStatistics:
		return input{kind: inputMenuStatistics}
	case MenuHelp:
		return input{kind: inputMenuHelp}
	}
	return input{kind: inputText, text: text}
}

func parsePayload(payload string) input {
	switch {
	case payload == payloadPortsManual:
		return input{kind: inputPortsManual}
	case payload == payloadDeleteNo:
		return input{kind: inputDeleteAbort}
	case payload == payloadConfirmYes:
		return input{kind: inputConfirmYes}
	case payload == payloadConfirmNo:
		return input{kind: inputConfirmNo}
	case strings.HasPrefix(payload, payloadDeletePrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(payload, payloadDeletePrefix), 10, 64)
		if err != nil {
			return input{kind: inputUnknownPayload}
		}
		return input{kind: inputDeleteConfirm, nodeID: id}
	case strings.HasPrefix(payload, payloadNodePrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(payload, payloadNodePrefix), 10, 64)
		if err != nil {
			return input{kind: inputUnknownPayload}
		}
		return input{kind: inputNodeSelect, nodeID: id}
	case strings.HasPrefix(payload, payloadPortsPrefix):
		parts := strings.Split(strings.TrimPrefix(payload, payloadPortsPrefix), "_")
		if len(parts) != 2 {
			return input{kind: inputUnknownPayload}
		}
		sp, err1 := strconv.Atoi(parts[0])
		ap, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return input{kind: inputUnknownPayload}
		}
		return input{kind: inputPortsPreset, servicePort: sp, apiPort: ap}
	}
	return input{kind: inputUnknownPayload}
}

// portsPresetPayload builds the preset button payload for a port pair.
func portsPresetPayload(servicePort, apiPort int) string {
	return payloadPortsPrefix + strconv.Itoa(servicePort) + "_" + strconv.Itoa(apiPort)
}
