package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/imamik/nodeup/internal/marzban"
	"github.com/imamik/nodeup/internal/netutil"
	"github.com/imamik/nodeup/internal/orchestrator"
	"github.com/imamik/nodeup/internal/provision"
)

const welcomeText = `🤖 Welcome to Marzban Node Manager!

This bot helps you manage Marzban nodes:

🔧 Configure Node - provision a new node on a server
📋 Nodes - view and manage existing nodes
📊 Statistics - node usage statistics
❓ Help - usage guide

Select an action from the keyboard below.`

const helpText = `📚 Marzban Node Manager guide

🔧 Configure Node:
1. Enter the server IP address (validated automatically)
2. Enter the server root password
3. Pick ports (default preset or service_port:api_port)
4. Confirm - the bot provisions the server over SSH and registers the node
5. Progress is shown step by step

📋 Nodes: list, inspect and delete nodes (deletion asks for confirmation).

📊 Statistics: totals, active/inactive counts and country distribution.

⚠️ Notes:
• The server must be reachable over SSH (port 22)
• The node certificate comes from the bot configuration
• The password is used only for this setup and is never stored
• You can cancel at any point with ` + MenuCancel + `

🔒 All admin actions are logged; passwords never appear in logs.`

const (
	unauthorizedText   = "🚫 You don't have access to this bot."
	cancelledText      = "❌ Cancelled."
	promptIPText       = "Enter the server IP address:\n\n💡 Format: 203.0.113.5"
	promptPasswordText = "Enter the server root password:\n\n🔒 Used only for this setup, never stored"
	emptyPasswordText  = "❌ Password cannot be empty. Please try again."
	promptManualText   = "Enter the ports as service_port:api_port\n\n💡 Example: 8443:8880"
	slowDownText       = "⏳ Too many attempts, give it a moment and try again."
	busyText           = "⚠️ A node setup is already running for you. Wait for it to finish or cancel it."
	sshWarningText     = "⚠️ SSH port (22) did not respond. Make sure the server is up before confirming."
	noNodesText        = "📭 No nodes found."
)

func mainMenuButtons() []Button {
	return []Button{
		{Label: MenuConfigureNode, Payload: ""},
		{Label: MenuNodes, Payload: ""},
		{Label: MenuStatistics, Payload: ""},
		{Label: MenuHelp, Payload: ""},
	}
}

func invalidIPText(err error) string {
	switch {
	case errors.Is(err, netutil.ErrLoopbackIP):
		return "❌ Loopback addresses cannot be used. Enter the server's external IP."
	case errors.Is(err, netutil.ErrUnroutableIP):
		return "❌ That address is not publicly routable. Enter the server's external IP."
	default:
		return "❌ Invalid IP address format. Please try again.\n\n💡 Example: 203.0.113.5"
	}
}

func invalidPortsText(err error) string {
	switch {
	case errors.Is(err, netutil.ErrPortsEqual):
		return "❌ Service and API ports must differ. Please try again.\n\n💡 Example: 8443:8880"
	case errors.Is(err, netutil.ErrPortRange):
		return "❌ Ports must be between 1 and 65535. Please try again."
	default:
		return "❌ Invalid port format. Use service_port:api_port.\n\n💡 Example: 8443:8880"
	}
}

func portsChoiceButtons(servicePort, apiPort int) []Button {
	return []Button{
		{
			Label:   fmt.Sprintf("%d:%d (Default)", servicePort, apiPort),
			Payload: portsPresetPayload(servicePort, apiPort),
		},
		{Label: "Enter manually", Payload: payloadPortsManual},
	}
}

func confirmText(p pendingRequest) string {
	return fmt.Sprintf(`Ready to configure the node:

• Address: %s
• Password: ••••••••
• Service port: %d
• API port: %d

Start provisioning? This will install software on the server.`,
		p.IP, p.ServicePort, p.APIPort)
}

func confirmButtons() []Button {
	return []Button{
		{Label: "✅ Yes, configure", Payload: payloadConfirmYes},
		{Label: "❌ No, cancel", Payload: payloadConfirmNo},
	}
}

func progressText(ev provision.ProgressEvent) string {
	switch ev.Status {
	case provision.StatusStarted:
		return fmt.Sprintf("🔄 [%d/%d] %s…", ev.Index, ev.Total, ev.Stage)
	case provision.StatusSucceeded:
		return fmt.Sprintf("✅ [%d/%d] %s done", ev.Index, ev.Total, ev.Stage)
	default:
		return fmt.Sprintf("❌ [%d/%d] %s failed", ev.Index, ev.Total, ev.Stage)
	}
}

func resultText(result orchestrator.Result, p pendingRequest) string {
	switch result.Status {
	case orchestrator.StatusSucceeded:
		name := ""
		if result.Node != nil {
			name = result.Node.Name
		}
		return fmt.Sprintf(`✅ Node added successfully!

📋 Node information:
• Name: %s
• Address: %s
• Service port: %d
• API port: %d
• Created: %s`,
			name, p.IP, p.ServicePort, p.APIPort, time.Now().Format("02.01.2006 15:04"))

	case orchestrator.StatusSSHFailed:
		return fmt.Sprintf(`❌ Server setup failed at step %d (%s):

%s

The server was not modified beyond the completed steps. Fix the issue and re-run the setup; steps are safe to repeat.`,
			result.FailedStageIndex, result.FailedStage, result.Detail)

	case orchestrator.StatusRegistrationConflict:
		return fmt.Sprintf(`⚠️ The server at %s was configured, but a node with this address is already registered in Marzban.

Nothing was re-registered. Check the existing node in 📋 Nodes, or delete it and retry the registration - re-provisioning is not needed.`, p.IP)

	case orchestrator.StatusAuthFailed:
		return "❌ Server configured, but authentication with the Marzban panel failed. Check the panel credentials and register the node manually or retry."

	default:
		return fmt.Sprintf(`❌ Server configured, but registration with Marzban failed:

%s

The server remains provisioned. Retry registration once the panel is reachable; re-provisioning is not needed.`, result.Detail)
	}
}

func nodeButtons(nodes []marzban.Node) []Button {
	sorted := make([]marzban.Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	buttons := make([]Button, 0, len(sorted))
	for _, n := range sorted {
		buttons = append(buttons, Button{
			Label:   fmt.Sprintf("🗑️ %s (%s)", n.Name, n.Address),
			Payload: fmt.Sprintf("%s%d", payloadNodePrefix, n.ID),
		})
	}
	return buttons
}

func nodeDetailText(n marzban.Node) string {
	status := "🔴 Inactive"
	if n.Connected() {
		status = "🟢 Active"
	}
	return fmt.Sprintf(`📋 Node information:

• ID: %d
• Name: %s
• Address: %s
• Service port: %d
• API port: %d
• Status: %s`,
		n.ID, n.Name, n.Address, n.Port, n.APIPort, status)
}

func deleteButtons(nodeID int64) []Button {
	return []Button{
		{Label: "✅ Yes, delete", Payload: fmt.Sprintf("%s%d", payloadDeletePrefix, nodeID)},
		{Label: "❌ No, cancel", Payload: payloadDeleteNo},
	}
}

func deletedText(n marzban.Node) string {
	return fmt.Sprintf(`✅ Node deleted.

• Name: %s
• Address: %s
• Deleted: %s`, n.Name, n.Address, time.Now().Format("02.01.2006 15:04"))
}

func statisticsText(nodes []marzban.Node, countries map[string]int) string {
	total := len(nodes)
	active := 0
	for _, n := range nodes {
		if n.Connected() {
			active++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `📊 Marzban node statistics

📈 Totals:
• Nodes: %d
• Active: %d 🟢
• Inactive: %d 🔴

🌍 By country:
`, total, active, total-active)

	type entry struct {
		country string
		count   int
	}
	sorted := make([]entry, 0, len(countries))
	for c, n := range countries {
		sorted = append(sorted, entry{c, n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].country < sorted[j].country
	})
	for _, e := range sorted {
		fmt.Fprintf(&b, "• %s: %d\n", e.country, e.count)
	}

	fmt.Fprintf(&b, "\n📅 Updated: %s", time.Now().Format("02.01.2006 15:04"))
	return b.String()
}
