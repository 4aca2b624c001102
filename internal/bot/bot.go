// Package bot is the conversation layer: a per-admin state machine that
// collects a node specification over chat, hands it to the orchestrator and
// relays progress back, plus side flows for listing, deleting and node
// statistics.
//
// All mutation of a session happens under its mutex, so updates for one
// admin are handled strictly in order. Provisioning itself runs in a
// background goroutine; the session's generation counter lets a cancel
// disown an in-flight run without waiting for it.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imamik/nodeup/internal/audit"
	"github.com/imamik/nodeup/internal/config"
	"github.com/imamik/nodeup/internal/geoip"
	"github.com/imamik/nodeup/internal/logger"
	"github.com/imamik/nodeup/internal/marzban"
	"github.com/imamik/nodeup/internal/metrics"
	"github.com/imamik/nodeup/internal/netutil"
	"github.com/imamik/nodeup/internal/orchestrator"
	"github.com/imamik/nodeup/internal/provision"
)

// Orchestrator runs one node-add transaction. Satisfied by
// *orchestrator.Orchestrator.
type Orchestrator interface {
	AddNode(ctx context.Context, adminID int64, req provision.Request, onProgress func(provision.ProgressEvent)) (orchestrator.Result, error)
}

// Bot drives admin conversations over a Transport.
type Bot struct {
	cfg       *config.Config
	transport Transport
	orch      Orchestrator
	client    marzban.Client
	geo       geoip.Resolver
	sink      audit.Sink
	log       *zap.Logger

	sessions *sessionStore

	// probe checks SSH reachability when an IP is entered; probeTimeout
	// bounds it. The check is advisory only.
	probe        func(ctx context.Context, ip string, port int, timeout time.Duration) error
	probeTimeout time.Duration

	// background tracks in-flight provisioning goroutines so Close can
	// drain them.
	background sync.WaitGroup
}

// New creates a Bot wired to its collaborators.
func New(cfg *config.Config, transport Transport, orch Orchestrator, client marzban.Client, geo geoip.Resolver, sink audit.Sink) *Bot {
	return &Bot{
		cfg:          cfg,
		transport:    transport,
		orch:         orch,
		client:       client,
		geo:          geo,
		sink:         sink,
		log:          logger.L().Named("bot"),
		sessions:     newSessionStore(cfg.Limits.InputPerSecond, cfg.Limits.InputBurst, cfg.Limits.SessionIdle),
		probe:        netutil.ProbePort,
		probeTimeout: cfg.SSH.ConnectTimeout,
	}
}

// Close waits for in-flight provisioning runs to finish reporting.
func (b *Bot) Close() {
	b.background.Wait()
}

// HandleUpdate processes one inbound update. Unknown senders are rejected
// before any state is touched.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	if !b.cfg.IsAdmin(u.AdminID) {
		metrics.UnauthorizedAccess.Inc()
		b.sink.Record(audit.New(u.AdminID, audit.ActionUnauthorizedAccess, nil))
		b.log.Warn("rejected update from unknown sender", zap.Int64("sender_id", u.AdminID))
		b.send(ctx, u.AdminID, unauthorizedText)
		return
	}

	sess := b.sessions.get(u.AdminID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	in := parseInput(u)

	// /start and cancel work from any state.
	switch in.kind {
	case inputStart:
		b.handleStart(ctx, sess)
		return
	case inputCancel:
		b.handleCancel(ctx, sess)
		return
	}

	switch sess.State {
	case StateIdle:
		b.handleIdle(ctx, sess, in)
	case StateAwaitingIP:
		b.handleAwaitingIP(ctx, sess, in)
	case StateAwaitingPassword:
		b.handleAwaitingPassword(ctx, sess, in)
	case StateAwaitingPorts:
		b.handleAwaitingPorts(ctx, sess, in)
	case StateConfirming:
		b.handleConfirming(ctx, sess, in)
	case StateProvisioning:
		b.send(ctx, sess.AdminID, busyText)
	case StateAwaitingDeleteReply:
		b.handleDeleteReply(ctx, sess, in)
	}
}

func (b *Bot) handleStart(ctx context.Context, sess *Session) {
	if sess.State == StateProvisioning {
		b.send(ctx, sess.AdminID, busyText)
		return
	}
	sess.reset()
	b.sink.Record(audit.New(sess.AdminID, audit.ActionBotStarted, nil))
	b.send(ctx, sess.AdminID, welcomeText, mainMenuButtons()...)
}

func (b *Bot) handleCancel(ctx context.Context, sess *Session) {
	// Bumping the generation disowns any provisioning relay still running;
	// the host-side run continues but no longer reaches this chat.
	sess.reset()
	b.send(ctx, sess.AdminID, cancelledText, mainMenuButtons()...)
}

func (b *Bot) handleIdle(ctx context.Context, sess *Session, in input) {
	switch in.kind {
	case inputMenuConfigure:
		sess.State = StateAwaitingIP
		b.send(ctx, sess.AdminID, promptIPText)
	case inputMenuNodes:
		b.showNodes(ctx, sess)
	case inputMenuStatistics:
		b.showStatistics(ctx, sess)
	case inputMenuHelp:
		b.sink.Record(audit.New(sess.AdminID, audit.ActionHelpRequested, nil))
		b.send(ctx, sess.AdminID, helpText, mainMenuButtons()...)
	case inputNodeSelect:
		b.showNodeDetail(ctx, sess, in.nodeID)
	default:
		b.invalid(ctx, sess, "Select an action from the menu.", mainMenuButtons()...)
	}
}

func (b *Bot) handleAwaitingIP(ctx context.Context, sess *Session, in input) {
	if in.kind != inputText || in.text == "" {
		b.invalid(ctx, sess, promptIPText)
		return
	}

	addr, err := netutil.ValidateIP(in.text)
	if err != nil {
		b.invalid(ctx, sess, invalidIPText(err))
		return
	}

	sess.Pending.IP = addr.String()
	sess.State = StateAwaitingPassword

	// Advisory only: an unreachable SSH port is worth a warning but the
	// admin may still be booting the server.
	probeCtx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()
	if err := b.probe(probeCtx, addr.String(), 22, b.probeTimeout); err != nil {
		b.send(ctx, sess.AdminID, sshWarningText)
	}

	b.send(ctx, sess.AdminID, promptPasswordText)
}

func (b *Bot) handleAwaitingPassword(ctx context.Context, sess *Session, in input) {
	if in.kind != inputText || in.text == "" {
		b.invalid(ctx, sess, emptyPasswordText)
		return
	}

	sess.Pending.Password = in.text
	sess.State = StateAwaitingPorts
	b.send(ctx, sess.AdminID, "Select ports for the node:",
		portsChoiceButtons(b.cfg.Node.DefaultServicePort, b.cfg.Node.DefaultAPIPort)...)
}

func (b *Bot) handleAwaitingPorts(ctx context.Context, sess *Session, in input) {
	switch in.kind {
	case inputPortsPreset:
		// Payloads arrive from the transport, not from trusted UI state, so
		// the preset pair passes the same gate as typed input.
		sp, ap, err := netutil.ValidatePortPair(strconv.Itoa(in.servicePort), strconv.Itoa(in.apiPort))
		if err != nil {
			b.invalid(ctx, sess, invalidPortsText(err))
			return
		}
		sess.Pending.ServicePort = sp
		sess.Pending.APIPort = ap
	case inputPortsManual:
		b.send(ctx, sess.AdminID, promptManualText)
		return
	case inputText:
		sp, ap, err := netutil.ParsePortSpec(in.text)
		if err != nil {
			b.invalid(ctx, sess, invalidPortsText(err))
			return
		}
		sess.Pending.ServicePort = sp
		sess.Pending.APIPort = ap
	default:
		b.invalid(ctx, sess, promptManualText)
		return
	}

	sess.State = StateConfirming
	b.send(ctx, sess.AdminID, confirmText(sess.Pending), confirmButtons()...)
}

func (b *Bot) handleConfirming(ctx context.Context, sess *Session, in input) {
	switch in.kind {
	case inputConfirmYes:
		b.startProvisioning(ctx, sess)
	case inputConfirmNo:
		sess.reset()
		b.send(ctx, sess.AdminID, cancelledText, mainMenuButtons()...)
	default:
		b.invalid(ctx, sess, "Confirm or cancel the setup.", confirmButtons()...)
	}
}

// startProvisioning launches the orchestrator in the background and flips
// the session to Provisioning. Called with sess.mu held.
func (b *Bot) startProvisioning(ctx context.Context, sess *Session) {
	req := provision.Request{
		IP:          sess.Pending.IP,
		Password:    sess.Pending.Password,
		ServicePort: sess.Pending.ServicePort,
		APIPort:     sess.Pending.APIPort,
		Certificate: b.cfg.Node.Certificate,
	}
	summary := sess.Pending
	summary.Password = ""

	// The password's only remaining copy rides inside req.
	sess.Pending.Password = ""
	sess.State = StateProvisioning
	gen := sess.generation

	msgID, err := b.transport.SendMessage(ctx, sess.AdminID, "🚀 Starting node setup…")
	if err != nil {
		b.log.Error("failed to send progress message", zap.Error(err))
	}
	sess.progressMsgID = msgID

	adminID := sess.AdminID
	runCtx := context.WithoutCancel(ctx)

	b.background.Add(1)
	go func() {
		defer b.background.Done()

		result, err := b.orch.AddNode(runCtx, adminID, req, func(ev provision.ProgressEvent) {
			b.relayProgress(runCtx, sess, gen, ev)
		})

		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.generation != gen {
			// Cancelled mid-run; the admin has moved on.
			return
		}
		sess.reset()

		if err != nil {
			b.log.Error("node setup did not start", zap.Error(err))
			b.send(runCtx, adminID, busyText, mainMenuButtons()...)
			return
		}
		b.send(runCtx, adminID, resultText(result, summary), mainMenuButtons()...)
	}()
}

// relayProgress edits the progress message in place, unless the run has
// been disowned by a cancel.
func (b *Bot) relayProgress(ctx context.Context, sess *Session, gen uint64, ev provision.ProgressEvent) {
	sess.mu.Lock()
	current := sess.generation == gen
	msgID := sess.progressMsgID
	sess.mu.Unlock()
	if !current {
		return
	}
	if err := b.transport.EditMessage(ctx, sess.AdminID, msgID, progressText(ev)); err != nil {
		b.log.Warn("failed to edit progress message", zap.Error(err))
	}
}

func (b *Bot) showNodes(ctx context.Context, sess *Session) {
	nodes, err := b.client.ListNodes(ctx)
	if err != nil {
		b.send(ctx, sess.AdminID, "❌ Could not fetch nodes: "+err.Error(), mainMenuButtons()...)
		return
	}
	if len(nodes) == 0 {
		b.send(ctx, sess.AdminID, noNodesText, mainMenuButtons()...)
		return
	}
	b.send(ctx, sess.AdminID, fmt.Sprintf("📋 Nodes (%d). Select one to manage:", len(nodes)), nodeButtons(nodes)...)
}

func (b *Bot) showNodeDetail(ctx context.Context, sess *Session, nodeID int64) {
	nodes, err := b.client.ListNodes(ctx)
	if err != nil {
		b.send(ctx, sess.AdminID, "❌ Could not fetch nodes: "+err.Error(), mainMenuButtons()...)
		return
	}
	for i := range nodes {
		if nodes[i].ID == nodeID {
			sess.pendingDelete = &nodes[i]
			sess.State = StateAwaitingDeleteReply
			b.send(ctx, sess.AdminID,
				nodeDetailText(nodes[i])+"\n\nDelete this node?", deleteButtons(nodeID)...)
			return
		}
	}
	b.send(ctx, sess.AdminID, "❌ Node not found. It may have been deleted already.", mainMenuButtons()...)
}

func (b *Bot) handleDeleteReply(ctx context.Context, sess *Session, in input) {
	switch in.kind {
	case inputDeleteConfirm:
		b.deleteNode(ctx, sess, in.nodeID)
	case inputDeleteAbort:
		b.sink.Record(audit.New(sess.AdminID, audit.ActionNodeDeleteCancelled, b.deleteContext(sess)))
		sess.reset()
		b.send(ctx, sess.AdminID, cancelledText, mainMenuButtons()...)
	case inputNodeSelect:
		b.showNodeDetail(ctx, sess, in.nodeID)
	case inputMenuNodes:
		sess.reset()
		b.showNodes(ctx, sess)
	default:
		b.invalid(ctx, sess, "Confirm or cancel the deletion.")
	}
}

func (b *Bot) deleteNode(ctx context.Context, sess *Session, nodeID int64) {
	node := sess.pendingDelete
	if node == nil || node.ID != nodeID {
		sess.reset()
		b.send(ctx, sess.AdminID, "❌ Node not found. It may have been deleted already.", mainMenuButtons()...)
		return
	}

	if err := b.client.DeleteNode(ctx, nodeID); err != nil {
		sess.reset()
		if marzban.IsNotFound(err) {
			b.send(ctx, sess.AdminID, "❌ Node not found. It may have been deleted already.", mainMenuButtons()...)
			return
		}
		b.send(ctx, sess.AdminID, "❌ Could not delete node: "+err.Error(), mainMenuButtons()...)
		return
	}

	b.sink.Record(audit.New(sess.AdminID, audit.ActionNodeDeleted, map[string]string{
		"node_id":   strconv.FormatInt(node.ID, 10),
		"node_name": node.Name,
		"address":   node.Address,
	}))
	deleted := *node
	sess.reset()
	b.send(ctx, sess.AdminID, deletedText(deleted), mainMenuButtons()...)
}

func (b *Bot) showStatistics(ctx context.Context, sess *Session) {
	nodes, err := b.client.ListNodes(ctx)
	if err != nil {
		b.send(ctx, sess.AdminID, "❌ Could not fetch statistics: "+err.Error(), mainMenuButtons()...)
		return
	}

	b.sink.Record(audit.New(sess.AdminID, audit.ActionStatsRequested, map[string]string{
		"node_count": strconv.Itoa(len(nodes)),
	}))

	countries := make(map[string]int)
	for _, n := range nodes {
		countries[countryOf(b.geo.Resolve(ctx, n.Address))]++
	}
	b.send(ctx, sess.AdminID, statisticsText(nodes, countries), mainMenuButtons()...)
}

// invalid answers unexpected input with a re-prompt, throttled by the
// session limiter so a flood of bad input degrades to slow-down notices.
func (b *Bot) invalid(ctx context.Context, sess *Session, text string, buttons ...Button) {
	if !sess.limiter.Allow() {
		b.send(ctx, sess.AdminID, slowDownText)
		return
	}
	b.send(ctx, sess.AdminID, text, buttons...)
}

func (b *Bot) send(ctx context.Context, adminID int64, text string, buttons ...Button) {
	if _, err := b.transport.SendMessage(ctx, adminID, text, buttons...); err != nil {
		b.log.Error("failed to send message", zap.Int64("admin_id", adminID), zap.Error(err))
	}
}

func (b *Bot) deleteContext(sess *Session) map[string]string {
	if sess.pendingDelete == nil {
		return nil
	}
	return map[string]string{
		"node_id":   strconv.FormatInt(sess.pendingDelete.ID, 10),
		"node_name": sess.pendingDelete.Name,
	}
}

// countryOf extracts the country from a "City (Country)" geo label.
func countryOf(label string) string {
	open := strings.LastIndexByte(label, '(')
	if open < 0 || !strings.HasSuffix(label, ")") {
		return label
	}
	return label[open+1 : len(label)-1]
}
