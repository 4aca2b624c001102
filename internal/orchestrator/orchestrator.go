// Package orchestrator sequences remote provisioning and panel registration
// into one node-add transaction.
//
// The transaction is commit-forward only: an SSH failure means registration
// is never attempted, and a registration failure leaves the host provisioned
// for a later registration retry. Rolling back a configured host is not
// cheaply reversible, so no compensating commands exist.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/imamik/nodeup/internal/audit"
	"github.com/imamik/nodeup/internal/geoip"
	"github.com/imamik/nodeup/internal/marzban"
	"github.com/imamik/nodeup/internal/metrics"
	"github.com/imamik/nodeup/internal/provision"
)

// ErrBusy is returned when an admin already has a node-add in flight.
var ErrBusy = errors.New("a node setup is already in progress for this session")

// Status is the terminal outcome of one node-add attempt.
type Status string

// Terminal statuses. Failure statuses name the phase that failed;
// registration conflicts are distinct because the host itself was
// provisioned correctly.
const (
	StatusSucceeded            Status = "succeeded"
	StatusSSHFailed            Status = "ssh"
	StatusRegistrationFailed   Status = "registration"
	StatusRegistrationConflict Status = "registration-conflict"
	StatusAuthFailed           Status = "auth"
)

// Result is the immutable outcome of one orchestration attempt.
type Result struct {
	Status Status
	Node   *marzban.Node

	// FailedStage and FailedStageIndex identify the SSH stage that failed,
	// when Status is StatusSSHFailed.
	FailedStage      string
	FailedStageIndex int
	Detail           string
}

// Succeeded reports whether the attempt completed fully.
func (r Result) Succeeded() bool { return r.Status == StatusSucceeded }

// Executor produces the provisioning event stream. Satisfied by
// *provision.Provisioner.
type Executor interface {
	Provision(ctx context.Context, req provision.Request) <-chan provision.ProgressEvent
}

// Orchestrator runs node-add transactions, one at a time per admin.
type Orchestrator struct {
	executor Executor
	client   marzban.Client
	geo      geoip.Resolver
	sink     audit.Sink

	mu       sync.Mutex
	inflight map[int64]bool
}

// New creates an Orchestrator.
func New(executor Executor, client marzban.Client, geo geoip.Resolver, sink audit.Sink) *Orchestrator {
	return &Orchestrator{
		executor: executor,
		client:   client,
		geo:      geo,
		sink:     sink,
		inflight: make(map[int64]bool),
	}
}

// AddNode provisions req's host over SSH and registers it with the panel.
// Progress events are relayed to onProgress as they happen. Returns ErrBusy
// if adminID already has an attempt in flight.
func (o *Orchestrator) AddNode(ctx context.Context, adminID int64, req provision.Request, onProgress func(provision.ProgressEvent)) (Result, error) {
	if !o.acquire(adminID) {
		return Result{}, ErrBusy
	}
	defer o.release(adminID)

	o.sink.Record(audit.New(adminID, audit.ActionNodeSetupStarted, map[string]string{
		"ip":    req.IP,
		"ports": fmt.Sprintf("%d:%d", req.ServicePort, req.APIPort),
	}))

	result := o.addNode(ctx, req, onProgress)
	metrics.ProvisionAttempts.WithLabelValues(string(result.Status)).Inc()
	o.auditOutcome(adminID, req, result)
	return result, nil
}

func (o *Orchestrator) addNode(ctx context.Context, req provision.Request, onProgress func(provision.ProgressEvent)) Result {
	var failed *provision.ProgressEvent
	for ev := range o.executor.Provision(ctx, req) {
		if onProgress != nil {
			onProgress(ev)
		}
		if ev.Status == provision.StatusFailed {
			failed = &ev
		}
	}
	if failed != nil {
		return Result{
			Status:           StatusSSHFailed,
			FailedStage:      failed.Stage,
			FailedStageIndex: failed.Index,
			Detail:           failed.Detail,
		}
	}

	node, err := o.client.CreateNode(ctx, marzban.CreateNodeRequest{
		Name:         o.geo.Resolve(ctx, req.IP),
		Address:      req.IP,
		Port:         req.ServicePort,
		APIPort:      req.APIPort,
		AddAsNewHost: true,
	})
	switch {
	case err == nil:
		return Result{Status: StatusSucceeded, Node: node}
	case marzban.IsConflict(err):
		return Result{Status: StatusRegistrationConflict, Detail: err.Error()}
	case marzban.IsAuthFailed(err):
		return Result{Status: StatusAuthFailed, Detail: err.Error()}
	default:
		return Result{Status: StatusRegistrationFailed, Detail: err.Error()}
	}
}

func (o *Orchestrator) auditOutcome(adminID int64, req provision.Request, result Result) {
	if result.Succeeded() {
		ctx := map[string]string{"ip": req.IP}
		if result.Node != nil {
			ctx["node_id"] = strconv.FormatInt(result.Node.ID, 10)
			ctx["node_name"] = result.Node.Name
		}
		o.sink.Record(audit.New(adminID, audit.ActionNodeSetupSucceeded, ctx))
		return
	}

	ctx := map[string]string{
		"ip":     req.IP,
		"status": string(result.Status),
	}
	if result.FailedStage != "" {
		ctx["stage"] = strconv.Itoa(result.FailedStageIndex)
		ctx["stage_name"] = result.FailedStage
	}
	o.sink.Record(audit.New(adminID, audit.ActionNodeSetupFailed, ctx))
}

func (o *Orchestrator) acquire(adminID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[adminID] {
		return false
	}
	o.inflight[adminID] = true
	return true
}

func (o *Orchestrator) release(adminID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, adminID)
}
