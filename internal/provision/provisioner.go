// Package provision executes the fixed SSH provisioning sequence against a
// target host and reports progress as a finite event stream.
//
// A run is not transactional: completed stages are never rolled back, and
// recovery from a mid-sequence failure is re-running the sequence, which
// every stage tolerates. A run's event channel is consumed once; runs are
// not restartable.
package provision

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/imamik/nodeup/internal/metrics"
	"github.com/imamik/nodeup/internal/netutil"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultStageTimeout   = 5 * time.Minute
	defaultTotalTimeout   = 20 * time.Minute

	sshPort = 22
)

var errStageTimeout = errors.New("stage timed out")

// Options bound a provisioning run.
type Options struct {
	ConnectTimeout time.Duration
	StageTimeout   time.Duration
	TotalTimeout   time.Duration
}

func (o *Options) applyDefaults() {
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.StageTimeout == 0 {
		o.StageTimeout = defaultStageTimeout
	}
	if o.TotalTimeout == 0 {
		o.TotalTimeout = defaultTotalTimeout
	}
}

// Provisioner drives the provisioning sequence over SSH.
type Provisioner struct {
	opts   Options
	runner runner
	stages func(Request) []Stage
	probe  func(ctx context.Context, ip string, port int, timeout time.Duration) error
}

// ProvisionerOption customizes a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithRunner injects a command runner (tests use a scripted fake).
func WithRunner(r runner) ProvisionerOption {
	return func(p *Provisioner) { p.runner = r }
}

// WithStages overrides the stage builder.
func WithStages(build func(Request) []Stage) ProvisionerOption {
	return func(p *Provisioner) { p.stages = build }
}

// WithProbe overrides the port-22 reachability probe.
func WithProbe(probe func(ctx context.Context, ip string, port int, timeout time.Duration) error) ProvisionerOption {
	return func(p *Provisioner) { p.probe = probe }
}

// NewProvisioner creates a Provisioner with the given timeouts.
func NewProvisioner(opts Options, popts ...ProvisionerOption) *Provisioner {
	opts.applyDefaults()
	p := &Provisioner{
		opts:   opts,
		runner: &sshRunner{},
		stages: BuildStages,
		probe:  netutil.ProbePort,
	}
	for _, o := range popts {
		o(p)
	}
	return p
}

// Provision starts a run and returns its event stream. The stream is
// finite and closed after the terminal event. The caller owns draining it.
func (p *Provisioner) Provision(ctx context.Context, req Request) <-chan ProgressEvent {
	events := make(chan ProgressEvent)
	go func() {
		defer close(events)
		p.run(ctx, req, events)
	}()
	return events
}

func (p *Provisioner) run(ctx context.Context, req Request, events chan<- ProgressEvent) {
	stages := p.stages(req)
	total := len(stages) + 1 // connect counts as stage 1

	emit := func(ev ProgressEvent) {
		ev.Detail = redact(ev.Detail, req.Password)
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	// The terminal failed event is sent unconditionally: the run context is
	// already expired on an overall timeout, and racing it against the send
	// would drop the one event the consumer decides the outcome on. The
	// caller owns draining the stream, so the send cannot wedge.
	fail := func(name string, index int, kind FailureKind, detail string) {
		metrics.StageFailures.WithLabelValues(name, string(kind)).Inc()
		events <- ProgressEvent{
			Stage:  name,
			Index:  index,
			Total:  total,
			Status: StatusFailed,
			Kind:   kind,
			Detail: redact(detail, req.Password),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.TotalTimeout)
	defer cancel()

	emit(ProgressEvent{Stage: StageConnect, Index: 1, Total: total, Status: StatusStarted})

	// Probe before dialing so an unreachable host fails fast with zero
	// commands issued.
	if err := p.probe(ctx, req.IP, sshPort, p.opts.ConnectTimeout); err != nil {
		fail(StageConnect, 1, FailureConnect, err.Error())
		return
	}

	sess, err := p.runner.connect(ctx, req.IP, req.Password, p.opts.ConnectTimeout)
	if err != nil {
		fail(StageConnect, 1, FailureConnect, err.Error())
		return
	}
	defer func() { _ = sess.close() }()

	emit(ProgressEvent{Stage: StageConnect, Index: 1, Total: total, Status: StatusSucceeded})

	for i, stage := range stages {
		index := i + 2

		emit(ProgressEvent{Stage: stage.Name, Index: index, Total: total, Status: StatusStarted})

		start := time.Now()
		output, err := sess.run(ctx, stage.Command, p.opts.StageTimeout)
		metrics.StageDuration.WithLabelValues(stage.Name).Observe(time.Since(start).Seconds())

		if err != nil {
			kind := FailureExec
			switch {
			case ctx.Err() != nil:
				kind = FailureOverallTimeout
			case errors.Is(err, errStageTimeout):
				kind = FailureTimeout
			}
			detail := strings.TrimSpace(output)
			if detail == "" {
				detail = err.Error()
			}
			fail(stage.Name, index, kind, detail)
			return
		}

		emit(ProgressEvent{Stage: stage.Name, Index: index, Total: total, Status: StatusSucceeded})
	}
}

// redact strips the SSH password from outbound detail text.
func redact(detail, password string) string {
	if password == "" || detail == "" {
		return detail
	}
	return strings.ReplaceAll(detail, password, "[redacted]")
}
