package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/nodeup/internal/audit"
	"github.com/imamik/nodeup/internal/geoip"
	"github.com/imamik/nodeup/internal/marzban"
	"github.com/imamik/nodeup/internal/provision"
)

// scriptedExecutor replays a fixed event sequence. The first Provision call
// signals started and blocks on release when those channels are set;
// subsequent calls stream immediately.
type scriptedExecutor struct {
	events []provision.ProgressEvent

	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
}

func (s *scriptedExecutor) Provision(ctx context.Context, _ provision.Request) <-chan provision.ProgressEvent {
	s.mu.Lock()
	started, release := s.started, s.release
	s.started, s.release = nil, nil
	s.mu.Unlock()

	ch := make(chan provision.ProgressEvent)
	go func() {
		defer close(ch)
		if started != nil {
			close(started)
		}
		if release != nil {
			<-release
		}
		for _, ev := range s.events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func successEvents() []provision.ProgressEvent {
	return []provision.ProgressEvent{
		{Stage: "connect", Index: 1, Total: 2, Status: provision.StatusStarted},
		{Stage: "connect", Index: 1, Total: 2, Status: provision.StatusSucceeded},
		{Stage: "start-service", Index: 2, Total: 2, Status: provision.StatusStarted},
		{Stage: "start-service", Index: 2, Total: 2, Status: provision.StatusSucceeded},
	}
}

func failureEvents() []provision.ProgressEvent {
	return []provision.ProgressEvent{
		{Stage: "connect", Index: 1, Total: 5, Status: provision.StatusStarted},
		{Stage: "connect", Index: 1, Total: 5, Status: provision.StatusSucceeded},
		{Stage: "system-update", Index: 2, Total: 5, Status: provision.StatusStarted},
		{Stage: "system-update", Index: 2, Total: 5, Status: provision.StatusSucceeded},
		{Stage: "install-deps", Index: 3, Total: 5, Status: provision.StatusStarted},
		{Stage: "install-deps", Index: 3, Total: 5, Status: provision.StatusFailed,
			Kind: provision.FailureTimeout, Detail: "apt-get stalled"},
	}
}

func testRequest() provision.Request {
	return provision.Request{IP: "203.0.113.5", Password: "secret", ServicePort: 8443, APIPort: 8880}
}

func TestAddNode_Success(t *testing.T) {
	client := marzban.NewMockClient()
	rec := &audit.Recorder{}
	o := New(&scriptedExecutor{events: successEvents()}, client, geoip.Static("Helsinki (Finland)"), rec)

	var relayed []provision.ProgressEvent
	result, err := o.AddNode(context.Background(), 42, testRequest(), func(ev provision.ProgressEvent) {
		relayed = append(relayed, ev)
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, result.Status)
	require.NotNil(t, result.Node)
	assert.Equal(t, "Helsinki (Finland)", result.Node.Name)
	assert.Equal(t, "203.0.113.5", result.Node.Address)
	assert.Len(t, relayed, 4, "every progress event must be relayed")

	assert.Equal(t, 1, client.CreateCalls)
	assert.Len(t, rec.ByAction(audit.ActionNodeSetupStarted), 1)
	assert.Len(t, rec.ByAction(audit.ActionNodeSetupSucceeded), 1)
}

func TestAddNode_SSHFailureSkipsRegistration(t *testing.T) {
	client := marzban.NewMockClient()
	rec := &audit.Recorder{}
	o := New(&scriptedExecutor{events: failureEvents()}, client, geoip.Static("x"), rec)

	result, err := o.AddNode(context.Background(), 42, testRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusSSHFailed, result.Status)
	assert.Equal(t, "install-deps", result.FailedStage)
	assert.Equal(t, 3, result.FailedStageIndex)
	assert.Contains(t, result.Detail, "apt-get stalled")

	assert.Equal(t, 0, client.CreateCalls, "CreateNode must never run after an SSH failure")

	failedEvents := rec.ByAction(audit.ActionNodeSetupFailed)
	require.Len(t, failedEvents, 1)
	assert.Equal(t, "3", failedEvents[0].Context["stage"])
	assert.Equal(t, string(StatusSSHFailed), failedEvents[0].Context["status"])
}

func TestAddNode_ConflictIsDistinct(t *testing.T) {
	client := marzban.NewMockClient()
	client.Seed(marzban.Node{Address: "203.0.113.5"})
	rec := &audit.Recorder{}
	o := New(&scriptedExecutor{events: successEvents()}, client, geoip.Static("x"), rec)

	result, err := o.AddNode(context.Background(), 42, testRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusRegistrationConflict, result.Status)
	assert.NotEqual(t, StatusRegistrationFailed, result.Status)
	assert.Len(t, rec.ByAction(audit.ActionNodeSetupFailed), 1)
}

func TestAddNode_RegistrationFailure(t *testing.T) {
	client := marzban.NewMockClient()
	client.CreateErr = &marzban.StatusError{Code: 500, Body: "internal error"}
	o := New(&scriptedExecutor{events: successEvents()}, client, geoip.Static("x"), &audit.Recorder{})

	result, err := o.AddNode(context.Background(), 42, testRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRegistrationFailed, result.Status)
}

func TestAddNode_AuthFailure(t *testing.T) {
	client := marzban.NewMockClient()
	client.CreateErr = marzban.ErrAuthFailed
	o := New(&scriptedExecutor{events: successEvents()}, client, geoip.Static("x"), &audit.Recorder{})

	result, err := o.AddNode(context.Background(), 42, testRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusAuthFailed, result.Status)
}

func TestAddNode_BusyPerAdmin(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exec := &scriptedExecutor{events: successEvents(), started: started, release: release}
	o := New(exec, marzban.NewMockClient(), geoip.Static("x"), &audit.Recorder{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.AddNode(context.Background(), 42, testRequest(), nil)
		assert.NoError(t, err)
	}()

	<-started
	_, err := o.AddNode(context.Background(), 42, testRequest(), nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	wg.Wait()

	// After completion the admin can start another attempt.
	_, err = o.AddNode(context.Background(), 42, provision.Request{IP: "203.0.113.9", ServicePort: 8443, APIPort: 8880}, nil)
	assert.NoError(t, err)
}

func TestAddNode_DistinctAdminsRunConcurrently(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exec := &scriptedExecutor{events: successEvents(), started: started, release: release}
	o := New(exec, marzban.NewMockClient(), geoip.Static("x"), &audit.Recorder{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.AddNode(context.Background(), 1, testRequest(), nil)
	}()
	<-started

	// A different admin is not blocked by admin 1's in-flight run.
	_, err := o.AddNode(context.Background(), 2, provision.Request{IP: "203.0.113.9", ServicePort: 8443, APIPort: 8880}, nil)
	assert.NoError(t, err)

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("admin 1 run did not finish")
	}
}

func TestAddNode_NoPasswordInAudit(t *testing.T) {
	rec := &audit.Recorder{}
	o := New(&scriptedExecutor{events: failureEvents()}, marzban.NewMockClient(), geoip.Static("x"), rec)

	_, err := o.AddNode(context.Background(), 42, testRequest(), nil)
	require.NoError(t, err)

	for _, ev := range rec.Events {
		for k, v := range ev.Context {
			assert.NotEqual(t, "password", k)
			assert.NotContains(t, v, "secret", "audit context %s leaked the password", k)
		}
	}
}
