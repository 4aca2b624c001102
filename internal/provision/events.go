package provision

// StageStatus is the reported state of one stage.
type StageStatus string

// Stage statuses.
const (
	StatusStarted   StageStatus = "started"
	StatusSucceeded StageStatus = "succeeded"
	StatusFailed    StageStatus = "failed"
)

// FailureKind classifies a failed stage.
type FailureKind string

// Failure kinds.
const (
	// FailureConnect covers the reachability probe and the SSH handshake.
	FailureConnect FailureKind = "Connect"
	// FailureExec is a non-zero exit or transport error during a command.
	FailureExec FailureKind = "Exec"
	// FailureTimeout means the stage exceeded its stage timeout.
	FailureTimeout FailureKind = "Timeout"
	// FailureOverallTimeout means the whole run exceeded its total timeout.
	FailureOverallTimeout FailureKind = "OverallTimeout"
)

// ProgressEvent reports one stage transition. Events arrive incrementally,
// in order, on the channel returned by Provision; a failed event is always
// the last one before the channel closes.
type ProgressEvent struct {
	Stage  string
	Index  int // 1-based
	Total  int
	Status StageStatus

	// Detail carries captured command output on failure. Never contains
	// the SSH password.
	Detail string
	Kind   FailureKind
}
