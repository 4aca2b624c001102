package audit

import (
	"go.uber.org/zap"
)

// forbiddenKeys are context keys that must never be written to the trail.
var forbiddenKeys = map[string]struct{}{
	"password":     {},
	"ssh_password": {},
}

// ZapSink writes one structured log line per event.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink creates a sink writing through the given logger.
func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log.Named("audit")}
}

// Record implements Sink.
func (s *ZapSink) Record(ev Event) {
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.Time("ts", ev.Timestamp),
		zap.Int64("admin_id", ev.AdminID),
		zap.String("action", string(ev.Action)),
	}
	for k, v := range ev.Context {
		if _, banned := forbiddenKeys[k]; banned {
			continue
		}
		fields = append(fields, zap.String(k, v))
	}
	s.log.Info("admin_action", fields...)
}

// Recorder is an in-memory Sink for tests.
type Recorder struct {
	Events []Event
}

// Record implements Sink.
func (r *Recorder) Record(ev Event) {
	r.Events = append(r.Events, ev)
}

// ByAction returns recorded events matching action.
func (r *Recorder) ByAction(action Action) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}
