// Package audit carries the security event stream emitted by the
// authentication service: sign-ins, rotations, and above all refresh-token
// reuse detections, which callers typically react to by forcing re-login or
// alerting.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by the authentication service.
const (
	EventSignUp        = "sign_up"
	EventSignInSuccess = "sign_in_success"
	EventSignInFailure = "sign_in_failure"
	EventTokensIssued  = "tokens_issued"
	EventRefreshDenied = "refresh_denied"
	EventReuseDetected = "refresh_reuse_detected"
	EventSignOut       = "sign_out"
	// EventAuditDropped is emitted by the dispatcher itself on Close when
	// events were discarded under pressure; Metadata["count"] carries how
	// many.
	EventAuditDropped = "audit_events_dropped"
)

// Event is a single security event.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SubjectID string            `json:"subject_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops all events.
type NoOpSink struct{}

// Emit implements Sink.
func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes events into a buffered channel for the caller to
// consume.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

// Emit implements Sink. It blocks until the event is queued or ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Emit implements Sink.
func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
