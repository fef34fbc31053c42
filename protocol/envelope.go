package protocol

import (
	"strings"
	"time"
)

// Envelope is one complete message from a controller to a student.
type Envelope struct {
	Kind      Kind
	Sender    string
	Content   string
	Timestamp time.Time
}

// NewEnvelope returns an Envelope stamped with the current UTC time.
func NewEnvelope(kind Kind, sender, content string) *Envelope {
	return &Envelope{
		Kind:      kind,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NormalizedKind returns the kind the envelope should be dispatched as. A
// Command whose content names StartSession or EndSession (ignoring case and
// surrounding whitespace) is promoted to that kind. Everything else keeps its
// own kind.
func (e *Envelope) NormalizedKind() Kind {
	if e.Kind != Command {
		return e.Kind
	}

	sub := strings.TrimSpace(e.Content)

	switch {
	case strings.EqualFold(sub, StartSession.String()):
		return StartSession

	case strings.EqualFold(sub, EndSession.String()):
		return EndSession

	default:
		return e.Kind
	}
}

// Equal reports whether both envelopes carry the same four fields.
func (e *Envelope) Equal(other *Envelope) bool {
	if e == nil || other == nil {
		return e == other
	}

	return e.Kind == other.Kind &&
		e.Sender == other.Sender &&
		e.Content == other.Content &&
		e.Timestamp.Equal(other.Timestamp)
}
