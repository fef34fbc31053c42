package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage    = errors.New("Empty message")
	ErrNullMessage     = errors.New("Null message")
	ErrMessageTooLarge = errors.New("Message too large")
	ErrInvalidUTF8     = errors.New("Envelope field is not valid UTF-8")
	ErrMalformed       = errors.New("Envelope is malformed")
	ErrMissingKind     = errors.New("Envelope is missing its message type")
	ErrUnknownKind     = errors.New("Unknown message type")
	ErrEmbeddedNewline = errors.New("Encoded envelope contains a line terminator")
	ErrMalformedReply  = errors.New("Response is malformed, expected an OK or ERROR prefix")
)

// DecodeError is returned by Decode when a line cannot be turned into an
// Envelope. Err is one of the Err* sentinels above.
type DecodeError struct {
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}

	return e.Detail
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrorf(sentinel error, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Detail: fmt.Sprintf(format, args...),
		Err:    sentinel,
	}
}

// ProtocolError is a well formed envelope that has no handler.
type ProtocolError struct {
	Kind Kind
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("Unsupported message type %s", e.Kind)
}
