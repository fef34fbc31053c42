package protocol

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	FieldKind      = "type"
	FieldKindAlias = "kind"
	FieldSender    = "sender"
	FieldContent   = "content"
	FieldTimestamp = "timestampUtc"
)

// TimestampFormat is the layout timestamps are written with.
const TimestampFormat = time.RFC3339Nano

// timestamps written without an offset are read as UTC
const localTimestampFormat = "2006-01-02T15:04:05.999999999"

// Encode serialises e as a single line of compact JSON without the trailing
// line terminator. A zero timestamp is written as the current time. Sender
// and content must be valid UTF-8.
func Encode(e *Envelope) ([]byte, error) {
	if !e.Kind.IsValid() {
		return nil, fmt.Errorf("Failed to encode %s: %w", e.Kind, ErrUnknownKind)
	}

	if !utf8.ValidString(e.Sender) {
		return nil, fmt.Errorf("Failed to encode %s: %w", FieldSender, ErrInvalidUTF8)
	}

	if !utf8.ValidString(e.Content) {
		return nil, fmt.Errorf("Failed to encode %s: %w", FieldContent, ErrInvalidUTF8)
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	line := []byte(`{}`)

	fields := []struct {
		path  string
		value string
	}{
		{FieldKind, e.Kind.String()},
		{FieldSender, e.Sender},
		{FieldContent, e.Content},
		{FieldTimestamp, ts.UTC().Format(TimestampFormat)},
	}

	var err error
	for _, f := range fields {
		if line, err = sjson.SetBytes(line, f.path, f.value); err != nil {
			return nil, err
		}
	}

	if bytes.ContainsAny(line, "\r\n") {
		return nil, ErrEmbeddedNewline
	}

	return line, nil
}

// Decode parses a single line into an Envelope. Field names are matched
// case-insensitively and unknown fields are ignored. All failures are
// returned as a *DecodeError.
func Decode(line []byte) (*Envelope, error) {
	line = bytes.TrimSpace(line)

	if len(line) == 0 {
		return nil, &DecodeError{Err: ErrEmptyMessage}
	}

	if !gjson.ValidBytes(line) {
		return nil, decodeErrorf(ErrMalformed, "'%s' is not valid JSON", truncate(line))
	}

	root := gjson.ParseBytes(line)

	if root.Type == gjson.Null {
		return nil, &DecodeError{Err: ErrNullMessage}
	}

	if !root.IsObject() {
		return nil, decodeErrorf(ErrMalformed, "expected a JSON object but got '%s'", truncate(line))
	}

	var (
		env     Envelope
		err     error
		hasKind bool
	)

	root.ForEach(func(key, value gjson.Result) bool {
		switch strings.ToLower(key.String()) {
		case FieldKind, FieldKindAlias:
			hasKind = value.Type != gjson.Null
			if hasKind {
				env.Kind, err = decodeKind(value)
			}

		case FieldSender:
			env.Sender, err = decodeString(FieldSender, value)

		case strings.ToLower(FieldContent):
			env.Content, err = decodeString(FieldContent, value)

		case strings.ToLower(FieldTimestamp):
			env.Timestamp, err = decodeTimestamp(value)
		}

		return err == nil
	})

	if err != nil {
		return nil, err
	}

	if !hasKind {
		return nil, &DecodeError{Err: ErrMissingKind}
	}

	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}

	return &env, nil
}

func decodeKind(value gjson.Result) (Kind, error) {
	switch value.Type {
	case gjson.String:
		k, err := ParseKind(value.Str)
		if err != nil {
			return 0, decodeErrorf(ErrUnknownKind, "unknown message type '%s'", value.Str)
		}
		return k, nil

	case gjson.Number:
		n := value.Num
		if n == math.Trunc(n) && Kind(int(n)).IsValid() {
			return Kind(int(n)), nil
		}
		return 0, decodeErrorf(ErrUnknownKind, "unknown message type %s", value.Raw)

	default:
		return 0, decodeErrorf(ErrMalformed, "message type must be a string or a number, got %s", value.Raw)
	}
}

func decodeString(field string, value gjson.Result) (string, error) {
	switch value.Type {
	case gjson.String:
		return value.Str, nil

	case gjson.Null:
		return "", nil

	default:
		return "", decodeErrorf(ErrMalformed, "%s must be a string, got %s", field, value.Raw)
	}
}

func decodeTimestamp(value gjson.Result) (time.Time, error) {
	switch value.Type {
	case gjson.Null:
		return time.Time{}, nil

	case gjson.String:
		if ts, err := time.Parse(TimestampFormat, value.Str); err == nil {
			return ts.UTC(), nil
		}

		if ts, err := time.ParseInLocation(localTimestampFormat, value.Str, time.UTC); err == nil {
			return ts, nil
		}

		return time.Time{}, decodeErrorf(ErrMalformed, "%s '%s' is not an RFC 3339 time", FieldTimestamp, value.Str)

	default:
		return time.Time{}, decodeErrorf(ErrMalformed, "%s must be a string, got %s", FieldTimestamp, value.Raw)
	}
}

func truncate(line []byte) string {
	const max = 64

	if len(line) <= max {
		return string(line)
	}

	return string(line[:max]) + "..."
}
