package protocol

import (
	"errors"
	"fmt"
	"strings"
)

const (
	PrefixOk  = "OK: "
	PrefixErr = "ERROR: "
)

// Response is the single line a student answers every request with.
type Response struct {
	OK          bool
	Description string
}

// Ok returns a successful Response.
func Ok(description string) Response {
	return Response{OK: true, Description: description}
}

// Error returns a failed Response.
func Error(description string) Response {
	return Response{Description: description}
}

// Errorf returns a failed Response with a formatted description.
func Errorf(format string, args ...interface{}) Response {
	return Error(fmt.Sprintf(format, args...))
}

func (r Response) String() string {
	if r.OK {
		return PrefixOk + r.Description
	}

	return PrefixErr + r.Description
}

// ErrorOrNil returns an error if the response contains an error. Otherwise it
// returns nil.
func (r Response) ErrorOrNil() error {
	if r.OK {
		return nil
	}

	return errors.New(r.Description)
}

// ParseResponse parses a response line. Trailing line terminators and
// surrounding whitespace are ignored.
func ParseResponse(line string) (Response, error) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, PrefixOk):
		return Ok(line[len(PrefixOk):]), nil

	case strings.HasPrefix(line, PrefixErr):
		return Error(line[len(PrefixErr):]), nil

	default:
		return Response{}, fmt.Errorf("Failed to parse '%s': %w", line, ErrMalformedReply)
	}
}
