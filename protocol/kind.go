package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of an Envelope.
type Kind int

const (
	Hello Kind = iota
	StatusUpdate
	Command
	StartSession
	EndSession
)

var kindNames = [...]string{
	Hello:        "Hello",
	StatusUpdate: "StatusUpdate",
	Command:      "Command",
	StartSession: "StartSession",
	EndSession:   "EndSession",
}

// Kinds lists every known Kind in ordinal order.
func Kinds() []Kind {
	return []Kind{Hello, StatusUpdate, Command, StartSession, EndSession}
}

func (k Kind) String() string {
	if k.IsValid() {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	return k >= Hello && int(k) < len(kindNames)
}

// ParseKind parses a kind name, ignoring case. The decimal ordinal of a kind
// is accepted as well.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)

	for _, k := range Kinds() {
		if strings.EqualFold(s, kindNames[k]) {
			return k, nil
		}
	}

	if n, err := strconv.Atoi(s); err == nil && Kind(n).IsValid() {
		return Kind(n), nil
	}

	return 0, fmt.Errorf("%q: %w", s, ErrUnknownKind)
}
