package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/luma/lockdown/protocol"
)

// DefaultTimeout bounds a whole Send when no timeout is given.
const DefaultTimeout = 2500 * time.Millisecond

// maxResponseBytes bounds how much of a response line is read.
const maxResponseBytes = 64 * 1024

// TransportError is returned by Send when the exchange with the student
// failed. Op is one of "dial", "write" or "read".
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the exchange failed because the deadline passed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Send delivers env to the student listening on host:port and returns its
// trimmed response line. An empty string means the student closed the
// connection without answering.
//
// timeout bounds the whole exchange, connecting included. Zero or less
// means DefaultTimeout. Send never retries.
func Send(ctx context.Context, host string, port int, env *protocol.Envelope, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	line, err := protocol.Encode(env)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", &TransportError{Op: "dial", Addr: addr, Err: err}
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return "", &TransportError{Op: "dial", Addr: addr, Err: err}
	}

	// Cancelling the parent context interrupts blocked reads and writes
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(append(line, protocol.Terminal...)); err != nil {
		return "", &TransportError{Op: "write", Addr: addr, Err: contextErr(ctx, err)}
	}

	resp, err := protocol.ReadLine(bufio.NewReader(io.LimitReader(conn, maxResponseBytes)))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", &TransportError{Op: "read", Addr: addr, Err: contextErr(ctx, err)}
	}

	return strings.TrimSpace(resp), nil
}

// contextErr prefers the context's error when it is why the I/O failed.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}

	return err
}
