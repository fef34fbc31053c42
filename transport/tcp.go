package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/luma/lockdown/internal/metrics"
	"github.com/luma/lockdown/protocol"
	"github.com/luma/lockdown/session"
)

// acceptRetryDelay is how long the accept loop pauses after a failed Accept
const acceptRetryDelay = 50 * time.Millisecond

// kindInvalid labels requests that never decoded into an envelope
const kindInvalid = "invalid"

var ErrServerClosed = errors.New("Server has been closed")

// TCP is the student command server. Every accepted connection carries one
// request line and gets one response line back before it is closed.
type TCP struct {
	opts Options
	addr string

	store   *session.Store
	events  *eventQueue
	metrics *metrics.Metrics
	log     *zap.Logger

	mu         sync.Mutex
	running    bool
	closed     bool
	cancel     context.CancelFunc
	listener   net.Listener
	acceptDone chan struct{}

	connWaiter sync.WaitGroup
}

// NewTCP creates a stopped server. The observer queue starts right away, call
// Close to release it.
func NewTCP(options Options) *TCP {
	opts := options.withDefaults()

	t := &TCP{
		opts:    opts,
		addr:    net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		store:   opts.Store,
		metrics: opts.Metrics,
		log:     opts.Log,
	}

	t.events = newEventQueue(opts.EventBuffer, opts.Observer, opts.Metrics, opts.Log.Named("events"))

	t.store.Listen(func(s session.Snapshot) {
		t.metrics.SetSessionActive(s.Active)
		t.events.sessionChanged(s.Active)
	})

	return t
}

// Start binds the listener and starts accepting connections. Calling Start
// on a running server does nothing.
func (t *TCP) Start(parentCtx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrServerClosed
	}

	if t.running {
		return nil
	}

	listener, err := t.listen()
	if err != nil {
		return fmt.Errorf("Failed to listen on %s: %w", t.addr, err)
	}

	ctx, cancel := context.WithCancel(parentCtx)
	done := make(chan struct{})

	t.running = true
	t.cancel = cancel
	t.listener = listener
	t.acceptDone = done

	port := listener.Addr().(*net.TCPAddr).Port

	t.log.Info("Listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("maxConns", t.opts.MaxConns),
		zap.Bool("reuseport", t.opts.Reuseport))
	t.events.logf(fmt.Sprintf("Student server listening on port %d.", port))

	// Unblock Accept when the parent context goes away without a Stop
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			t.log.Warn("TCP Listener did not close cleanly", zap.Error(err))
		}
	}()

	go func() {
		defer close(done)
		t.acceptLoop(ctx, listener)
		t.acceptExited(done)
	}()

	return nil
}

// acceptExited marks the server stopped when its accept loop ended without
// a Stop, e.g. because the start context was cancelled.
func (t *TCP) acceptExited(done chan struct{}) {
	t.mu.Lock()

	if !t.running || t.acceptDone != done {
		t.mu.Unlock()
		return
	}

	t.running = false
	t.cancel()
	t.listener = nil
	t.mu.Unlock()

	t.log.Info("Stopped TCP server")
	t.events.logf("Student server stopped.")
}

// Stop closes the listener and waits for the accept loop to exit. Requests
// that are already being handled run to completion. Calling Stop on a
// stopped server does nothing.
func (t *TCP) Stop() error {
	t.mu.Lock()

	if !t.running {
		t.mu.Unlock()
		return nil
	}

	t.running = false
	t.cancel()

	err := t.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	done := t.acceptDone
	t.mu.Unlock()

	<-done

	t.log.Info("Stopped TCP server")
	t.events.logf("Student server stopped.")

	return err
}

// Close stops the server, waits for in-flight requests and delivers any
// queued observer events. The server cannot be started again.
func (t *TCP) Close() error {
	err := t.Stop()

	t.mu.Lock()
	alreadyClosed := t.closed
	t.closed = true
	t.mu.Unlock()

	if alreadyClosed {
		return err
	}

	t.log.Info("Waiting for connection handlers")
	t.connWaiter.Wait()

	t.events.close()
	t.log.Info("TCP server closed")

	return err
}

// Addr returns the address the server is listening on, or nil when it is
// not running.
func (t *TCP) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}

	return t.listener.Addr()
}

func (t *TCP) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.running
}

func (t *TCP) Store() *session.Store {
	return t.store
}

func (t *TCP) listen() (net.Listener, error) {
	var (
		listener net.Listener
		err      error
	)

	if t.opts.Reuseport {
		listener, err = reuseport.Listen("tcp", t.addr)
	} else {
		listener, err = net.Listen("tcp", t.addr)
	}

	if err != nil {
		return nil, err
	}

	if t.opts.MaxConns > 0 {
		listener = netutil.LimitListener(listener, t.opts.MaxConns)
	}

	return listener, nil
}

func (t *TCP) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				// The listener was closed while we were waiting for new
				// connections, that's fine.
				t.log.Info("Stopped accepting new connections")
				return
			}

			t.log.Warn("Failed to accept connection", zap.Error(err))
			t.events.logf("Server accept error: " + err.Error())

			select {
			case <-ctx.Done():
				return
			case <-time.After(acceptRetryDelay):
			}

			continue
		}

		t.connWaiter.Add(1)

		go func() {
			defer t.connWaiter.Done()
			t.handleConn(conn)
		}()
	}
}

func (t *TCP) handleConn(conn net.Conn) {
	t.metrics.ConnOpened()
	defer t.metrics.ConnClosed()

	log := t.log.Named("conn").With(zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Debug("Connection did not close cleanly", zap.Error(err))
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(t.opts.ReadTimeout)); err != nil {
		t.abandon(log, "Failed to set read deadline", err)
		return
	}

	var resp protocol.Response

	line, err := protocol.ReadLineLimit(conn, t.opts.MaxMessageBytes)
	switch {
	case errors.Is(err, protocol.ErrMessageTooLarge):
		log.Warn("Client request is too large", zap.Int64("maxBytes", t.opts.MaxMessageBytes))
		t.metrics.RecordRequest(kindInvalid, metrics.ResultError)
		resp = protocol.Error(err.Error())

	case err != nil && !errors.Is(err, io.EOF):
		t.abandon(log, "Failed to read client request", err)
		return

	default:
		resp = t.handle(line, log)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(t.opts.WriteTimeout)); err != nil {
		t.abandon(log, "Failed to set write deadline", err)
		return
	}

	if err := protocol.WriteResponse(conn, resp); err != nil {
		t.abandon(log, "Failed to write response", err)
		return
	}
}

// abandon gives up on a single connection, the server carries on.
func (t *TCP) abandon(log *zap.Logger, msg string, err error) {
	log.Warn(msg, zap.Error(err))
	t.events.logf("Client handler error: " + err.Error())
}

// handle turns one request line into its response.
func (t *TCP) handle(line string, log *zap.Logger) protocol.Response {
	if strings.TrimSpace(line) == "" {
		t.metrics.RecordRequest(kindInvalid, metrics.ResultError)
		return protocol.Error(protocol.ErrEmptyMessage.Error())
	}

	env, err := protocol.Decode([]byte(line))
	if err != nil {
		log.Warn("Failed to decode client request", zap.Error(err))
		t.metrics.RecordRequest(kindInvalid, metrics.ResultError)

		if errors.Is(err, protocol.ErrNullMessage) {
			return protocol.Error(err.Error())
		}

		return protocol.Errorf("Invalid JSON (%s)", err)
	}

	resp := t.dispatch(env, log)

	result := metrics.ResultOK
	if !resp.OK {
		result = metrics.ResultError
	}
	t.metrics.RecordRequest(env.Kind.String(), result)

	return resp
}

func (t *TCP) dispatch(env *protocol.Envelope, log *zap.Logger) protocol.Response {
	log.Info("Received",
		zap.Stringer("type", env.Kind),
		zap.String("sender", env.Sender),
		zap.Time("timestamp", env.Timestamp))
	t.events.logf(fmt.Sprintf("Received: %s from %s.", env.Kind, env.Sender))

	switch kind := env.NormalizedKind(); kind {
	case protocol.Hello:
		t.events.logf("HELLO content: " + env.Content)
		return protocol.Ok("HELLO received")

	case protocol.StartSession:
		t.events.logf("Lockdown session started.")
		t.store.Set(true, env.Sender)
		return protocol.Ok("Session started")

	case protocol.EndSession:
		t.events.logf("Lockdown session ended.")
		t.store.Set(false, env.Sender)
		return protocol.Ok("Session ended")

	default:
		err := &protocol.ProtocolError{Kind: kind}
		log.Warn("Unsupported message type", zap.Error(err))
		return protocol.Error(err.Error())
	}
}
