package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luma/lockdown/protocol"
)

// DefaultSender identifies the teacher console in the envelopes it sends.
const DefaultSender = "TeacherConsole"

// Conn sends commands to a single student. Every call opens its own
// connection, Conn keeps no socket open between calls.
type Conn struct {
	host    string
	port    int
	sender  string
	timeout time.Duration

	log *zap.Logger
}

func New(host string, port int, sender string, timeout time.Duration, log *zap.Logger) *Conn {
	if sender == "" {
		sender = DefaultSender
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Conn{
		host:    host,
		port:    port,
		sender:  sender,
		timeout: timeout,
		log:     log,
	}
}

func (c *Conn) Hello(ctx context.Context, note string) (string, error) {
	return c.Send(ctx, protocol.Hello, note)
}

func (c *Conn) StartSession(ctx context.Context) (string, error) {
	return c.Send(ctx, protocol.StartSession, "Start lockdown session")
}

func (c *Conn) EndSession(ctx context.Context) (string, error) {
	return c.Send(ctx, protocol.EndSession, "End lockdown session")
}

// Command sends a generic Command envelope, sub names the command.
func (c *Conn) Command(ctx context.Context, sub string) (string, error) {
	return c.Send(ctx, protocol.Command, sub)
}

// Send sends one envelope of the given kind and returns the response line.
func (c *Conn) Send(ctx context.Context, kind protocol.Kind, content string) (string, error) {
	env := protocol.NewEnvelope(kind, c.sender, content)

	resp, err := Send(ctx, c.host, c.port, env, c.timeout)
	if err != nil {
		c.log.Warn("Failed to send",
			zap.Stringer("type", kind),
			zap.String("host", c.host),
			zap.Int("port", c.port),
			zap.Error(err))
		return "", err
	}

	c.log.Info("Sent",
		zap.Stringer("type", kind),
		zap.String("host", c.host),
		zap.Int("port", c.port),
		zap.String("response", resp))

	return resp, nil
}
