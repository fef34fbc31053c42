package transport

import (
	"time"

	"go.uber.org/zap"

	"github.com/luma/lockdown/internal/metrics"
	"github.com/luma/lockdown/session"
)

const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 5050
	DefaultMaxConns        = 64
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultMaxMessageBytes = 64 * 1024
	DefaultEventBuffer     = 255
)

type Options struct {
	// Host to listen on, defaults to the loopback address
	Host string

	// Port to listen on. Zero picks a free port, see TCP.Addr
	Port int

	// Reuseport controls setting SO_REUSEPORT
	Reuseport bool

	// MaxConns bounds the number of connections handled at once. Negative
	// disables the limit, zero uses DefaultMaxConns
	MaxConns int

	// ReadTimeout bounds reading the request line of each connection
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response line of each connection
	WriteTimeout time.Duration

	// MaxMessageBytes bounds the size of a request line
	MaxMessageBytes int64

	// EventBuffer is how many observer events may be queued before new
	// events are dropped
	EventBuffer int

	// Store holds the session state. A new store is created when nil
	Store *session.Store

	Observer Observer

	Metrics *metrics.Metrics

	Log *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}

	if o.MaxConns == 0 {
		o.MaxConns = DefaultMaxConns
	}

	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}

	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}

	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = DefaultMaxMessageBytes
	}

	if o.EventBuffer <= 0 {
		o.EventBuffer = DefaultEventBuffer
	}

	if o.Store == nil {
		o.Store = session.NewStore()
	}

	if o.Log == nil {
		o.Log = zap.NewNop()
	}

	return o
}
