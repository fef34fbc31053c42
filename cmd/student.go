package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/lockdown/internal/env"
	"github.com/luma/lockdown/internal/httpapi"
	"github.com/luma/lockdown/internal/metrics"
	"github.com/luma/lockdown/session"
	"github.com/luma/lockdown/transport"
)

var (
	// The host to listen on
	studentHost string

	// The port to listen for teacher commands on
	studentPort int

	// The port to serve the status API on, empty disables it
	httpPort string

	// Whether to bind with SO_REUSEPORT
	reuseport bool
)

func init() {
	flags := StudentCmd.PersistentFlags()

	flags.IntVarP(&studentPort, "port", "p", transport.DefaultPort, "The port to listen for teacher commands on")
	flags.StringVar(&httpPort, "http-port", "5051", "The port to serve the status API on, empty to disable it")
	flags.StringVarP(&studentHost, "host", "a", transport.DefaultHost, "The host to listen on")
	flags.BoolVar(&reuseport, "reuseport", false, "Listen with SO_REUSEPORT")
}

var StudentCmd = &cobra.Command{
	Use:   "student",
	Short: "Listen for lockdown commands from a teacher",
	Long: `Listen for lockdown commands from a teacher

Usage
	lockdown student

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}
		applyStudentFlags(cmd, conf)

		log, err := env.MakeLogger(conf.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		store := session.NewStore()
		m := metrics.New()
		console := newConsole(cmd.OutOrStdout())

		console.Status("Status: Starting")

		tcp := transport.NewTCP(transport.Options{
			Host:        conf.Host,
			Port:        conf.Port,
			Reuseport:   reuseport,
			MaxConns:    conf.MaxConns,
			ReadTimeout: conf.ReadTimeout,
			Store:       store,
			Observer:    console,
			Metrics:     m,
			Log:         log.Named("transport"),
		})

		if err := tcp.Start(ctx); err != nil {
			return err
		}

		console.Status("Status: Connected (listener active)")

		var s *http.Server
		if conf.HTTPPort != "" {
			s = &http.Server{
				Addr:    net.JoinHostPort(conf.Host, conf.HTTPPort),
				Handler: httpapi.NewRouter(conf.DebugHTTP, store, m, log.Named("http")),
			}

			// Initializing the server in a goroutine so that
			// it won't block the graceful shutdown handling below
			go func() {
				if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Http server errored", zap.Error(err))
				}
			}()
		}

		log.Info("Listening",
			zap.Any("config", conf),
			zap.Stringer("addr", tcp.Addr()))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if s != nil {
			s.SetKeepAlivesEnabled(false)
			if herr := s.Shutdown(shutdownCtx); herr != nil {
				err = multierr.Append(err, fmt.Errorf("http server forced to shutdown: %w", herr))
			}
		}

		if terr := tcp.Close(); terr != nil {
			err = multierr.Append(err, fmt.Errorf("tcp server forced to shutdown: %w", terr))
		}

		log.Info("Exiting", zap.Error(err))
		return err
	},
}

func applyStudentFlags(cmd *cobra.Command, conf *env.Config) {
	flags := cmd.Flags()

	if flags.Changed("host") {
		conf.Host = studentHost
	}

	if flags.Changed("port") {
		conf.Port = studentPort
	}

	if flags.Changed("http-port") {
		conf.HTTPPort = httpPort
	}
}

// console prints the server's events the way the student window shows them.
type console struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func newConsole(out io.Writer) *console {
	return &console{out: out, now: time.Now}
}

func (c *console) OnLog(text string) {
	c.println(text)
}

func (c *console) OnSessionActiveChanged(active bool) {
	if active {
		c.Status("Status: Session ACTIVE (Lockdown)")
	} else {
		c.Status("Status: Session INACTIVE")
	}
}

func (c *console) Status(text string) {
	c.println(text)
}

func (c *console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "[%s] %s\n", c.now().Format("15:04:05"), text)
}

var _ transport.Observer = (*console)(nil)
