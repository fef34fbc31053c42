package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/lockdown/client"
	"github.com/luma/lockdown/internal/env"
	"github.com/luma/lockdown/protocol"
	"github.com/luma/lockdown/transport"
)

var (
	// The student to send commands to
	teacherHost string
	teacherPort int

	// How long to wait for the student to answer
	sendTimeout time.Duration

	// Who the commands are from
	sender string

	// Used by send
	sendType    string
	sendContent string
)

// ErrRejected is returned when the student answers with an ERROR line.
var ErrRejected = errors.New("Student rejected the command")

func init() {
	flags := TeacherCmd.PersistentFlags()

	flags.StringVarP(&teacherHost, "host", "a", transport.DefaultHost, "The student host to send to")
	flags.IntVarP(&teacherPort, "port", "p", transport.DefaultPort, "The student port to send to")
	flags.DurationVarP(&sendTimeout, "timeout", "t", client.DefaultTimeout, "How long to wait for the student to answer")
	flags.StringVar(&sender, "sender", client.DefaultSender, "Who the commands are from")

	sendFlags := TeacherSendCmd.Flags()
	sendFlags.StringVar(&sendType, "type", protocol.Command.String(), "The message type to send")
	sendFlags.StringVar(&sendContent, "content", "", "The message content to send")

	TeacherCmd.AddCommand(TeacherStartCmd)
	TeacherCmd.AddCommand(TeacherEndCmd)
	TeacherCmd.AddCommand(TeacherHelloCmd)
	TeacherCmd.AddCommand(TeacherSendCmd)
}

var TeacherCmd = &cobra.Command{
	Use:   "teacher",
	Short: "Send lockdown commands to a student",
	Long: `Send lockdown commands to a student

Usage
	lockdown teacher start
	lockdown teacher end
	lockdown teacher hello "good morning"
	lockdown teacher send --type Command --content StartSession

`,
}

var TeacherStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a lockdown session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTeacher(cmd, protocol.StartSession, func(ctx context.Context, c *client.Conn) (string, error) {
			return c.StartSession(ctx)
		})
	},
}

var TeacherEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the lockdown session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTeacher(cmd, protocol.EndSession, func(ctx context.Context, c *client.Conn) (string, error) {
			return c.EndSession(ctx)
		})
	},
}

var TeacherHelloCmd = &cobra.Command{
	Use:   "hello [note]",
	Short: "Say hello to a student",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		note := "HELLO from Teacher"
		if len(args) == 1 {
			note = args[0]
		}

		return runTeacher(cmd, protocol.Hello, func(ctx context.Context, c *client.Conn) (string, error) {
			return c.Hello(ctx, note)
		})
	},
}

var TeacherSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an arbitrary message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := protocol.ParseKind(sendType)
		if err != nil {
			return err
		}

		return runTeacher(cmd, kind, func(ctx context.Context, c *client.Conn) (string, error) {
			return c.Send(ctx, kind, sendContent)
		})
	},
}

func runTeacher(cmd *cobra.Command, kind protocol.Kind, send func(context.Context, *client.Conn) (string, error)) error {
	conf, err := env.LoadConfig(cmd.Context())
	if err != nil {
		return err
	}
	applyTeacherFlags(cmd, conf)

	log, err := env.MakeLogger(conf.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	conn := client.New(conf.Host, conf.Port, sender, conf.SendTimeout, log.Named("client"))
	out := cmd.OutOrStdout()

	resp, err := send(cmd.Context(), conn)
	if err != nil {
		fmt.Fprintf(out, "%s failed: %v\n", kind, err)
		return err
	}

	fmt.Fprintf(out, "%s sent. Response: %s\n", kind, describeResponse(resp))

	return checkResponse(resp, log)
}

func applyTeacherFlags(cmd *cobra.Command, conf *env.Config) {
	flags := cmd.Flags()

	if flags.Changed("host") {
		conf.Host = teacherHost
	}

	if flags.Changed("port") {
		conf.Port = teacherPort
	}

	if flags.Changed("timeout") {
		conf.SendTimeout = sendTimeout
	}
}

func describeResponse(resp string) string {
	if strings.TrimSpace(resp) == "" {
		return "(none)"
	}

	return resp
}

// checkResponse fails on ERROR replies. Missing or unrecognised replies are
// only logged, the student may be an older build.
func checkResponse(resp string, log *zap.Logger) error {
	if resp == "" {
		log.Warn("Student sent no response")
		return nil
	}

	parsed, err := protocol.ParseResponse(resp)
	if err != nil {
		log.Warn("Unrecognised response", zap.String("response", resp), zap.Error(err))
		return nil
	}

	if rerr := parsed.ErrorOrNil(); rerr != nil {
		return fmt.Errorf("%w: %v", ErrRejected, rerr)
	}

	return nil
}
