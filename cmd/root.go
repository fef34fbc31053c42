package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/lockdown/cmd/gen"
	"github.com/luma/lockdown/internal/meta"
)

var RootCmd = &cobra.Command{
	Use:   "lockdown",
	Short: "Start and end lockdown sessions over the local network",
	Long: `Start and end lockdown sessions over the local network

A student listens for commands, a teacher sends them.

Usage
	lockdown student
	lockdown teacher start

`,
	SilenceUsage: true,
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), meta.GetInfo())
	},
}

func init() {
	RootCmd.AddCommand(StudentCmd)
	RootCmd.AddCommand(TeacherCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
