package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	botlog "github.com/schae234/botbot/internal/log"
)

// NewRootCmd creates the root command for BotBot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "botbot",
		Short: "Check a directory tree for problem files",
		Long: `BotBot checks files and directories for common problems on shared
filesystems: missing group permissions, broken symbolic links, uncompressed
sequencing data, large plain-text files and images carrying GPS metadata.

Results are cached in a local database so unchanged files are not checked
again on the next run.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging and progress output")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records to stderr as JSON")

	cmd.AddCommand(NewFileCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the logger for cmd, writing to its stderr in the format
// selected by --log-json.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		jsonLogs, _ = cmd.Root().PersistentFlags().GetBool("log-json")
	}
	if jsonLogs {
		return botlog.NewJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return botlog.NewLogger(cmd.ErrOrStderr(), verbose)
}
