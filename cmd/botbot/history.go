package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/schae234/botbot/internal/config"
	"github.com/schae234/botbot/internal/database"
	"github.com/schae234/botbot/internal/report"
)

// errNoHistory is returned when no run has ever been saved.
var errNoHistory = errors.New("no history found (run 'botbot file <path>' first)")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show past runs stored in the cache database",
		Long: `History lists the runs recorded for a path, newest first.

Without a path, or with --list-roots, it lists every path that has been
checked. --show re-renders a stored run in any report format.

Examples:
  # List every checked root
  botbot history --list-roots

  # List the runs for a directory
  botbot history /data/project

  # Print run 12 as JSON
  botbot history --show 12 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("list-roots", false, "List every checked path")
	cmd.Flags().Int64("show", 0, "Render the stored run with this ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory holding the cache database")
	cmd.Flags().Bool("json", false, "Render --show as JSON")
	cmd.Flags().Bool("markdown", false, "Render --show as Markdown")
	cmd.Flags().Bool("html", false, "Render --show as HTML")
	cmd.Flags().String("lang", "", "Language (BCP 47 tag) for number formatting in Markdown")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	listRoots, err := flags.GetBool("list-roots")
	if err != nil {
		return err
	}
	showID, err := flags.GetInt64("show")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.HTMLReport, err = flags.GetBool("html"); err != nil {
		return err
	}
	if cfg.Language, err = flags.GetString("lang"); err != nil {
		return err
	}
	if err := cfg.ValidateOutput(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return errNoHistory
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case showID != 0:
		rep, err := db.GetRunByID(ctx, showID)
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", showID, err)
		}
		if rep == nil {
			return fmt.Errorf("run %d not found", showID)
		}
		return writeReport(reportFormat(cfg), rep, out,
			report.Settings{Version: getVersion(), Language: cfg.ReportLanguage()})

	case listRoots || len(args) == 0:
		roots, err := db.ListRoots(ctx)
		if err != nil {
			return fmt.Errorf("failed to list roots: %w", err)
		}
		for _, root := range roots {
			fmt.Fprintln(out, root)
		}
		return nil

	default:
		root, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", args[0], err)
		}
		runs, err := db.ListRuns(ctx, root)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs recorded for %s", root)
		}
		return printRuns(out, runs)
	}
}

// printRuns writes runs as an aligned table.
func printRuns(w io.Writer, runs []database.RunMetadata) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tFILES\tPROBLEMS\tSECONDS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\n",
			r.ID, r.Timestamp.Local().Format(time.DateTime), r.Files, r.Problems, r.Seconds)
	}
	return tw.Flush()
}
