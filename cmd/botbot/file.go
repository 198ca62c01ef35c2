package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schae234/botbot/internal/checker"
	"github.com/schae234/botbot/internal/checks"
	"github.com/schae234/botbot/internal/config"
	"github.com/schae234/botbot/internal/database"
	"github.com/schae234/botbot/internal/ignore"
	"github.com/schae234/botbot/internal/model"
	"github.com/schae234/botbot/internal/report"
)

// errProblemsFound is returned by --strict runs that found problems.
var errProblemsFound = errors.New("problems found")

// NewFileCmd creates the file command.
func NewFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Check a file or directory tree for problems",
		Long: `File checks every regular file below path and reports the problems found,
grouped by kind, together with the owner of each offending file.

Results are cached; files whose size and modification time have not changed
since the last run are not checked again unless --force-recheck is given.

Examples:
  # Check a project directory
  botbot file /data/project

  # Add the checks for group-shared directories
  botbot file -s /data/shared

  # Show cached results without touching the filesystem
  botbot file -c /data/project

  # Write a Markdown report with German number formatting
  botbot file --markdown --lang de -o report.md /data/project

  # Save a JSON report and still print the summary, failing when
  # anything is found
  botbot file --json -o report.json --tee --strict /data/project

Configuration file (.botbot) example:
  checks:
    largeFileThreshold: 52428800
    importantExtensions: [".sam", ".bam", ".cram"]
  ignore:
    patterns:
      - "*.tmp"
      - ~/scratch`,
		Args: cobra.ExactArgs(1),
		RunE: runFileCmd,
	}

	cmd.Flags().BoolP("cached", "c", false,
		"Report cached problems without checking files (mutually exclusive with --force-recheck)")
	cmd.Flags().BoolP("force-recheck", "k", false,
		"Check every file even when a cached result is still valid")
	cmd.Flags().BoolP("shared", "s", false,
		"Also run the checks for directories shared with a group")
	cmd.Flags().BoolP("follow-symlinks", "l", false,
		"Follow symbolic links")
	cmd.Flags().BoolP("me", "m", false,
		"Only check files owned by the current user")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of files checked concurrently")

	cmd.Flags().String("config", "",
		"Configuration file path (default: .botbot in current or home directory)")
	cmd.Flags().String("ignore-file", "",
		"Ignore file path (default: ~/"+ignore.FileName+")")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the cache database")
	cmd.Flags().Bool("no-db", false,
		"Do not read or write the cache database")

	cmd.Flags().Bool("json", false, "Output JSON report")
	cmd.Flags().Bool("markdown", false, "Output Markdown report")
	cmd.Flags().Bool("html", false, "Output HTML report")
	cmd.Flags().StringP("out", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"Also print the text report to stdout when writing to a file")
	cmd.Flags().String("lang", "",
		"Language (BCP 47 tag) for number formatting in Markdown reports")
	cmd.Flags().Bool("strict", false,
		"Exit with an error when any problem is found")

	return cmd
}

func runFileCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runFile(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig creates a Config from cobra command flags and the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", args[0], err)
	}
	cfg.Path = path
	cfg.Verbose = getVerboseFlag(cmd)

	for name, dst := range map[string]*bool{
		"cached":          &cfg.Cached,
		"force-recheck":   &cfg.ForceRecheck,
		"shared":          &cfg.Shared,
		"follow-symlinks": &cfg.FollowSymlinks,
		"me":              &cfg.OnlyMine,
		"json":            &cfg.JSONReport,
		"markdown":        &cfg.MarkdownReport,
		"html":            &cfg.HTMLReport,
		"tee":             &cfg.Tee,
		"strict":          &cfg.Strict,
	} {
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("out"); err != nil {
		return nil, err
	}
	if cfg.Language, err = flags.GetString("lang"); err != nil {
		return nil, err
	}
	if cfg.IgnoreFile, err = flags.GetString("ignore-file"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicit config path must exist; otherwise a missing file just
	// means defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		if cfg.File, err = config.LoadConfigFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runFile checks cfg.Path and writes the report.
func runFile(ctx context.Context, cfg *config.Config, out, errOut io.Writer, logger *slog.Logger) error {
	rules, err := loadIgnoreRules(cfg, logger)
	if err != nil {
		return err
	}

	var db *database.CacheDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	opts := []checker.Option{
		checker.WithLogger(logger),
		checker.WithIgnore(rules),
		checker.WithFollowSymlinks(cfg.FollowSymlinks),
		checker.WithOnlyMine(cfg.OnlyMine),
		checker.WithWorkers(cfg.Workers),
		checker.WithForceRecheck(cfg.ForceRecheck),
		checker.WithCachedOnly(cfg.Cached),
		checker.WithChecks(checks.Default(cfg.CheckOptions())...),
	}
	if cfg.Shared {
		opts = append(opts, checker.WithChecks(checks.Shared()...))
	}
	if exts := cfg.File.ImportantExtensions(); exts != nil {
		opts = append(opts, checker.WithImportantExtensions(exts))
	}
	if db != nil {
		opts = append(opts, checker.WithCache(db))
	}
	if cfg.Verbose {
		opts = append(opts, checker.WithProgress(checker.NewProgressBar(errOut, checker.DefaultBarWidth)))
	}

	c := checker.New(opts...)

	status := out
	if cfg.ReportFile == "" && reportFormat(cfg) != report.FormatText {
		// Keep stdout parseable.
		status = errOut
	}

	var rep *model.Report
	if cfg.Cached {
		rep, err = c.CachedReport(ctx, cfg.Path)
	} else {
		var cl *checker.Checklist
		cl, err = c.BuildChecklist(ctx, cfg.Path)
		if err == nil {
			if cfg.Verbose {
				fmt.Fprintf(status, "Located %d files.\n", len(cl.Files))
			}
			rep, err = c.Check(ctx, cl)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(status, "Found %d problems over %d files in %s seconds.\n",
		rep.ProblemCount, rep.Status.Files, report.FormatSeconds(rep.Status.Seconds))

	if err := outputReport(cfg, rep, out); err != nil {
		return err
	}

	if db != nil && !rep.Cached {
		if _, err := db.SaveRun(ctx, rep); err != nil {
			logger.Error("failed to save run", "root", rep.Root, "error", err)
		}
	}

	if cfg.Strict && rep.HasProblems() {
		return fmt.Errorf("%w: %d in %s", errProblemsFound, rep.ProblemCount, rep.Root)
	}
	return nil
}

// loadIgnoreRules combines the ignore file with the config file patterns.
func loadIgnoreRules(cfg *config.Config, logger *slog.Logger) (*ignore.Rules, error) {
	path := cfg.IgnoreFile
	if path == "" {
		path = ignore.Find("")
	}

	rules, err := ignore.Load(path)
	if err != nil {
		return nil, err
	}
	rules.Add(cfg.File.IgnorePatterns()...)
	logger.Debug("ignore rules loaded", "file", path, "patterns", rules.Len())
	return rules, nil
}

// reportFormat returns the format selected by the report flags.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	case cfg.HTMLReport:
		return report.FormatHTML
	default:
		return report.FormatText
	}
}

// outputReport writes rep in the requested format to cfg.ReportFile, or to
// out when no file was given. With cfg.Tee the text report also goes to out.
func outputReport(cfg *config.Config, rep *model.Report, out io.Writer) (err error) {
	settings := report.Settings{Version: getVersion(), Language: cfg.ReportLanguage()}

	if cfg.ReportFile == "" {
		return writeReport(reportFormat(cfg), rep, out, settings)
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list paths and owners, so keep them private.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	w, err := report.NewWriter(reportFormat(cfg), f, settings)
	if err != nil {
		return err
	}
	if cfg.Tee {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(out))
	}
	_, err = w.Write(rep)
	return err
}

func writeReport(format report.Format, rep *model.Report, out io.Writer, settings report.Settings) error {
	w, err := report.NewWriter(format, out, settings)
	if err != nil {
		return err
	}
	_, err = w.Write(rep)
	return err
}
