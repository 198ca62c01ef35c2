package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"

	"github.com/schae234/botbot/internal/checks"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "botbot"

	// DefaultLargeFileThreshold is the size above which plain-text files
	// are reported. 100 MiB keeps ordinary tables and logs out of the report.
	DefaultLargeFileThreshold = checks.DefaultLargeFileThreshold
)

// DefaultWorkers is the number of files checked concurrently.
// Checks are mostly I/O bound, so one worker per CPU keeps the disk busy
// without flooding it.
var DefaultWorkers = runtime.NumCPU()

// Config holds all configuration options for a BotBot run.
// It is populated from CLI flags and the .botbot file and passed through the
// application rather than kept in global state.
type Config struct {
	// Path is the file or directory to check.
	Path string

	// Verbose enables debug logging and the progress bar.
	Verbose bool

	// Cached reports the problems stored by earlier runs without
	// rechecking anything. Mutually exclusive with ForceRecheck.
	Cached bool

	// ForceRecheck ignores cached results and checks every file again.
	ForceRecheck bool

	// Shared adds the shared-directory checks (group permissions).
	Shared bool

	// FollowSymlinks descends into linked directories and checks link
	// targets instead of skipping links.
	FollowSymlinks bool

	// OnlyMine limits the check to files owned by the current user.
	OnlyMine bool

	// Workers is the number of files checked concurrently.
	Workers int

	// JSONReport selects JSON output. Mutually exclusive with the other formats.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// HTMLReport selects HTML output.
	HTMLReport bool

	// ReportFile is the output file path for the report.
	// When empty the report is written to stdout.
	ReportFile string

	// Tee also prints the plain-text report to stdout when ReportFile is set.
	Tee bool

	// Language is a BCP 47 tag selecting number formatting in Markdown
	// reports. Empty keeps English.
	Language string

	// Strict makes a run that finds problems exit with an error.
	Strict bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches the usual locations (see FindConfigFile).
	ConfigFilePath string

	// File holds the settings loaded from the configuration file.
	File *File

	// IgnoreFile is the path of the ignore file.
	// If empty, ~/.botbotignore is used when it exists.
	IgnoreFile string

	// DBDir is the directory holding the cache database.
	// Defaults to the XDG data directory (~/.local/share/botbot on Linux).
	DBDir string

	// SaveToDB enables the cache database. --no-db turns it off.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Workers:  DefaultWorkers,
		File:     NewFile(),
		DBDir:    XDGDataDir(),
		SaveToDB: true,
	}
}

// CheckOptions returns the check settings from the configuration file,
// falling back to the built-in defaults for anything the file leaves unset.
func (c *Config) CheckOptions() checks.Options {
	opts := checks.DefaultOptions()
	if c.File == nil {
		return opts
	}

	if len(c.File.Checks.FastqExtensions) > 0 {
		opts.FastqExtensions = c.File.Checks.FastqExtensions
	}
	if len(c.File.Checks.ImageExtensions) > 0 {
		opts.ImageExtensions = c.File.Checks.ImageExtensions
	}
	if c.File.Checks.LargeFileThreshold != 0 {
		opts.LargeFileThreshold = c.File.Checks.LargeFileThreshold
	}
	return opts
}

// XDGDataDir returns the XDG data directory for BotBot.
// On Linux: ~/.local/share/botbot
// On macOS: ~/Library/Application Support/botbot
// On Windows: %LOCALAPPDATA%\botbot
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for BotBot.
// On Linux: ~/.config/botbot
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package sentinel errors.
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrNoPath
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if err := c.ValidateOutput(); err != nil {
		return err
	}

	if c.Cached && c.ForceRecheck {
		return ErrConflictingCacheModes
	}
	if c.Cached && !c.SaveToDB {
		return ErrCacheDisabled
	}

	if c.File != nil && c.File.Checks.LargeFileThreshold < 0 {
		return ErrInvalidLargeFileThreshold
	}

	return nil
}

// ValidateOutput checks the report output settings alone, for commands that
// render reports without checking a path.
func (c *Config) ValidateOutput() error {
	formats := 0
	for _, enabled := range []bool{c.JSONReport, c.MarkdownReport, c.HTMLReport} {
		if enabled {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	if c.Tee && c.ReportFile == "" {
		return ErrTeeWithoutReportFile
	}

	if c.Language != "" {
		if _, err := language.Parse(c.Language); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLanguage, c.Language)
		}
	}

	return nil
}

// ReportLanguage returns the parsed Language, or language.Und when it is
// empty or invalid.
func (c *Config) ReportLanguage() language.Tag {
	if c.Language == "" {
		return language.Und
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und
	}
	return tag
}
