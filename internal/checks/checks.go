// Package checks provides the per-file checks run by the checker.
//
// A Check inspects one FileInfo and reports at most one problem code. Checks
// must be safe for concurrent use: the checker runs them from several
// goroutines at once.
package checks

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/model"
)

// Check defines the interface for a single file check.
type Check interface {
	// Name returns the check's name for logging.
	Name() string

	// Run inspects fi and returns the problem found, if any.
	Run(fi *fileinfo.FileInfo) (model.ProblemCode, bool)
}

// Configured is implemented by checks whose result depends on settings
// beyond their name. Settings returns a stable description of them.
type Configured interface {
	Settings() string
}

// Volatile is implemented by checks whose result depends on files other
// than the one being checked. Their results are never cached.
type Volatile interface {
	Volatile() bool
}

// Func adapts a plain function to the Check interface.
type Func struct {
	name     string
	settings string
	volatile bool
	fn       func(*fileinfo.FileInfo) (model.ProblemCode, bool)
}

// FuncOption configures a Func.
type FuncOption func(*Func)

// WithSettings records the settings fn was built with.
func WithSettings(settings string) FuncOption {
	return func(f *Func) {
		f.settings = settings
	}
}

// ReadsOtherFiles marks fn as looking at files besides its argument.
func ReadsOtherFiles() FuncOption {
	return func(f *Func) {
		f.volatile = true
	}
}

// NewFunc creates a named Check from fn.
func NewFunc(name string, fn func(*fileinfo.FileInfo) (model.ProblemCode, bool), opts ...FuncOption) *Func {
	f := &Func{name: name, fn: fn}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the check's name.
func (f *Func) Name() string {
	return f.name
}

// Settings returns the settings given with WithSettings.
func (f *Func) Settings() string {
	return f.settings
}

// Volatile reports whether the check was built with ReadsOtherFiles.
func (f *Func) Volatile() bool {
	return f.volatile
}

// Run calls the wrapped function.
func (f *Func) Run(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
	return f.fn(fi)
}

// IsVolatile reports whether c depends on files other than its argument.
func IsVolatile(c Check) bool {
	v, ok := c.(Volatile)
	return ok && v.Volatile()
}

// Fingerprint identifies a check set together with its settings.
// Two sets yield the same fingerprint only if they hold the same checks in
// the same order with the same settings.
func Fingerprint(cs []Check) string {
	h := sha3.New256()
	for _, c := range cs {
		h.Write([]byte(c.Name()))
		if cfg, ok := c.(Configured); ok {
			h.Write([]byte{'='})
			h.Write([]byte(cfg.Settings()))
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// listSettings describes an extension list for WithSettings.
func listSettings(exts []string) string {
	lower := make([]string, len(exts))
	for i, e := range exts {
		lower[i] = strings.ToLower(e)
	}
	return strings.Join(lower, ",")
}

// Options tunes the general checks.
type Options struct {
	// FastqExtensions are the extensions of uncompressed FASTQ files.
	FastqExtensions []string

	// LargeFileThreshold is the size in bytes above which plain-text
	// files are flagged.
	LargeFileThreshold int64

	// ImageExtensions are the extensions inspected for GPS metadata.
	ImageExtensions []string
}

// DefaultLargeFileThreshold is 100 MiB.
const DefaultLargeFileThreshold int64 = 100 << 20

// DefaultOptions returns the built-in check settings.
func DefaultOptions() Options {
	return Options{
		FastqExtensions:    []string{".fastq", ".fq"},
		LargeFileThreshold: DefaultLargeFileThreshold,
		ImageExtensions:    []string{".jpg", ".jpeg", ".tif", ".tiff", ".heic"},
	}
}

// Default returns the general checks configured by opts.
func Default(opts Options) []Check {
	return []Check{
		NewFastqCheck(opts.FastqExtensions),
		NewSamCheck(),
		NewLargePlaintextCheck(opts.LargeFileThreshold),
		NewImageLocationCheck(opts.ImageExtensions),
	}
}

// Shared returns the checks for directories shared with a group.
func Shared() []Check {
	return []Check{
		NewGroupReadableCheck(),
		NewGroupExecutableCheck(),
	}
}
