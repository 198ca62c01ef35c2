package checker

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/schae234/botbot/internal/checks"
	"github.com/schae234/botbot/internal/database"
	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/ignore"
	"github.com/schae234/botbot/internal/model"
)

// ErrNoCache is returned when cached results are requested without a cache.
var ErrNoCache = errors.New("no cache configured")

// Cache stores per-file check results between runs.
// *database.CacheDB implements it.
type Cache interface {
	GetFileRecord(ctx context.Context, path string) (*database.FileRecord, error)
	PutFileRecord(ctx context.Context, record *database.FileRecord) error
	CachedProblems(ctx context.Context, root string) ([]database.FileRecord, error)
	PruneFileRecords(ctx context.Context, root string, keep map[string]bool) (int64, error)
}

// ProgressFunc is called after each file is checked.
// Calls are serialised and done increases by one on every call.
type ProgressFunc func(done, total int)

// Checker runs a set of checks over a directory tree.
type Checker struct {
	checks         []checks.Check
	stable         []checks.Check
	volatile       []checks.Check
	checkSet       string
	ignore         *ignore.Rules
	followSymlinks bool
	onlyMine       bool
	uid            int
	workers        int
	logger         *slog.Logger
	cache          Cache
	forceRecheck   bool
	cachedOnly     bool
	important      []string
	owners         *fileinfo.OwnerCache

	progress   ProgressFunc
	progressMu sync.Mutex
}

// Option configures a Checker.
type Option func(*Checker)

// WithChecks sets the checks to run. Checks run in the given order.
func WithChecks(cs ...checks.Check) Option {
	return func(c *Checker) {
		c.checks = append(c.checks, cs...)
	}
}

// WithIgnore sets the ignore rules.
func WithIgnore(rules *ignore.Rules) Option {
	return func(c *Checker) {
		c.ignore = rules
	}
}

// WithFollowSymlinks makes the walk follow symbolic links.
func WithFollowSymlinks(follow bool) Option {
	return func(c *Checker) {
		c.followSymlinks = follow
	}
}

// WithOnlyMine restricts the checklist to files owned by the current user.
func WithOnlyMine(only bool) Option {
	return func(c *Checker) {
		c.onlyMine = only
	}
}

// WithWorkers sets the number of files checked concurrently.
// Non-positive values keep the default of one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithCache enables the result cache.
func WithCache(cache Cache) Option {
	return func(c *Checker) {
		c.cache = cache
	}
}

// WithForceRecheck ignores cached results but still updates the cache.
func WithForceRecheck(force bool) Option {
	return func(c *Checker) {
		c.forceRecheck = force
	}
}

// WithCachedOnly reports cached problems without checking anything.
func WithCachedOnly(cached bool) Option {
	return func(c *Checker) {
		c.cachedOnly = cached
	}
}

// WithImportantExtensions sets the extensions whose content hash is cached.
func WithImportantExtensions(exts []string) Option {
	return func(c *Checker) {
		c.important = exts
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Checker) {
		c.progress = fn
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		workers:   runtime.NumCPU(),
		uid:       -1,
		important: fileinfo.DefaultImportantExtensions,
		owners:    fileinfo.NewOwnerCache(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.onlyMine {
		c.uid = fileinfo.Current()
	}

	for _, check := range c.checks {
		if checks.IsVolatile(check) {
			c.volatile = append(c.volatile, check)
		} else {
			c.stable = append(c.stable, check)
		}
	}
	c.checkSet = checks.Fingerprint(c.stable)

	return c
}

// CheckAll builds the checklist for root and checks every file in it.
// In cached-only mode the cached problems below root are reported instead.
func (c *Checker) CheckAll(ctx context.Context, root string) (*model.Report, error) {
	if c.cachedOnly {
		return c.CachedReport(ctx, root)
	}

	cl, err := c.BuildChecklist(ctx, root)
	if err != nil {
		return nil, err
	}
	return c.Check(ctx, cl)
}

// Check runs every check on every file of cl.
// The report lists tree problems first, then file problems in checklist
// order. Status.Seconds covers this phase only.
func (c *Checker) Check(ctx context.Context, cl *Checklist) (*model.Report, error) {
	report := model.NewReport(cl.Root)
	start := time.Now()
	total := len(cl.Files)

	c.logger.Info("starting check",
		"root", cl.Root,
		"files", total,
		"workers", c.workers,
		"checks", len(c.checks),
	)

	results := make([][]model.ProblemCode, total)
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, fi := range cl.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			codes, err := c.checkFile(gctx, fi)
			if err != nil {
				return err
			}
			results[i] = codes

			c.progressMu.Lock()
			done++
			if c.progress != nil {
				c.progress(done, total)
			}
			c.progressMu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// errgroup only reports errors returned by its goroutines; a
	// cancellation after the last file finished would go unnoticed.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pl := model.NewProblemList()
	for _, p := range cl.TreeProblems {
		pl.AddProblem(p.Item, p.Code)
	}
	for i, fi := range cl.Files {
		for _, code := range results[i] {
			pl.AddProblem(fi.Item(), code)
		}
	}

	report.SetProblems(pl)
	report.Status = model.NewStatus(total, time.Since(start))

	c.prune(ctx, cl)

	c.logger.Info("check complete",
		"root", cl.Root,
		"files", total,
		"problems", report.ProblemCount,
		"elapsed", time.Since(start),
	)

	return report, nil
}

// runChecks runs cs on fi and returns the problems in check order.
func (c *Checker) runChecks(fi *fileinfo.FileInfo, cs []checks.Check) []model.ProblemCode {
	var codes []model.ProblemCode
	for _, check := range cs {
		if code, ok := check.Run(fi); ok {
			c.logger.Debug("problem found", "check", check.Name(), "path", fi.Path, "code", string(code))
			codes = append(codes, code)
		}
	}
	return codes
}
