package checker

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/schae234/botbot/internal/database"
	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/model"
)

// checkFile returns the problems of fi: those of the stable checks, from
// the cache when the cached record is still valid, followed by those of the
// volatile checks, which always run. Cache failures are logged and never
// fail the run.
func (c *Checker) checkFile(ctx context.Context, fi *fileinfo.FileInfo) ([]model.ProblemCode, error) {
	if c.cache == nil {
		return append(c.runChecks(fi, c.stable), c.runChecks(fi, c.volatile)...), nil
	}

	cur := &database.FileRecord{
		Path:     fi.Path,
		Owner:    fi.Owner,
		UID:      fi.UID,
		Mode:     fi.Mode,
		Size:     fi.Size,
		ModTime:  fi.ModTime,
		CheckSet: c.checkSet,
	}

	hashed := true
	if fi.Important {
		h, err := fileinfo.Hash(fi.Path)
		if err != nil {
			c.logger.Warn("failed to hash file", "path", fi.Path, "error", err)
			hashed = false
		}
		cur.Hash = h
	}

	var record *database.FileRecord
	if !c.forceRecheck && hashed {
		var err error
		record, err = c.cache.GetFileRecord(ctx, fi.Path)
		if err != nil {
			c.logger.Warn("failed to read cache", "path", fi.Path, "error", err)
		}
		if record != nil && !record.Matches(cur) {
			record = nil
		}
	}

	var stable []model.ProblemCode
	if record != nil {
		c.logger.Debug("cache hit", "path", fi.Path)
		stable = record.StableProblems()
	} else {
		stable = c.runChecks(fi, c.stable)
	}
	volatile := c.runChecks(fi, c.volatile)
	codes := append(slices.Clone(stable), volatile...)

	// A hit only needs writing back when a volatile result moved, so that
	// cached-only reports stay current.
	if record != nil && slices.Equal(record.Problems, codes) {
		return codes, nil
	}

	cur.Stable = len(stable)
	cur.Problems = codes
	cur.CheckedAt = time.Now()
	if err := c.cache.PutFileRecord(ctx, cur); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("failed to update cache", "path", fi.Path, "error", err)
	}

	return codes, nil
}

// prune drops cached records below cl.Root that are no longer on the checklist.
func (c *Checker) prune(ctx context.Context, cl *Checklist) {
	if c.cache == nil {
		return
	}

	keep := make(map[string]bool, len(cl.Files))
	for _, fi := range cl.Files {
		keep[fi.Path] = true
	}

	deleted, err := c.cache.PruneFileRecords(ctx, cl.Root, keep)
	if err != nil {
		c.logger.Warn("failed to prune cache", "root", cl.Root, "error", err)
		return
	}
	if deleted > 0 {
		c.logger.Debug("pruned cache", "root", cl.Root, "records", deleted)
	}
}

// CachedReport builds a report from the cached problems below root without
// touching the files. Ignore rules still apply.
func (c *Checker) CachedReport(ctx context.Context, root string) (*model.Report, error) {
	if c.cache == nil {
		return nil, ErrNoCache
	}

	root = filepath.Clean(root)
	start := time.Now()

	records, err := c.cache.CachedProblems(ctx, root)
	if err != nil {
		return nil, err
	}

	pl := model.NewProblemList()
	files := 0
	for _, record := range records {
		if c.ignore.Match(record.Path) {
			continue
		}
		files++
		for _, code := range record.Problems {
			pl.AddProblem(model.Item{Path: record.Path, Owner: record.Owner}, code)
		}
	}

	report := model.NewReport(root)
	report.Cached = true
	report.SetProblems(pl)
	report.Status = model.NewStatus(files, time.Since(start))

	c.logger.Info("cached report built", "root", root, "files", files, "problems", report.ProblemCount)

	return report, nil
}
