package checker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/schae234/botbot/internal/checks"
	"github.com/schae234/botbot/internal/database"
	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/ignore"
	"github.com/schae234/botbot/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mkTree creates files (and their parent directories) under a new temp dir.
func mkTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func checklistPaths(cl *Checklist) []string {
	paths := make([]string, len(cl.Files))
	for i, fi := range cl.Files {
		paths[i] = strings.TrimPrefix(fi.Path, cl.Root+string(filepath.Separator))
	}
	return paths
}

// extCheck flags every file with the given extension.
func extCheck(ext string, code model.ProblemCode) checks.Check {
	return checks.NewFunc("ext"+ext, func(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
		return code, fi.Ext() == ext
	})
}

// TestBuildChecklist tests the tree walk.
func TestBuildChecklist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("walks in lexical order", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{
			"b.txt":       "b",
			"a/z.txt":     "z",
			"a/y/x.txt":   "x",
			"c.fq":        "c",
			"a/aa/a1.txt": "1",
		})

		cl, err := New(WithLogger(quietLogger())).BuildChecklist(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"a/aa/a1.txt", "a/y/x.txt", "a/z.txt", "b.txt", "c.fq"}
		if diff := cmp.Diff(want, checklistPaths(cl)); diff != "" {
			t.Errorf("checklist mismatch (-want +got):\n%s", diff)
		}
		if len(cl.TreeProblems) != 0 {
			t.Errorf("unexpected tree problems %+v", cl.TreeProblems)
		}
	})

	t.Run("skips ignored paths", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{
			"keep.txt":        "k",
			"skip/inner.txt":  "i",
			"scratch.tmp":     "t",
			"nested/also.tmp": "t",
		})
		rules := ignore.New(filepath.Join(root, "skip"), "*.tmp")

		cl, err := New(WithLogger(quietLogger()), WithIgnore(rules)).BuildChecklist(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"keep.txt"}, checklistPaths(cl)); diff != "" {
			t.Errorf("checklist mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing root is an error", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithLogger(quietLogger())).BuildChecklist(ctx, filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	})

	t.Run("file root", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"one.txt": "1"})
		path := filepath.Join(root, "one.txt")

		cl, err := New(WithLogger(quietLogger())).BuildChecklist(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cl.Files) != 1 || cl.Files[0].Path != path {
			t.Errorf("unexpected checklist %+v", cl.Files)
		}
	})

	t.Run("cancelled context stops the walk", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"a.txt": "a"})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := New(WithLogger(quietLogger())).BuildChecklist(cctx, root)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestBuildChecklistSymlinks tests link handling.
func TestBuildChecklistSymlinks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	setup := func(t *testing.T) string {
		t.Helper()

		root := mkTree(t, map[string]string{"real/file.txt": "f"})
		links := map[string]string{
			"link.txt": filepath.Join(root, "real", "file.txt"),
			"linkdir":  filepath.Join(root, "real"),
			"loop":     root,
			"dangling": filepath.Join(root, "gone"),
		}
		for name, target := range links {
			if err := os.Symlink(target, filepath.Join(root, name)); err != nil {
				t.Skipf("symlinks not supported: %v", err)
			}
		}
		return root
	}

	t.Run("not following", func(t *testing.T) {
		t.Parallel()

		root := setup(t)
		cl, err := New(WithLogger(quietLogger())).BuildChecklist(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"real/file.txt"}, checklistPaths(cl)); diff != "" {
			t.Errorf("checklist mismatch (-want +got):\n%s", diff)
		}

		if len(cl.TreeProblems) != 1 {
			t.Fatalf("expected one tree problem, got %+v", cl.TreeProblems)
		}
		got := cl.TreeProblems[0]
		if got.Code != model.ProbBrokenLink || got.Item.Path != filepath.Join(root, "dangling") {
			t.Errorf("unexpected tree problem %+v", got)
		}
	})

	t.Run("following terminates on cycles", func(t *testing.T) {
		t.Parallel()

		root := setup(t)
		cl, err := New(WithLogger(quietLogger()), WithFollowSymlinks(true)).BuildChecklist(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// linkdir resolves to real, which is entered once; link.txt is a
		// distinct path to the same file.
		want := []string{"link.txt", "linkdir/file.txt"}
		if diff := cmp.Diff(want, checklistPaths(cl)); diff != "" {
			t.Errorf("checklist mismatch (-want +got):\n%s", diff)
		}
		if len(cl.TreeProblems) != 1 || cl.TreeProblems[0].Code != model.ProbBrokenLink {
			t.Errorf("unexpected tree problems %+v", cl.TreeProblems)
		}
	})
}

// TestBuildChecklistPermissions tests unreadable directories.
func TestBuildChecklistPermissions(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := mkTree(t, map[string]string{"locked/secret.txt": "s", "open.txt": "o"})
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o700) })

	cl, err := New(WithLogger(quietLogger())).BuildChecklist(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"open.txt"}, checklistPaths(cl)); diff != "" {
		t.Errorf("checklist mismatch (-want +got):\n%s", diff)
	}
	if len(cl.TreeProblems) != 1 || cl.TreeProblems[0].Code != model.ProbDirNotAccessible {
		t.Errorf("unexpected tree problems %+v", cl.TreeProblems)
	}
}

// TestCheckAll tests a full run.
func TestCheckAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	files := map[string]string{}
	for _, name := range []string{"a.fq", "b.sam", "c.txt", "d/e.fq", "d/f.sam", "g.fq"} {
		files[name] = name
	}
	root := mkTree(t, files)

	run := func(t *testing.T, workers int) *model.Report {
		t.Helper()

		c := New(
			WithLogger(quietLogger()),
			WithWorkers(workers),
			WithChecks(
				extCheck(".fq", model.ProbFileIsFastq),
				extCheck(".sam", model.ProbSamShouldCompress),
			),
		)
		report, err := c.CheckAll(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return report
	}

	report := run(t, 1)

	if report.Status.Files != 6 {
		t.Errorf("expected 6 files, got %d", report.Status.Files)
	}
	if report.ProblemCount != 5 {
		t.Errorf("expected 5 problems, got %d", report.ProblemCount)
	}

	var codes []model.ProblemCode
	for _, g := range report.Grouping {
		codes = append(codes, g.Code)
	}
	if diff := cmp.Diff([]model.ProblemCode{model.ProbFileIsFastq, model.ProbSamShouldCompress}, codes); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}

	var fastq []string
	for _, item := range report.Grouping[0].Items {
		fastq = append(fastq, strings.TrimPrefix(item.Path, root+"/"))
	}
	if diff := cmp.Diff([]string{"a.fq", "d/e.fq", "g.fq"}, fastq); diff != "" {
		t.Errorf("fastq items mismatch (-want +got):\n%s", diff)
	}

	t.Run("output does not depend on worker count", func(t *testing.T) {
		t.Parallel()

		for _, workers := range []int{2, 8} {
			got := run(t, workers)
			if diff := cmp.Diff(report.Grouping, got.Grouping); diff != "" {
				t.Errorf("workers=%d grouping mismatch (-want +got):\n%s", workers, diff)
			}
		}
	})
}

// TestCheckTreeProblemsFirst tests that walk problems precede file problems.
func TestCheckTreeProblemsFirst(t *testing.T) {
	t.Parallel()

	root := mkTree(t, map[string]string{"a.fq": "a"})
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "b")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	c := New(WithLogger(quietLogger()), WithChecks(extCheck(".fq", model.ProbFileIsFastq)))
	report, err := c.CheckAll(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Grouping) != 2 ||
		report.Grouping[0].Code != model.ProbBrokenLink ||
		report.Grouping[1].Code != model.ProbFileIsFastq {
		t.Errorf("unexpected grouping %+v", report.Grouping)
	}
}

// TestCheckCancelled tests that cancellation aborts a run.
func TestCheckCancelled(t *testing.T) {
	t.Parallel()

	root := mkTree(t, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := checks.NewFunc("block", func(*fileinfo.FileInfo) (model.ProblemCode, bool) {
		cancel()
		return "", false
	})

	c := New(WithLogger(quietLogger()), WithWorkers(1), WithChecks(block))
	cl, err := c.BuildChecklist(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Check(ctx, cl); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestProgress tests the progress callback.
func TestProgress(t *testing.T) {
	t.Parallel()

	root := mkTree(t, map[string]string{"a": "a", "b": "b", "c": "c", "d": "d"})

	var (
		mu    sync.Mutex
		calls [][2]int
	)
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}

	c := New(WithLogger(quietLogger()), WithWorkers(3), WithProgress(progress))
	if _, err := c.CheckAll(context.Background(), root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("progress calls mismatch (-want +got):\n%s", diff)
	}
}

// TestNewProgressBar tests the rendered bar.
func TestNewProgressBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		done, total int
		want        string
	}{
		{name: "partial", done: 2, total: 5, want: "[####------] 40%\r"},
		{name: "rounds up cells", done: 1, total: 3, want: "[####------] 33%\r"},
		{name: "complete", done: 5, total: 5, want: "[##########] 100%\r\n"},
		{name: "empty total", done: 0, total: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			NewProgressBar(&buf, 10)(tt.done, tt.total)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

// fakeCache is an in-memory Cache.
type fakeCache struct {
	mu      sync.Mutex
	records map[string]database.FileRecord
	gets    int
	puts    int
	failPut bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: make(map[string]database.FileRecord)}
}

func (f *fakeCache) GetFileRecord(_ context.Context, path string) (*database.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++
	r, ok := f.records[path]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeCache) PutFileRecord(_ context.Context, record *database.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failPut {
		return errors.New("disk full")
	}
	f.puts++
	f.records[record.Path] = *record
	return nil
}

func (f *fakeCache) CachedProblems(_ context.Context, root string) ([]database.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []database.FileRecord
	for path, r := range f.records {
		if path == root || strings.HasPrefix(path, root+"/") {
			out = append(out, r)
		}
	}
	// Match the database ordering.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Path < out[j-1].Path; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (f *fakeCache) PruneFileRecords(_ context.Context, root string, keep map[string]bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for path := range f.records {
		if (path == root || strings.HasPrefix(path, root+"/")) && !keep[path] {
			delete(f.records, path)
			n++
		}
	}
	return n, nil
}

// countingCheck counts how often it runs.
type countingCheck struct {
	mu sync.Mutex
	n  int
}

func (c *countingCheck) Name() string { return "counting" }

func (c *countingCheck) Run(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return model.ProbFileIsFastq, fi.Ext() == ".fq"
}

func (c *countingCheck) runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// TestCache tests reuse and invalidation of cached results.
func TestCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unchanged files are not rechecked", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"a.fq": "a", "b.txt": "b"})
		cache := newFakeCache()
		check := &countingCheck{}

		first, err := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(check)).CheckAll(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(check)).CheckAll(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if check.runs() != 2 {
			t.Errorf("expected checks to run twice, got %d", check.runs())
		}
		if diff := cmp.Diff(first.Grouping, second.Grouping); diff != "" {
			t.Errorf("cached grouping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("modified files are rechecked", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"a.fq": "a"})
		cache := newFakeCache()
		check := &countingCheck{}
		c := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(check))

		if _, err := c.CheckAll(ctx, root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		later := time.Now().Add(time.Hour)
		if err := os.Chtimes(filepath.Join(root, "a.fq"), later, later); err != nil {
			t.Fatal(err)
		}
		if _, err := c.CheckAll(ctx, root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if check.runs() != 2 {
			t.Errorf("expected two runs, got %d", check.runs())
		}
	})

	t.Run("important files compare content hashes", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"a.sam": "aaaa"})
		path := filepath.Join(root, "a.sam")
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}

		cache := newFakeCache()
		check := &countingCheck{}
		c := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(check))

		if _, err := c.CheckAll(ctx, root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wantHash, err := fileinfo.Hash(path)
		if err != nil {
			t.Fatal(err)
		}
		if cache.records[path].Hash != wantHash {
			t.Errorf("expected hash %q to be cached, got %q", wantHash, cache.records[path].Hash)
		}

		// Same size and mtime, different content.
		if err := os.WriteFile(path, []byte("bbbb"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
			t.Fatal(err)
		}
		if _, err := c.CheckAll(ctx, root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if check.runs() != 2 {
			t.Errorf("expected content change to force a recheck, got %d runs", check.runs())
		}
	})

	t.Run("force recheck bypasses the cache", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"a.fq": "a"})
		cache := newFakeCache()
		check := &countingCheck{}
		c := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(check), WithForceRecheck(true))

		for range 2 {
			if _, err := c.CheckAll(ctx, root); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if check.runs() != 2 || cache.gets != 0 || cache.puts != 2 {
			t.Errorf("unexpected runs=%d gets=%d puts=%d", check.runs(), cache.gets, cache.puts)
		}
	})

	t.Run("cache failures do not fail the run", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"a.fq": "a"})
		cache := newFakeCache()
		cache.failPut = true

		report, err := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(&countingCheck{})).CheckAll(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.ProblemCount != 1 {
			t.Errorf("expected 1 problem, got %d", report.ProblemCount)
		}
	})

	t.Run("removed files are pruned", func(t *testing.T) {
		t.Parallel()

		root := mkTree(t, map[string]string{"a.fq": "a", "b.fq": "b"})
		cache := newFakeCache()
		c := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(&countingCheck{}))

		if _, err := c.CheckAll(ctx, root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.Remove(filepath.Join(root, "b.fq")); err != nil {
			t.Fatal(err)
		}
		if _, err := c.CheckAll(ctx, root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := cache.records[filepath.Join(root, "b.fq")]; ok {
			t.Error("expected record for removed file to be pruned")
		}
	})
}

// codesFor returns the problem codes reported for path, in group order.
func codesFor(report *model.Report, path string) []model.ProblemCode {
	var codes []model.ProblemCode
	for _, group := range report.Grouping {
		for _, item := range group.Items {
			if item.Path == path {
				codes = append(codes, group.Code)
			}
		}
	}
	return codes
}

// TestCacheInvalidation tests that a cached result is not reused once
// anything its checks depend on has changed.
func TestCacheInvalidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	backends := []struct {
		name string
		open func(t *testing.T) Cache
	}{
		{name: "memory", open: func(*testing.T) Cache { return newFakeCache() }},
		{name: "sqlite", open: func(t *testing.T) Cache {
			db, err := database.Open(t.TempDir(), database.DefaultOptions())
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			t.Cleanup(func() { _ = db.Close() })
			return db
		}},
	}

	general := checks.Default(checks.DefaultOptions())
	lowThreshold := checks.DefaultOptions()
	lowThreshold.LargeFileThreshold = 8

	tests := []struct {
		name    string
		file    string
		content string
		first   []checks.Check
		second  []checks.Check
		between func(t *testing.T, path string)
		before  []model.ProblemCode
		after   []model.ProblemCode
	}{
		{
			name:    "unchanged file keeps its result",
			file:    "reads.fq",
			content: "@r1",
			first:   general,
			second:  general,
			before:  []model.ProblemCode{model.ProbFileIsFastq},
			after:   []model.ProblemCode{model.ProbFileIsFastq},
		},
		{
			name:    "shared checks added",
			file:    "notes.txt",
			content: "notes",
			first:   general,
			second:  append(checks.Default(checks.DefaultOptions()), checks.Shared()...),
			after:   []model.ProblemCode{model.ProbFileNotGroupReadable},
		},
		{
			name:    "threshold lowered",
			file:    "notes.txt",
			content: "plenty of plain text",
			first:   general,
			second:  checks.Default(lowThreshold),
			after:   []model.ProblemCode{model.ProbFileIsLargePlaintext},
		},
		{
			name:    "group read permission granted",
			file:    "notes.txt",
			content: "notes",
			first:   checks.Shared(),
			second:  checks.Shared(),
			between: func(t *testing.T, path string) {
				t.Helper()
				if err := os.Chmod(path, 0o640); err != nil {
					t.Fatal(err)
				}
			},
			before: []model.ProblemCode{model.ProbFileNotGroupReadable},
		},
		{
			name:    "converted BAM appears next to SAM",
			file:    "x.sam",
			content: "@HD\tVN:1.6",
			first:   general,
			second:  general,
			between: func(t *testing.T, path string) {
				t.Helper()
				bam := strings.TrimSuffix(path, ".sam") + ".bam"
				if err := os.WriteFile(bam, []byte("BAM\x01"), 0o600); err != nil {
					t.Fatal(err)
				}
			},
			before: []model.ProblemCode{model.ProbSamShouldCompress},
			after:  []model.ProblemCode{model.ProbSamAndBamExist},
		},
	}

	for _, backend := range backends {
		for _, tt := range tests {
			t.Run(backend.name+"/"+tt.name, func(t *testing.T) {
				t.Parallel()

				root := mkTree(t, map[string]string{tt.file: tt.content})
				path := filepath.Join(root, tt.file)
				cache := backend.open(t)

				first, err := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(tt.first...)).CheckAll(ctx, root)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if diff := cmp.Diff(tt.before, codesFor(first, path)); diff != "" {
					t.Errorf("first run mismatch (-want +got):\n%s", diff)
				}

				if tt.between != nil {
					tt.between(t, path)
				}

				second, err := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(tt.second...)).CheckAll(ctx, root)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if diff := cmp.Diff(tt.after, codesFor(second, path)); diff != "" {
					t.Errorf("second run mismatch (-want +got):\n%s", diff)
				}

				cached, err := New(WithLogger(quietLogger()), WithCache(cache), WithCachedOnly(true)).CheckAll(ctx, root)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if diff := cmp.Diff(tt.after, codesFor(cached, path)); diff != "" {
					t.Errorf("cached-only mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

// TestCacheVolatileChecks tests that checks reading other files run on every
// pass while the rest are served from the cache.
func TestCacheVolatileChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := mkTree(t, map[string]string{"a.fq": "a"})
	cache := newFakeCache()

	stable := &countingCheck{}
	var mu sync.Mutex
	volatileRuns := 0
	volatile := checks.NewFunc("sibling", func(*fileinfo.FileInfo) (model.ProblemCode, bool) {
		mu.Lock()
		defer mu.Unlock()
		volatileRuns++
		return model.ProbUnknownError, true
	}, checks.ReadsOtherFiles())

	// The volatile check comes first but its code is reported last.
	c := New(WithLogger(quietLogger()), WithCache(cache), WithChecks(volatile, stable))
	for range 2 {
		report, err := c.CheckAll(ctx, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []model.ProblemCode{model.ProbFileIsFastq, model.ProbUnknownError}
		if diff := cmp.Diff(want, codesFor(report, filepath.Join(root, "a.fq"))); diff != "" {
			t.Errorf("codes mismatch (-want +got):\n%s", diff)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if stable.runs() != 1 || volatileRuns != 2 {
		t.Errorf("expected stable=1 volatile=2 runs, got stable=%d volatile=%d", stable.runs(), volatileRuns)
	}
	if cache.puts != 1 {
		t.Errorf("expected an unchanged hit not to be written back, got %d puts", cache.puts)
	}
	if got := cache.records[filepath.Join(root, "a.fq")].Stable; got != 1 {
		t.Errorf("expected 1 stable code in the record, got %d", got)
	}
}

// TestCachedReport tests reporting from the cache alone.
func TestCachedReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("without a cache", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithLogger(quietLogger()), WithCachedOnly(true)).CheckAll(ctx, "/data")
		if !errors.Is(err, ErrNoCache) {
			t.Errorf("expected ErrNoCache, got %v", err)
		}
	})

	t.Run("reports cached problems", func(t *testing.T) {
		t.Parallel()

		cache := newFakeCache()
		for _, r := range []database.FileRecord{
			{Path: "/data/b.fq", Owner: "bob", Problems: []model.ProblemCode{model.ProbFileIsFastq}},
			{Path: "/data/a.fq", Owner: "", Problems: []model.ProblemCode{model.ProbFileIsFastq}},
			{Path: "/data/tmp/c.fq", Problems: []model.ProblemCode{model.ProbFileIsFastq}},
			{Path: "/data/ok.txt"},
			{Path: "/elsewhere/d.fq", Problems: []model.ProblemCode{model.ProbFileIsFastq}},
		} {
			cache.records[r.Path] = r
		}

		c := New(
			WithLogger(quietLogger()),
			WithCache(cache),
			WithCachedOnly(true),
			WithIgnore(ignore.New("/data/tmp")),
		)
		report, err := c.CheckAll(ctx, "/data/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !report.Cached || report.Root != "/data" {
			t.Errorf("unexpected report header %+v", report)
		}
		if report.Status.Files != 3 {
			t.Errorf("expected 3 files, got %d", report.Status.Files)
		}

		want := model.Grouping{{
			Code:   model.ProbFileIsFastq,
			Header: model.GetProblemInfo(model.ProbFileIsFastq).Header,
			Items: []model.Item{
				{Path: "/data/a.fq"},
				{Path: "/data/b.fq", Owner: "bob"},
			},
		}}
		if diff := cmp.Diff(want, report.Grouping); diff != "" {
			t.Errorf("grouping mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestCacheDatabase runs the checker against the SQLite cache.
func TestCacheDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := mkTree(t, map[string]string{"a.fq": "a", "b.sam": "b"})

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	check := &countingCheck{}
	c := New(WithLogger(quietLogger()), WithCache(db), WithChecks(check))

	first, err := c.CheckAll(ctx, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.CheckAll(ctx, root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.runs() != 2 {
		t.Errorf("expected second run to be served from the cache, got %d runs", check.runs())
	}

	cached, err := New(WithLogger(quietLogger()), WithCache(db), WithCachedOnly(true)).CheckAll(ctx, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first.Grouping, cached.Grouping); diff != "" {
		t.Errorf("cached grouping mismatch (-want +got):\n%s", diff)
	}
}
