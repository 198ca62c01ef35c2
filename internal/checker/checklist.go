package checker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/model"
)

// Checklist is the set of files a run will check.
type Checklist struct {
	// Root is the cleaned root path of the walk.
	Root string

	// Files are the regular files to check, in walk order.
	Files []*fileinfo.FileInfo

	// TreeProblems are problems found while walking, in walk order.
	TreeProblems []TreeProblem
}

// TreeProblem is a problem with the tree itself rather than a file's content.
type TreeProblem struct {
	Item model.Item
	Code model.ProblemCode
}

func (cl *Checklist) addProblem(fi *fileinfo.FileInfo, path string, code model.ProblemCode) {
	item := model.Item{Path: path}
	if fi != nil {
		item = fi.Item()
	}
	cl.TreeProblems = append(cl.TreeProblems, TreeProblem{Item: item, Code: code})
}

// BuildChecklist walks root and collects the files to check.
//
// Directory entries are visited in lexical order. Ignored paths are skipped
// along with everything below them. Symbolic links are skipped unless the
// checker follows them; each directory is entered at most once, so link
// cycles terminate. Broken links are always reported.
//
// An error is returned only when root itself cannot be read or ctx is done.
func (c *Checker) BuildChecklist(ctx context.Context, root string) (*Checklist, error) {
	root = filepath.Clean(root)
	cl := &Checklist{Root: root}

	// root is explicitly requested, so a link at root is always followed.
	info, err := fileinfo.New(root, c.fileOptions(true)...)
	if err != nil {
		return nil, fmt.Errorf("cannot check %s: %w", root, err)
	}

	visited := make(map[string]bool)
	if err := c.visit(ctx, cl, info, visited); err != nil {
		return nil, err
	}

	c.logger.Info("checklist built",
		"root", root,
		"files", len(cl.Files),
		"tree_problems", len(cl.TreeProblems),
	)

	return cl, nil
}

// walk stats path and visits it.
func (c *Checker) walk(ctx context.Context, cl *Checklist, path string, visited map[string]bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ignore.Match(path) {
		c.logger.Debug("ignoring path", "path", path)
		return nil
	}

	fi, err := fileinfo.New(path, c.fileOptions(false)...)
	if err != nil {
		c.recordStatError(cl, path, err)
		return nil
	}

	if fi.IsLink {
		target, err := fileinfo.New(path, c.fileOptions(true)...)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				cl.addProblem(fi, path, model.ProbBrokenLink)
			} else {
				c.recordStatError(cl, path, err)
			}
			return nil
		}
		if !c.followSymlinks {
			c.logger.Debug("skipping symlink", "path", path)
			return nil
		}
		fi = target
	}

	return c.visit(ctx, cl, fi, visited)
}

// visit adds fi to the checklist or descends into it.
func (c *Checker) visit(ctx context.Context, cl *Checklist, fi *fileinfo.FileInfo, visited map[string]bool) error {
	if fi.IsDir() {
		return c.visitDir(ctx, cl, fi, visited)
	}

	if !fi.IsRegular() {
		c.logger.Debug("skipping special file", "path", fi.Path, "mode", fi.Mode.String())
		return nil
	}
	if c.onlyMine && fi.UID != c.uid {
		return nil
	}

	cl.Files = append(cl.Files, fi)
	return nil
}

func (c *Checker) visitDir(ctx context.Context, cl *Checklist, dir *fileinfo.FileInfo, visited map[string]bool) error {
	key := dir.Path
	if resolved, err := filepath.EvalSymlinks(dir.Path); err == nil {
		key = resolved
	}
	if visited[key] {
		c.logger.Debug("directory already visited", "path", dir.Path, "resolved", key)
		return nil
	}
	visited[key] = true

	entries, err := os.ReadDir(dir.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			cl.addProblem(dir, dir.Path, model.ProbDirNotAccessible)
		} else {
			c.logger.Warn("failed to read directory", "path", dir.Path, "error", err)
			cl.addProblem(dir, dir.Path, model.ProbUnknownError)
		}
		// ReadDir returns the entries read before the error.
	}

	for _, entry := range entries {
		if err := c.walk(ctx, cl, filepath.Join(dir.Path, entry.Name()), visited); err != nil {
			return err
		}
	}
	return nil
}

// recordStatError classifies an error from stat-ing path.
func (c *Checker) recordStatError(cl *Checklist, path string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Removed between listing and stat.
		c.logger.Debug("path vanished during walk", "path", path)
	case errors.Is(err, fs.ErrPermission):
		cl.addProblem(nil, path, model.ProbDirNotWritable)
	default:
		c.logger.Warn("failed to stat path", "path", path, "error", err)
		cl.addProblem(nil, path, model.ProbUnknownError)
	}
}

func (c *Checker) fileOptions(follow bool) []fileinfo.Option {
	return []fileinfo.Option{
		fileinfo.WithFollowSymlinks(follow),
		fileinfo.WithImportantExtensions(c.important),
		fileinfo.WithOwnerCache(c.owners),
	}
}
