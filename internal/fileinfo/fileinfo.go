// Package fileinfo gathers the metadata checks need about a single path.
//
// A FileInfo is built once per checklist entry and shared read-only by every
// check, so checks never stat the same file twice.
package fileinfo

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/schae234/botbot/internal/model"
)

// DefaultImportantExtensions are the extensions of files worth hashing.
var DefaultImportantExtensions = []string{".sam", ".bam"}

// FileInfo describes one filesystem entry.
type FileInfo struct {
	// Path is the path as found by the walk.
	Path string

	// Mode holds the permission and type bits.
	Mode fs.FileMode

	// Size is the size in bytes.
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time

	// UID is the numeric owner, or -1 when the platform does not expose it.
	UID int

	// Owner is the owner's user name. Empty when it could not be resolved.
	Owner string

	// IsLink is true when Path is a symbolic link that was not followed.
	IsLink bool

	// Important is true when the extension is in the important list.
	Important bool
}

// Option configures New.
type Option func(*options)

type options struct {
	followSymlinks bool
	important      []string
	owners         *OwnerCache
}

// WithFollowSymlinks describes the link target instead of the link itself.
func WithFollowSymlinks(follow bool) Option {
	return func(o *options) {
		o.followSymlinks = follow
	}
}

// WithImportantExtensions replaces the list of important extensions.
// Extensions are compared case-insensitively and must include the dot.
func WithImportantExtensions(exts []string) Option {
	return func(o *options) {
		o.important = exts
	}
}

// WithOwnerCache shares an owner cache between calls.
func WithOwnerCache(cache *OwnerCache) Option {
	return func(o *options) {
		o.owners = cache
	}
}

// New stats path and returns its FileInfo.
func New(path string, opts ...Option) (*FileInfo, error) {
	o := &options{important: DefaultImportantExtensions}
	for _, opt := range opts {
		opt(o)
	}
	if o.owners == nil {
		o.owners = NewOwnerCache()
	}

	var (
		info fs.FileInfo
		err  error
	)
	if o.followSymlinks {
		info, err = os.Stat(path)
	} else {
		info, err = os.Lstat(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	fi := &FileInfo{
		Path:    path,
		Mode:    info.Mode(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		UID:     -1,
		IsLink:  info.Mode()&fs.ModeSymlink != 0,
	}

	if uid, ok := statUID(info); ok {
		fi.UID = uid
		fi.Owner = o.owners.Lookup(uid)
	}

	fi.Important = slices.ContainsFunc(o.important, func(ext string) bool {
		return strings.EqualFold(ext, fi.Ext())
	})

	return fi, nil
}

// Ext returns the lower-cased extension of Path, including the dot.
func (fi *FileInfo) Ext() string {
	return strings.ToLower(filepath.Ext(fi.Path))
}

// IsDir reports whether the entry is a directory.
func (fi *FileInfo) IsDir() bool {
	return fi.Mode.IsDir()
}

// IsRegular reports whether the entry is a regular file.
func (fi *FileInfo) IsRegular() bool {
	return fi.Mode.IsRegular()
}

// Item converts the entry into a report item.
func (fi *FileInfo) Item() model.Item {
	return model.Item{Path: fi.Path, Owner: fi.Owner}
}

// Hash returns the hex-encoded SHA3-256 digest of the file at path.
func Hash(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the checklist walk
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha3.New256()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
