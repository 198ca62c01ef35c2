package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// HomeAlias replaces the home directory prefix in logged paths.
const HomeAlias = "~"

// PathHandler wraps an slog.Handler and rewrites paths under the home
// directory so they start with HomeAlias instead. Paths are found in string
// values and in the text of errors and fmt.Stringer values.
type PathHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// home is the cleaned home directory, or "" to disable rewriting.
	home string
}

// NewPathHandler creates a PathHandler wrapping handler.
// If home is empty the current user's home directory is used. If handler is
// nil, slog.Default().Handler() is used.
func NewPathHandler(handler slog.Handler, home string) *PathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if home == "" {
		if dir, err := homedir.Dir(); err == nil {
			home = dir
		}
	}
	if home != "" {
		home = filepath.Clean(home)
	}
	return &PathHandler{handler: handler, home: home}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it to the underlying handler.
func (h *PathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *PathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &PathHandler{handler: h.handler.WithAttrs(rewritten), home: h.home}
}

// WithGroup returns a new handler with the given group name.
func (h *PathHandler) WithGroup(name string) slog.Handler {
	return &PathHandler{handler: h.handler.WithGroup(name), home: h.home}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *PathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	case slog.KindString:
		return slog.String(a.Key, h.ShortenPath(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case error:
			return slog.String(a.Key, h.ShortenPath(v.Error()))
		case fmt.Stringer:
			return slog.String(a.Key, h.ShortenPath(v.String()))
		}
		return a
	default:
		return a
	}
}

// ShortenPath replaces the home directory with HomeAlias wherever a path in
// s starts with it, so "open /home/alice/x: denied" becomes
// "open ~/x: denied". Paths that merely share a prefix with the home
// directory, or contain it further down, are unchanged.
func (h *PathHandler) ShortenPath(s string) string {
	if h.home == "" || h.home == string(filepath.Separator) {
		return s
	}

	var b strings.Builder
	last := 0
	for from := 0; ; {
		i := strings.Index(s[from:], h.home)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(h.home)
		from = end

		if start > 0 && isPathByte(s[start-1]) {
			continue
		}
		if end < len(s) && s[end] != filepath.Separator && isPathByte(s[end]) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(HomeAlias)
		last = end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// isPathByte reports whether c can appear inside a path name.
func isPathByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("/._-~+@", c) >= 0
}

// NewLogger creates a new text slog.Logger that shortens home paths.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewPathHandler(slog.NewTextHandler(w, handlerOptions(verbose)), ""))
}

// NewJSONLogger creates a new slog.Logger that outputs JSON format.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewPathHandler(slog.NewJSONHandler(w, handlerOptions(verbose)), ""))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
