package report

import (
	"fmt"
	"io"

	"golang.org/x/text/language"

	"github.com/schae234/botbot/internal/model"
)

// Writer defines the interface for report output.
// Implementations write check results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.Report) (int, error)
}

// Format names an output format.
type Format string

// Supported output formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Settings holds the options NewWriter passes on to the format writers.
type Settings struct {
	// Version is embedded in formats that carry tool metadata.
	Version string

	// Language sets the locale of formats that localise numbers.
	// The zero value keeps each format's default.
	Language language.Tag
}

// NewWriter returns the writer for format, writing to output.
func NewWriter(format Format, output io.Writer, s Settings) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(s.Version)), nil
	case FormatMarkdown:
		var opts []MarkdownWriterOption
		if s.Language != language.Und {
			opts = append(opts, WithLanguage(s.Language))
		}
		return NewMarkdownWriter(output, opts...), nil
	case FormatHTML:
		return NewHTMLWriter(output, WithGenerator("BotBot "+s.Version)), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// MultiWriter writes to multiple Writers in turn.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
