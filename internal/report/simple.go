package report

import (
	"io"

	"github.com/schae234/botbot/internal/model"
)

// SimpleWriter outputs the plain-text report produced by Render.
// Plain text without ANSI colors works in every terminal and is easy to
// pipe into files or other tools.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the report and writes it followed by a newline.
// Nothing is written when the report fails validation.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	text, err := Render(report.Grouping, report.Status)
	if err != nil {
		return 0, err
	}
	return io.WriteString(w.output, text+"\n")
}
