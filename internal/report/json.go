package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/schae234/botbot/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Owners are written with the same UnknownOwner substitution as the text
// report so that both outputs name the same people.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is the BotBot version recorded in the output.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the generating BotBot version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	Version     string      `json:"version,omitempty"`
	Root        string      `json:"root"`
	DateChecked time.Time   `json:"date_checked"`
	Problems    int         `json:"problems"`
	Files       int         `json:"files"`
	Seconds     float64     `json:"seconds"`
	Cached      bool        `json:"cached,omitempty"`
	Groups      []JSONGroup `json:"groups"`
}

// JSONGroup is one problem group in a JSONReport.
type JSONGroup struct {
	Code     string     `json:"code,omitempty"`
	Severity string     `json:"severity"`
	Message  string     `json:"message"`
	Fix      string     `json:"fix"`
	Items    []JSONItem `json:"items"`
}

// JSONItem is one flagged file in a JSONGroup.
type JSONItem struct {
	Path  string `json:"path"`
	Owner string `json:"owner"`
}

// NewJSONReport converts a report into its JSON document form.
func NewJSONReport(report *model.Report, version string) *JSONReport {
	doc := &JSONReport{
		Version:     version,
		Root:        report.Root,
		DateChecked: report.DateChecked,
		Problems:    report.ProblemCount,
		Files:       report.Status.Files,
		Seconds:     report.Status.Seconds,
		Cached:      report.Cached,
		Groups:      make([]JSONGroup, 0, len(report.Grouping)),
	}

	for _, group := range report.Grouping {
		jg := JSONGroup{
			Code:     string(group.Code),
			Severity: model.GetSeverity(group.Code).String(),
			Message:  group.Header.Message,
			Fix:      group.Header.Fix,
			Items:    make([]JSONItem, 0, len(group.Items)),
		}
		for _, item := range group.Items {
			jg.Items = append(jg.Items, JSONItem{Path: item.Path, Owner: ownerName(item)})
		}
		doc.Groups = append(doc.Groups, jg)
	}

	return doc
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	if err := validate(report.Grouping, report.Status); err != nil {
		return 0, err
	}
	return w.writeJSON(NewJSONReport(report, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}
