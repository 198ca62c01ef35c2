// Package report renders check results.
//
// Render is the core: a pure function that turns a model.Grouping and a
// model.Status into the plain-text ownership report. The writers build on it:
//   - SimpleWriter: the Render text, for terminals and files
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub-flavoured Markdown with summary tables
//   - HTMLWriter: a standalone HTML page
//
// Report data structures live in the model package; this package only
// handles presentation, so new formats can be added without touching the
// checker. Every writer applies the same input validation as Render and
// writes nothing when it fails.
package report
