package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/schae234/botbot/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavoured Markdown.
// Counts are formatted with thousands separators for the configured locale.
type MarkdownWriter struct {
	baseWriter

	printer *message.Printer
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithLanguage sets the locale used to format numbers.
func WithLanguage(tag language.Tag) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	if err := validate(report.Grouping, report.Status); err != nil {
		return 0, err
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeGroups(md, report)
	w.writeFooter(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("BotBot Report")
	md.PlainText("")

	source := "Fresh check"
	if report.Cached {
		source = "Cache"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Path", "`" + report.Root + "`"},
			{"Date Checked", report.DateChecked.Format("2006-01-02 15:04:05 MST")},
			{"Files Checked", w.printer.Sprintf("%d", report.Status.Files)},
			{"Elapsed", FormatSeconds(report.Status.Seconds) + " s"},
			{"Source", source},
		},
	})
	md.PlainText("")
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	counts := report.CountBySeverity()

	md.H2("Severity Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Files"},
		Rows: [][]string{
			{"Critical", w.printer.Sprintf("%d", counts[model.SeverityCritical])},
			{"High", w.printer.Sprintf("%d", counts[model.SeverityHigh])},
			{"Medium", w.printer.Sprintf("%d", counts[model.SeverityMedium])},
			{"Low", w.printer.Sprintf("%d", counts[model.SeverityLow])},
			{"Info", w.printer.Sprintf("%d", counts[model.SeverityInfo])},
			{"**Total**", "**" + w.printer.Sprintf("%d", report.Grouping.ItemCount()) + "**"},
		},
	})
	md.PlainText("")

	if report.Grouping.ItemCount() > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of flagged files per problem.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Flagged Files by Problem"),
		piechart.WithShowData(true),
	)

	for _, group := range report.Grouping {
		if len(group.Items) == 0 {
			continue
		}
		chart.LabelAndIntValue(group.Header.Message, uint64(len(group.Items)))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the most severe problem.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	highest, ok := report.HighestSeverity()
	switch {
	case !ok:
		md.Tip("No problems found.")
	case highest == model.SeverityCritical:
		md.Cautionf("%d file(s) expose sensitive data and should be fixed before sharing.",
			report.CountBySeverity()[model.SeverityCritical])
	case highest == model.SeverityHigh:
		md.Warningf("%d file(s) are not accessible to your group.",
			report.CountBySeverity()[model.SeverityHigh])
	case highest == model.SeverityMedium:
		md.Importantf("%d file(s) waste shared storage.",
			report.CountBySeverity()[model.SeverityMedium])
	default:
		md.Note("Only low severity problems found.")
	}
	md.PlainText("")
}

// writeGroups writes one section per problem group, in report order.
func (w *MarkdownWriter) writeGroups(md *markdown.Markdown, report *model.Report) {
	md.H2("Problems")
	md.PlainText("")

	if len(report.Grouping) == 0 {
		md.PlainText("No problems found.")
		md.PlainText("")
		return
	}

	for _, group := range report.Grouping {
		md.H3(group.Header.Message)
		md.PlainText("")
		md.PlainTextf("**To fix:** %s", group.Header.Fix)
		md.PlainText("")

		if len(group.Items) == 0 {
			md.PlainText("No files.")
			md.PlainText("")
			continue
		}

		rows := make([][]string, len(group.Items))
		for i, item := range group.Items {
			rows[i] = []string{"`" + item.Path + "`", ownerName(item)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Path", "Owner"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the summary line and the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, report *model.Report) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText(SummaryLine(report.Status))
	md.PlainText("")
	md.PlainTextf("*Report generated by BotBot (%s problem(s))*", strconv.Itoa(report.ProblemCount))
}
