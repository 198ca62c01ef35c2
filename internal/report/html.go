package report

import (
	"bytes"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/schae234/botbot/internal/model"
)

// HTMLWriter outputs a standalone HTML page.
// The page is built as a node tree and serialised with html.Render, so paths
// and owners are always escaped.
type HTMLWriter struct {
	baseWriter

	generator string
}

// HTMLWriterOption configures an HTMLWriter.
type HTMLWriterOption func(*HTMLWriter)

// WithGenerator sets the content of the generator meta tag.
func WithGenerator(generator string) HTMLWriterOption {
	return func(w *HTMLWriter) {
		w.generator = generator
	}
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...HTMLWriterOption) *HTMLWriter {
	w := &HTMLWriter{
		baseWriter: newBaseWriter(output),
		generator:  "BotBot",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as an HTML document.
func (w *HTMLWriter) Write(report *model.Report) (int, error) {
	if err := validate(report.Grouping, report.Status); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, w.document(report)); err != nil {
		return 0, err
	}
	buf.WriteByte('\n')

	return w.output.Write(buf.Bytes())
}

// document builds the full node tree for report.
func (w *HTMLWriter) document(report *model.Report) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, html.Attribute{Key: "lang", Val: "en"})
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(element(atom.Meta,
		html.Attribute{Key: "name", Val: "generator"},
		html.Attribute{Key: "content", Val: w.generator},
	))
	head.AppendChild(withText(element(atom.Title), "BotBot Report: "+report.Root))
	root.AppendChild(head)

	body := element(atom.Body)
	body.AppendChild(withText(element(atom.H1), "BotBot Report"))
	body.AppendChild(withText(element(atom.P), "Path: "+report.Root))
	body.AppendChild(withText(element(atom.P),
		"Date checked: "+report.DateChecked.Format("2006-01-02 15:04:05 MST")))

	for _, group := range report.Grouping {
		body.AppendChild(groupSection(group))
	}

	body.AppendChild(withText(element(atom.P, html.Attribute{Key: "class", Val: "summary"}), SummaryLine(report.Status)))
	root.AppendChild(body)

	return doc
}

// groupSection builds the section for one problem group.
func groupSection(group model.Group) *html.Node {
	attrs := []html.Attribute{}
	if group.Code != "" {
		attrs = append(attrs,
			html.Attribute{Key: "id", Val: string(group.Code)},
			html.Attribute{Key: "class", Val: "severity-" + model.GetSeverity(group.Code).String()},
		)
	}

	section := element(atom.Section, attrs...)
	section.AppendChild(withText(element(atom.H2), group.Header.Message))
	section.AppendChild(withText(element(atom.P), "To fix: "+group.Header.Fix))

	list := element(atom.Ul)
	for _, item := range group.Items {
		li := element(atom.Li)
		li.AppendChild(withText(element(atom.Code), item.Path))
		li.AppendChild(text(": owned by " + ownerName(item)))
		list.AppendChild(li)
	}
	section.AppendChild(list)

	return section
}

// element creates an element node.
func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     attrs,
	}
}

// text creates a text node.
func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// withText appends a text child to n and returns n.
func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(text(s))
	return n
}
