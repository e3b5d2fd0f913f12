package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// standalone bold paragraphs shorter than this become section labels
const maxLabelLen = 100

var (
	htmlSpace      = regexp.MustCompile(`[ \t\n\f\r]+`)
	spaceRun       = regexp.MustCompile(`[ \t\f\v\r]+`)
	spaceAroundNL  = regexp.MustCompile(` *\n *`)
	orphanBullet   = regexp.MustCompile(`•[ \n]*\n+ *([^•\n])`)
	emptyBullet    = regexp.MustCompile(`(?m)^• *$\n?`)
	tooManyNL      = regexp.MustCompile(`\n{3,}`)
	markupPrefixes = regexp.MustCompile(`(?m)^(?:#+ |• )`)
)

var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Template: true, atom.Svg: true, atom.Head: true, atom.Button: true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Main: true, atom.Aside: true,
	atom.Ul: true, atom.Ol: true, atom.Table: true, atom.Tr: true,
	atom.Blockquote: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Form: true, atom.Fieldset: true, atom.Pre: true, atom.Hr: true,
}

var headings = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// HTMLToText converts an HTML fragment to structured text. Invalid markup is
// handled the way a browser would; the error is only for reader failures.
func HTMLToText(fragment string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", err
	}
	w := &textWriter{}
	for _, n := range nodes {
		w.walk(n)
	}
	return CleanText(w.String()), nil
}

// NodeToText converts a parsed node and its subtree to structured text:
// headings become "#" lines, bold runs are wrapped in "**", list items get
// a "•" bullet and block elements end lines.
func NodeToText(n *html.Node) string {
	w := &textWriter{}
	w.walk(n)
	return CleanText(w.String())
}

// CleanText normalizes whitespace in structured text: single spaces, no
// spaces around newlines, at most one blank line and no orphaned bullets.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceAroundNL.ReplaceAllString(s, "\n")
	s = orphanBullet.ReplaceAllString(s, "• ${1}")
	s = emptyBullet.ReplaceAllString(s, "")
	s = tooManyNL.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// PlainText strips the structural markers added by NodeToText so regexes
// can match label/value pairs.
func PlainText(structured string) string {
	s := strings.ReplaceAll(structured, "**", "")
	return markupPrefixes.ReplaceAllString(s, "")
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) String() string { return w.b.String() }

// newline ends the current line unless it is already ended.
func (w *textWriter) newline() {
	if s := w.b.String(); s != "" && !strings.HasSuffix(s, "\n") {
		w.b.WriteString("\n")
	}
}

// paragraph leaves exactly one blank line behind.
func (w *textWriter) paragraph() {
	s := w.b.String()
	switch {
	case s == "" || strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		w.b.WriteString("\n")
	default:
		w.b.WriteString("\n\n")
	}
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.b.WriteString(htmlSpace.ReplaceAllString(n.Data, " "))
		return
	case html.DocumentNode:
		w.children(n)
		return
	case html.ElementNode:
	default:
		return
	}

	if skipped[n.DataAtom] {
		return
	}

	if lvl, ok := headings[n.DataAtom]; ok {
		if text := inlineText(n); text != "" {
			w.paragraph()
			w.b.WriteString(strings.Repeat("#", lvl) + " " + text)
			w.paragraph()
		}
		return
	}

	switch n.DataAtom {
	case atom.Br:
		w.b.WriteString("\n")
	case atom.Li:
		w.newline()
		w.b.WriteString("• ")
		w.children(n)
		w.newline()
	case atom.B, atom.Strong:
		w.bold(n)
	case atom.Td, atom.Th:
		w.children(n)
		w.b.WriteString(" ")
	default:
		if !blocks[n.DataAtom] {
			w.children(n)
			return
		}
		if label, ok := standaloneLabel(n); ok {
			w.paragraph()
			w.b.WriteString("## " + label)
			w.paragraph()
			return
		}
		if n.DataAtom == atom.P {
			w.paragraph()
			w.children(n)
			w.paragraph()
			return
		}
		w.newline()
		w.children(n)
		w.newline()
	}
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) bold(n *html.Node) {
	raw := rawText(n)
	text := collapse(raw)
	if text == "" {
		if raw != "" {
			w.b.WriteString(" ")
		}
		return
	}
	if strings.TrimLeft(raw, " \t\n\r\u00a0") != raw {
		w.b.WriteString(" ")
	}
	w.b.WriteString("**" + text + "**")
	if strings.TrimRight(raw, " \t\n\r\u00a0") != raw {
		w.b.WriteString(" ")
	}
}

// standaloneLabel reports whether block n holds nothing but one short bold
// run, e.g. <p><strong>Qualifications:</strong></p>.
func standaloneLabel(n *html.Node) (string, bool) {
	var bold *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && collapse(c.Data) == "":
		case c.Type == html.ElementNode && c.DataAtom == atom.Br:
		case c.Type == html.ElementNode && (c.DataAtom == atom.B || c.DataAtom == atom.Strong) && bold == nil:
			bold = c
		default:
			return "", false
		}
	}
	if bold == nil {
		return "", false
	}
	text := collapse(rawText(bold))
	if text == "" || len(text) >= maxLabelLen {
		return "", false
	}
	return text, true
}

func inlineText(n *html.Node) string {
	return collapse(rawText(n))
}

func rawText(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
