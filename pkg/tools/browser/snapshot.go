package browser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Snapshot limits applied when ExtractOptions leaves a field at zero.
const (
	DefaultMaxText   = 8000
	DefaultMaxLinks  = 60
	DefaultMaxFields = 40
	maxHeadings      = 30
)

// ExtractOptions bounds the size of a PageContent snapshot.
type ExtractOptions struct {
	MaxText   int
	MaxLinks  int
	MaxFields int
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.MaxText <= 0 {
		o.MaxText = DefaultMaxText
	}
	if o.MaxLinks <= 0 {
		o.MaxLinks = DefaultMaxLinks
	}
	if o.MaxFields <= 0 {
		o.MaxFields = DefaultMaxFields
	}
	return o
}

var plainIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ExtractPageContent turns page HTML into a snapshot: visible text, headings,
// links and the interactive elements the agent can target with a selector.
// Scripts, styles and other non-content elements are dropped.
func ExtractPageContent(rawHTML, pageURL string, opts ExtractOptions) (*PageContent, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)
	w := &pageWalker{
		opts:    opts.withDefaults(),
		base:    base,
		content: &PageContent{URL: pageURL},
		atStart: true,
	}
	w.content.Title = extractTitle(doc)
	w.content.Description = extractMetaDescription(doc)
	w.walk(doc)
	w.content.Text = strings.TrimSpace(w.text.String())
	return w.content, nil
}

type pageWalker struct {
	opts    ExtractOptions
	base    *url.URL
	content *PageContent
	text    strings.Builder
	atStart bool
	full    bool
}

func (w *pageWalker) walk(n *html.Node) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		w.write(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isSkippedElement(tag) {
			return
		}
		w.collect(n, tag)
		if isBlockElement(tag) {
			w.newline()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
		if isBlockElement(tag) {
			w.newline()
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// collect records headings, links and interactive elements.
func (w *pageWalker) collect(n *html.Node, tag string) {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if len(w.content.Headings) < maxHeadings {
			if text := nodeText(n); text != "" {
				w.content.Headings = append(w.content.Headings, text)
			}
		}
	case "a":
		href := attr(n, "href")
		if href == "" || strings.HasPrefix(href, "javascript:") || len(w.content.Links) >= w.opts.MaxLinks {
			return
		}
		w.content.Links = append(w.content.Links, Link{Text: nodeText(n), Href: w.resolve(href)})
	case "input":
		inputType := strings.ToLower(attr(n, "type"))
		if inputType == "" {
			inputType = "text"
		}
		switch inputType {
		case "hidden":
			return
		case "submit", "button", "reset", "image":
			w.addButton(fieldFor(n, tag, inputType, attr(n, "value")))
		default:
			w.addInput(fieldFor(n, tag, inputType, ""))
		}
	case "textarea", "select":
		w.addInput(fieldFor(n, tag, "", ""))
	case "button":
		w.addButton(fieldFor(n, tag, strings.ToLower(attr(n, "type")), nodeText(n)))
	}
}

func (w *pageWalker) addInput(f Field) {
	if len(w.content.Inputs) < w.opts.MaxFields {
		w.content.Inputs = append(w.content.Inputs, f)
	}
}

func (w *pageWalker) addButton(f Field) {
	if len(w.content.Buttons) < w.opts.MaxFields {
		w.content.Buttons = append(w.content.Buttons, f)
	}
}

func (w *pageWalker) write(raw string) {
	if w.full {
		return
	}
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return
	}
	if !w.atStart {
		w.text.WriteByte(' ')
	}

	remaining := max(w.opts.MaxText-w.text.Len(), 0)
	if len(text) > remaining {
		cut := remaining
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		w.text.WriteString(text[:cut])
		w.text.WriteString("...")
		w.full = true
		w.content.Truncated = true
		return
	}
	w.text.WriteString(text)
	w.atStart = false
}

func (w *pageWalker) newline() {
	if w.full || w.atStart {
		return
	}
	w.text.WriteByte('\n')
	w.atStart = true
}

func (w *pageWalker) resolve(href string) string {
	if w.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return w.base.ResolveReference(ref).String()
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// fieldFor describes an interactive element and a selector that targets it.
func fieldFor(n *html.Node, tag, fieldType, label string) Field {
	f := Field{
		Tag:         tag,
		Type:        fieldType,
		Name:        attr(n, "name"),
		Placeholder: attr(n, "placeholder"),
		Label:       strings.TrimSpace(label),
	}
	if f.Label == "" {
		f.Label = attr(n, "aria-label")
	}
	if label == "" && tag != "button" {
		f.Value = attr(n, "value")
	}

	switch id := attr(n, "id"); {
	case id != "" && plainIDPattern.MatchString(id):
		f.Selector = "#" + id
	case id != "":
		f.Selector = fmt.Sprintf(`[id="%s"]`, strings.ReplaceAll(id, `"`, `\"`))
	case f.Name != "":
		f.Selector = fmt.Sprintf(`%s[name="%s"]`, tag, strings.ReplaceAll(f.Name, `"`, `\"`))
	}
	return f
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// nodeText returns the collapsed visible text under n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && isSkippedElement(strings.ToLower(c.Data)) {
			return
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func isSkippedElement(tag string) bool {
	switch tag {
	case "head", "script", "style", "noscript", "iframe", "embed", "object", "svg", "template":
		return true
	}
	return false
}

func isBlockElement(tag string) bool {
	switch tag {
	case "div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "br", "hr", "dl", "dt", "dd":
		return true
	}
	return false
}

// extractTitle returns the text of the first <title> element.
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node) bool
	traverse = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			title = nodeTextRaw(n)
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if traverse(c) {
				return true
			}
		}
		return false
	}
	traverse(doc)
	return title
}

// nodeTextRaw collects text under n without skipping <head> content.
func nodeTextRaw(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// extractMetaDescription returns the content of <meta name="description">.
func extractMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node) bool
	traverse = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" && strings.EqualFold(attr(n, "name"), "description") {
			if content := attr(n, "content"); content != "" {
				description = content
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if traverse(c) {
				return true
			}
		}
		return false
	}
	traverse(doc)
	return description
}
