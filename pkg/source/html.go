package source

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"title": true, "tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true,
	"svg": true, "template": true,
}

// HTMLDocument is the text content of a page plus the pieces a crawler needs.
type HTMLDocument struct {
	Title string
	Text  string
	Links []string
}

// ParseHTML reads an HTML page and returns its text, one block element per
// line, with scripts and styles dropped.
func ParseHTML(r io.Reader) (HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return HTMLDocument{}, err
	}

	var page HTMLDocument
	page.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			page.Links = append(page.Links, strings.TrimSpace(href))
		}
	})

	var b textBuilder
	for _, n := range doc.Find("body").Nodes {
		b.walk(n)
	}
	if len(doc.Find("body").Nodes) == 0 {
		for _, n := range doc.Nodes {
			b.walk(n)
		}
	}
	page.Text = b.String()

	return page, nil
}

// HTMLText returns only the text of an HTML page.
func HTMLText(r io.Reader) (string, error) {
	page, err := ParseHTML(r)
	if err != nil {
		return "", err
	}
	return page.Text, nil
}

type textBuilder struct {
	lines   []string
	current strings.Builder
}

func (b *textBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.text(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		if n.Data == "br" {
			b.newline()
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.newline()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
	if block {
		b.newline()
	}
}

func (b *textBuilder) text(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if b.current.Len() > 0 && s != "" {
			b.current.WriteByte(' ')
		}
		return
	}

	if b.current.Len() > 0 && startsWithSpace(s) {
		b.current.WriteByte(' ')
	}
	b.current.WriteString(strings.Join(fields, " "))
	if endsWithSpace(s) {
		b.current.WriteByte(' ')
	}
}

func (b *textBuilder) newline() {
	line := strings.TrimSpace(b.current.String())
	b.current.Reset()
	if line != "" {
		b.lines = append(b.lines, line)
	}
}

func (b *textBuilder) String() string {
	b.newline()
	return strings.Join(b.lines, "\n")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n\f") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n\f") != s
}
