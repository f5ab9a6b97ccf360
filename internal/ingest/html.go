package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strategy extracts text from a parsed page. Its result is accepted when
// longer than minChars.
type strategy struct {
	name     string
	minChars int
	extract  func(doc *goquery.Document) string
}

// htmlStrategies run in order; the last accepts anything.
var htmlStrategies = []strategy{
	{name: "readable_body", minChars: 50, extract: readableBody},
	{name: "article_paragraphs", minChars: 30, extract: articleParagraphs},
	{name: "all_paragraphs", minChars: -1, extract: allParagraphs},
}

func (e *Extractor) htmlText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	text, name := runStrategies(doc)
	e.log.Debug("html extracted", "strategy", name, "chars", utf8.RuneCountInString(text))
	return text, nil
}

func runStrategies(doc *goquery.Document) (string, string) {
	for _, s := range htmlStrategies {
		text := strings.TrimSpace(s.extract(doc))
		if utf8.RuneCountInString(text) > s.minChars {
			return text, s.name
		}
	}
	return "", ""
}

// readableBody collects block-level text under <body>, skipping page
// chrome, one block per paragraph.
func readableBody(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "footer", "header", "aside", "form", "template":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "td", "blockquote", "pre", "figcaption":
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body.Nodes[0])
	return strings.Join(blocks, "\n\n")
}

// articleParagraphs joins the paragraphs of the first <article>.
func articleParagraphs(doc *goquery.Document) string {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return ""
	}
	var parts []string
	article.Find("p").Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(p.Text()))
	})
	return strings.Join(parts, " ")
}

// allParagraphs joins every <p> on the page with blank lines.
func allParagraphs(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(p.Text()))
	})
	return strings.Join(parts, "\n\n")
}

// textContent returns the text under n with whitespace collapsed.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
