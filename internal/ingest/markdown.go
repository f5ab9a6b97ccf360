package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownText renders Markdown to plain text, one paragraph per block.
// Markup and link targets are dropped; link text is kept.
func markdownText(data []byte) (string, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(data))

	var blocks []string
	collectBlocks(doc, data, &blocks)
	return strings.Join(blocks, "\n\n"), nil
}

func collectBlocks(n ast.Node, src []byte, out *[]string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if t := blockLines(node, src); t != "" {
				*out = append(*out, t)
			}
		case *ast.HTMLBlock, *ast.ThematicBreak:
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			var buf strings.Builder
			inlineText(node, src, &buf)
			if t := strings.TrimSpace(buf.String()); t != "" {
				*out = append(*out, t)
			}
		default:
			collectBlocks(c, src, out)
		}
	}
}

func inlineText(n ast.Node, src []byte, buf *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.HardLineBreak() {
				buf.WriteByte('\n')
			} else if node.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.RawHTML:
		default:
			inlineText(c, src, buf)
		}
	}
}

func blockLines(n ast.Node, src []byte) string {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSpace(buf.String())
}
