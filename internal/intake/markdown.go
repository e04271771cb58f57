package intake

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownSource parses Markdown with goldmark and flattens the block AST
// into content blocks. Top-level blocks get a boundary before them; items
// inside one list stay contiguous so repeatable slots can consume the run.
type MarkdownSource struct{}

func (MarkdownSource) Blocks(r io.Reader, _ string) ([]doctree.ContentBlock, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []doctree.ContentBlock
	push := func(t string, boundary bool) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		blocks = append(blocks, doctree.ContentBlock{
			Index:          len(blocks),
			Text:           t,
			BoundaryBefore: boundary && len(blocks) > 0,
		})
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			push(string(node.Text(src)), true)
		case *ast.List:
			first := true
			for li := node.FirstChild(); li != nil; li = li.NextSibling() {
				push(inlineText(li, src), first)
				first = false
			}
		default:
			push(inlineText(n, src), true)
		}
	}
	return blocks, nil
}

// inlineText gets the flattened text content of a goldmark AST node.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		} else {
			buf.WriteString(inlineText(c, src))
			if c.Type() == ast.TypeBlock {
				buf.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
