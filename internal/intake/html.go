package intake

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLSource flattens an HTML document into content blocks. Headings and
// paragraphs start a new boundary; list items within one list stay contiguous.
type HTMLSource struct{}

func (HTMLSource) Blocks(r io.Reader, _ string) ([]doctree.ContentBlock, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

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

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "td", "blockquote":
				push(nodeText(n), true)
				return
			case "ul", "ol":
				first := true
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && c.Data == "li" {
						push(nodeText(c), first)
						first = false
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return blocks, nil
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
