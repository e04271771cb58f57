// Package render writes a rendered unit sequence back out as a document.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
	"github.com/fumiama/go-docx"
)

// Docx writes the rendered units as a .docx document, applying the captured
// formatting of each unit's slot. List shapes render as glyph or ordinal
// prefixes, numbering restarting whenever a non-numbered unit intervenes.
func Docx(units []doctree.RenderedUnit, w io.Writer) error {
	doc := docx.New().WithDefaultTheme()

	ordinal := 0
	for _, u := range units {
		para := doc.AddParagraph()

		text := u.Text
		switch u.Style.List {
		case doctree.ListBullet:
			ordinal = 0
			text = "• " + text
		case doctree.ListNumbered:
			ordinal++
			text = fmt.Sprintf("%d. %s", ordinal, text)
		default:
			ordinal = 0
		}
		if u.Style.IndentLevel > 0 {
			text = strings.Repeat("\t", u.Style.IndentLevel) + text
		}

		run := para.AddText(text)
		if u.Style.SizeHalfPoints > 0 {
			run.Size(strconv.Itoa(u.Style.SizeHalfPoints))
		}
		if u.Style.Bold {
			run.Bold()
		}
		if u.Style.Italic {
			run.Italic()
		}
		if u.Style.Underline {
			run.Underline("single")
		}
		if u.Style.Alignment != "" {
			para.Justification(u.Style.Alignment)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

// Text writes the rendered units as plain text. Units that open a new slot
// get a blank line before them so the run structure stays visible.
func Text(units []doctree.RenderedUnit) string {
	var buf strings.Builder
	prevSlot := ""
	ordinal := 0
	for i, u := range units {
		if i > 0 && (u.SlotID != prevSlot || u.Overflow) {
			buf.WriteString("\n")
		}
		line := u.Text
		switch u.Style.List {
		case doctree.ListBullet:
			ordinal = 0
			line = "• " + line
		case doctree.ListNumbered:
			ordinal++
			line = fmt.Sprintf("%d. %s", ordinal, line)
		default:
			ordinal = 0
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		prevSlot = u.SlotID
	}
	return buf.String()
}
