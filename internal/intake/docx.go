package intake

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
	"github.com/fumiama/go-docx"
)

// Docx parses a .docx stream into the ordered structural unit sequence the
// pipeline builds schemas from. Paragraph order is the source order; style
// references are resolved through the catalog, and anything unresolvable maps
// to the unknown sentinel rather than failing.
func Docx(r io.Reader) ([]doctree.Unit, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "templify-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var units []doctree.Unit
	tableIndex := 0
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := paragraphText(it)
			if text == "" {
				continue
			}
			styleRef := paragraphStyleRef(it)
			unit := doctree.Unit{
				Index:    len(units),
				Text:     text,
				Kind:     doctree.KindParagraph,
				StyleRef: styleRef,
				Style:    ResolveStyle(styleRef, text),
			}
			unit.ListLevel = unit.Style.IndentLevel
			units = append(units, unit)
		case *docx.Table:
			units = appendTableUnits(units, it, tableIndex)
			tableIndex++
		}
	}
	return units, nil
}

// appendTableUnits walks a table in row-major order, one unit per non-empty
// cell. Every cell carries the table's row/col shape so downstream consumers
// see tabular context without re-reading the source.
func appendTableUnits(units []doctree.Unit, tbl *docx.Table, tableIndex int) []doctree.Unit {
	rows := len(tbl.TableRows)
	cols := 0
	if rows > 0 {
		cols = len(tbl.TableRows[0].TableCells)
	}
	for ri, row := range tbl.TableRows {
		for ci, cell := range row.TableCells {
			text, styleRef := cellText(cell)
			if text == "" {
				continue
			}
			style := ResolveStyle(styleRef, text)
			style.TableRows = rows
			style.TableCols = cols
			units = append(units, doctree.Unit{
				Index:    len(units),
				Text:     text,
				Kind:     doctree.KindTableCell,
				StyleRef: styleRef,
				Style:    style,
				Table:    &doctree.TableRef{Index: tableIndex, Row: ri, Col: ci},
			})
		}
	}
	return units
}

// cellText joins a cell's paragraphs. The style reference of the first
// non-empty paragraph stands for the cell; nested tables are not descended.
func cellText(cell *docx.WTableCell) (string, string) {
	var parts []string
	styleRef := ""
	for _, para := range cell.Paragraphs {
		t := paragraphText(para)
		if t == "" {
			continue
		}
		if len(parts) == 0 {
			styleRef = paragraphStyleRef(para)
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, "\n"), styleRef
}

func paragraphStyleRef(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// catalogEntry is the resolved metadata for one well-known docx style.
// Sizes are half-points, following OOXML conventions.
var styleCatalog = map[string]doctree.Style{
	"title":          {StyleID: "Title", SizeHalfPoints: 56, Bold: true, List: doctree.ListNone},
	"subtitle":       {StyleID: "Subtitle", SizeHalfPoints: 30, Italic: true, List: doctree.ListNone},
	"heading1":       {StyleID: "Heading1", SizeHalfPoints: 32, Bold: true, List: doctree.ListNone},
	"heading2":       {StyleID: "Heading2", SizeHalfPoints: 26, Bold: true, List: doctree.ListNone},
	"heading3":       {StyleID: "Heading3", SizeHalfPoints: 24, Bold: true, List: doctree.ListNone},
	"heading4":       {StyleID: "Heading4", SizeHalfPoints: 22, Bold: true, Italic: true, List: doctree.ListNone},
	"heading5":       {StyleID: "Heading5", SizeHalfPoints: 22, Bold: true, List: doctree.ListNone},
	"heading6":       {StyleID: "Heading6", SizeHalfPoints: 22, Italic: true, List: doctree.ListNone},
	"normal":         {StyleID: "Normal", SizeHalfPoints: 22, List: doctree.ListNone},
	"bodytext":       {StyleID: "BodyText", SizeHalfPoints: 22, List: doctree.ListNone},
	"listparagraph":  {StyleID: "ListParagraph", SizeHalfPoints: 22, IndentLevel: 1, List: doctree.ListBullet},
	"listbullet":     {StyleID: "ListBullet", SizeHalfPoints: 22, IndentLevel: 1, List: doctree.ListBullet},
	"listnumber":     {StyleID: "ListNumber", SizeHalfPoints: 22, IndentLevel: 1, List: doctree.ListNumbered},
	"quote":          {StyleID: "Quote", SizeHalfPoints: 22, Italic: true, IndentLevel: 1, List: doctree.ListNone},
	"intensequote":   {StyleID: "IntenseQuote", SizeHalfPoints: 22, Italic: true, IndentLevel: 1, List: doctree.ListNone},
	"caption":        {StyleID: "Caption", SizeHalfPoints: 18, Italic: true, List: doctree.ListNone},
	"nospacing":      {StyleID: "NoSpacing", SizeHalfPoints: 22, List: doctree.ListNone},
	"signatureblock": {StyleID: "SignatureBlock", SizeHalfPoints: 22, List: doctree.ListNone},
}

// ResolveStyle maps a docx style reference to captured style metadata.
// References the catalog does not know fall back to the unknown sentinel,
// refined by cheap text evidence so list paragraphs keep their shape.
func ResolveStyle(styleRef, text string) doctree.Style {
	key := strings.ToLower(strings.ReplaceAll(styleRef, " ", ""))
	if s, ok := styleCatalog[key]; ok {
		return s
	}

	s := doctree.UnknownStyle()
	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		switch {
		case strings.IndexAny(trimmed, "•·∙●◦○▪") == 0:
			s.List = doctree.ListBullet
			s.IndentLevel = 1
		case strings.HasPrefix(trimmed, "- "):
			s.List = doctree.ListBullet
			s.IndentLevel = 1
		}
	}
	return s
}
