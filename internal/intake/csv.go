package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
)

// CSVSource turns each data row into one block of "header: value" pairs.
// Rows are contiguous so a repeatable slot can consume the whole run.
type CSVSource struct{}

func (CSVSource) Blocks(r io.Reader, _ string) ([]doctree.ContentBlock, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	var blocks []doctree.ContentBlock
	for _, row := range records[1:] {
		var parts []string
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if j < len(headers) && strings.TrimSpace(headers[j]) != "" {
				parts = append(parts, strings.TrimSpace(headers[j])+": "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		if len(parts) == 0 {
			continue
		}
		blocks = append(blocks, doctree.ContentBlock{
			Index: len(blocks),
			Text:  strings.Join(parts, ", "),
		})
	}
	return blocks, nil
}
