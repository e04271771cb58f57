package intake

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
)

// TextSource reads plain text line by line. Blank lines are not blocks
// themselves; they mark a boundary on the next non-empty line.
type TextSource struct{}

func (TextSource) Blocks(r io.Reader, _ string) ([]doctree.ContentBlock, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []doctree.ContentBlock
	sawBlank := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			sawBlank = true
			continue
		}
		blocks = append(blocks, doctree.ContentBlock{
			Index:          len(blocks),
			Text:           strings.TrimSpace(line),
			BoundaryBefore: sawBlank && len(blocks) > 0,
		})
		sawBlank = false
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text: %w", err)
	}
	return blocks, nil
}
