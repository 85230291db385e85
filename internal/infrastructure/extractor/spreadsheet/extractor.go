// Package spreadsheet turns workbook rows into sentences: the non-empty cells
// of a row are joined with spaces and terminated with a period when the last
// cell does not already end a sentence.
package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, key string, r io.Reader) (string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("open workbook %s: %w", key, err)
	}
	defer book.Close()

	var sentences []string
	for _, sheet := range book.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s of %s: %w", sheet, key, err)
		}
		for _, row := range rows {
			if s := rowSentence(row); s != "" {
				sentences = append(sentences, s)
			}
		}
	}
	return strings.Join(sentences, " "), nil
}

func rowSentence(row []string) string {
	cells := make([]string, 0, len(row))
	for _, cell := range row {
		if cell = strings.Join(strings.Fields(cell), " "); cell != "" {
			cells = append(cells, cell)
		}
	}
	if len(cells) == 0 {
		return ""
	}
	s := strings.Join(cells, " ")
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	default:
		return s + "."
	}
}
