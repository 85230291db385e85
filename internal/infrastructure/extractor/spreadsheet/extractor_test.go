package spreadsheet

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractTurnsRowsIntoSentences(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"Team", "Players"},
		{"Football", "11 per side"},
		{},
		{"Is it popular?", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := NewExtractor().Extract(context.Background(), "teams.xlsx", &buf)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "Team Players. Football 11 per side. Is it popular?"
	if got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
}

func TestRowSentenceCollapsesWhitespace(t *testing.T) {
	if got := rowSentence([]string{"  a\n b ", "", "c"}); got != "a b c." {
		t.Fatalf("rowSentence() = %q", got)
	}
	if got := rowSentence([]string{"", " "}); got != "" {
		t.Fatalf("expected empty sentence, got %q", got)
	}
}
