package reporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/internal/reconciler"
)

// Workbook sheet names.
const (
	SheetDebits      = "Phase1_Debits"
	SheetMatches     = "Reconciliation"
	SheetExceptions  = "Exceptions"
	SheetKBUnmatched = "KB_Unmatched"
)

// Row fill colors, one per outcome.
const (
	fillOK     = "C6EFCE"
	fillReview = "FFEB9C"
	fillBad    = "FFC7CE"
	fillKBOnly = "D9D9D9"
)

var debitsHeader = []interface{}{
	"ISIN", "Bond Name", "Client", "Resolved", "Demat Number", "Demat Type",
	"Units", "Posted Date", "Narration",
}

var matchesHeader = []interface{}{
	"ISIN", "Bond Name", "Client", "Units", "Posted Date",
	"KB Date", "KB Client", "KB Status", "Name Similarity",
	"Classification", "Notes",
}

var kbUnmatchedHeader = []interface{}{
	"Tag", "ISIN", "Bond Name", "KB Client", "Units", "KB Date",
	"KB Status", "Sheet", "Row", "Reason",
}

// generateExcelReport builds the workbook and streams it to the writer.
func (rg *ReportGenerator) generateExcelReport(result *reconciler.Result, writer io.Writer) error {
	workbook, err := BuildWorkbook(result)
	if err != nil {
		return err
	}
	defer workbook.Close()

	if err := workbook.Write(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook assembles the combined review workbook: canonical debits,
// all matches, the exceptions subset, and the internal records no debit
// selected. Match rows are filled by classification so reviewers can scan
// for color.
func BuildWorkbook(result *reconciler.Result) (*excelize.File, error) {
	if result == nil {
		return nil, fmt.Errorf("reconciliation result cannot be nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetDebits); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", SheetDebits, err)
	}
	for _, name := range []string{SheetMatches, SheetExceptions, SheetKBUnmatched} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	styles, err := newFillStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeDebitsSheet(f, result.Records); err != nil {
		return nil, err
	}
	if err := writeMatchSheet(f, SheetMatches, result.Matches, styles); err != nil {
		return nil, err
	}
	if err := writeMatchSheet(f, SheetExceptions, result.Exceptions, styles); err != nil {
		return nil, err
	}
	if err := writeKBUnmatchedSheet(f, result.KBUnmatched, styles); err != nil {
		return nil, err
	}

	return f, nil
}

// fillStyles holds the style IDs registered on a particular workbook.
type fillStyles struct {
	ok     int
	review int
	bad    int
	kbOnly int
}

func newFillStyles(f *excelize.File) (*fillStyles, error) {
	styles := &fillStyles{}
	for _, s := range []struct {
		color string
		id    *int
	}{
		{fillOK, &styles.ok},
		{fillReview, &styles.review},
		{fillBad, &styles.bad},
		{fillKBOnly, &styles.kbOnly},
	} {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{s.color}, Pattern: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register fill style: %w", err)
		}
		*s.id = id
	}
	return styles, nil
}

// classificationStyle maps an outcome to its row fill.
func (s *fillStyles) classificationStyle(class models.Classification) int {
	switch class {
	case models.ClassificationOK:
		return s.ok
	case models.ClassificationReview:
		return s.review
	default:
		return s.bad
	}
}

func writeDebitsSheet(f *excelize.File, records []models.TransferRecord) error {
	if err := writeRow(f, SheetDebits, 1, debitsHeader); err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		row := []interface{}{
			r.ISIN, r.BondName, r.ClientName, r.ClientResolved,
			r.DematNumber, string(r.DematType),
			r.Units.String(), formatDate(r.PostedDate), r.Narration,
		}
		if err := writeRow(f, SheetDebits, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeMatchSheet(f *excelize.File, sheet string, matches []models.MatchResult, styles *fillStyles) error {
	if err := writeRow(f, sheet, 1, matchesHeader); err != nil {
		return err
	}

	for i := range matches {
		fields := matchRow(&matches[i])
		row := make([]interface{}, 0, len(fields)-1)
		// matchRow leads with a record type marker the workbook does not need.
		for _, field := range fields[1:] {
			row = append(row, field)
		}

		rowNum := i + 2
		if err := writeRow(f, sheet, rowNum, row); err != nil {
			return err
		}
		if err := fillRow(f, sheet, rowNum, len(row),
			styles.classificationStyle(matches[i].Classification)); err != nil {
			return err
		}
	}
	return nil
}

func writeKBUnmatchedSheet(f *excelize.File, unmatched []reconciler.KBUnmatched, styles *fillStyles) error {
	if err := writeRow(f, SheetKBUnmatched, 1, kbUnmatchedHeader); err != nil {
		return err
	}

	for i, u := range unmatched {
		row := []interface{}{
			string(u.Tag), u.Record.ISIN, u.Record.BondName, u.Record.ClientName,
			u.Record.Units.String(), formatDate(u.Record.KBDate), u.Record.Status,
			u.Record.Sheet, u.Record.Row, u.Reason,
		}

		rowNum := i + 2
		if err := writeRow(f, SheetKBUnmatched, rowNum, row); err != nil {
			return err
		}
		if err := fillRow(f, SheetKBUnmatched, rowNum, len(row), styles.kbOnly); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func fillRow(f *excelize.File, sheet string, row, width, styleID int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	end, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return fmt.Errorf("invalid row %d width %d: %w", row, width, err)
	}
	if err := f.SetCellStyle(sheet, start, end, styleID); err != nil {
		return fmt.Errorf("failed to style %s row %d: %w", sheet, row, err)
	}
	return nil
}
