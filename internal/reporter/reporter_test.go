package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/internal/normalizer"
	"bond-transfer-reconciliation/internal/reconciler"
)

func sampleResult() *reconciler.Result {
	posted := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	okTransfer := models.TransferRecord{
		ISIN:           "INE001A01036",
		ClientName:     "John Smith",
		ClientResolved: true,
		Units:          decimal.NewFromInt(100),
		PostedDate:     posted,
		Direction:      models.DirectionDebit,
		BondName:       "Acme 9.5% 2027",
	}
	okInternal := &models.InternalRecord{
		ISIN:       "INE001A01036",
		Units:      decimal.NewFromInt(100),
		ClientName: "John Smith",
		KBDate:     posted,
		Status:     "Transferred",
		Sheet:      "KB HUF",
		Row:        2,
	}

	missingTransfer := models.TransferRecord{
		ISIN:       "INE404X40404",
		ClientName: "Priya Sharma",
		Units:      decimal.NewFromInt(75),
		PostedDate: posted,
		Direction:  models.DirectionDebit,
	}

	matches := []models.MatchResult{
		{
			Transfer:       okTransfer,
			Internal:       okInternal,
			NameSimilarity: 100,
			Classification: models.ClassificationOK,
			Reasons:        []string{"all fields agree"},
		},
		{
			Transfer:       missingTransfer,
			Classification: models.ClassificationMissing,
			Reasons:        []string{"no internal record with this ISIN and units"},
		},
	}

	kbOnly := &models.InternalRecord{
		ISIN:       "INE002B01019",
		Units:      decimal.NewFromInt(999),
		ClientName: "Ravi Patel",
		KBDate:     posted,
		Status:     "Transferred",
		Sheet:      "KB HUF",
		Row:        4,
	}

	return &reconciler.Result{
		Records:    []models.TransferRecord{okTransfer, missingTransfer},
		Matches:    matches,
		Exceptions: matches[1:],
		KBUnmatched: []reconciler.KBUnmatched{
			{
				Record: kbOnly,
				Tag:    reconciler.KBOnlyTransferred,
				Reason: "marked transferred but no debit selected it",
			},
		},
		NormalizeStats: &normalizer.Stats{
			RowsIn:  4,
			Debits:  2,
			Records: 2,
		},
		Summary: reconciler.Summary{
			Transfers:   2,
			OK:          1,
			Missing:     1,
			Exceptions:  1,
			KBUnmatched: 1,
		},
		ProcessedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestOutputFormatIsValid(t *testing.T) {
	for _, f := range []OutputFormat{FormatConsole, FormatJSON, FormatCSV, FormatExcel} {
		if !f.IsValid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if OutputFormat("xml").IsValid() {
		t.Error("xml should not be valid")
	}
}

func TestReportConfigValidate(t *testing.T) {
	config := DefaultReportConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	config.Format = "bogus"
	if err := config.Validate(); err == nil {
		t.Error("expected error for bogus format")
	}

	config = DefaultReportConfig()
	config.MaxListItems = 0
	if err := config.Validate(); err == nil {
		t.Error("expected error for zero max list items")
	}
}

func TestNewReportGeneratorDefaults(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rg.GetConfiguration().Format != FormatConsole {
		t.Errorf("expected console default, got %s", rg.GetConfiguration().Format)
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"=== SUMMARY ===",
		"Total:     2",
		"OK:        1 (50.0%)",
		"=== EXCEPTIONS ===",
		"MISSING (1)",
		"INE404X40404",
		"=== INTERNAL RECORDS WITHOUT DEBITS ===",
		"Ravi Patel",
		"=== PROCESSING STATISTICS ===",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q\n%s", want, out)
		}
	}
}

func TestGenerateJSONReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	rg, err := NewReportGenerator(config)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	for _, key := range []string{"summary", "matches", "exceptions", "kb_unmatched", "normalize_stats"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON output missing key %q", key)
		}
	}
}

func TestGenerateJSONReportExceptionsOnly(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	config.IncludeMatched = false
	rg, err := NewReportGenerator(config)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["matches"]; ok {
		t.Error("matches should be excluded when IncludeMatched is false")
	}
}

func TestGenerateCSVReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	rg, err := NewReportGenerator(config)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}

	// Header + two matches + one unmatched internal record.
	if len(rows) != 4 {
		t.Fatalf("expected 4 CSV rows, got %d", len(rows))
	}
	if rows[0][0] != "Type" {
		t.Errorf("expected header row, got %v", rows[0])
	}
	if rows[1][10] != "OK" {
		t.Errorf("expected OK classification, got %q", rows[1][10])
	}
	if rows[2][10] != "MISSING" {
		t.Errorf("expected MISSING classification, got %q", rows[2][10])
	}
	if rows[3][0] != "KB_ONLY_TRANSFERRED" {
		t.Errorf("expected KB-only tag in type column, got %q", rows[3][0])
	}
}

func TestBuildWorkbook(t *testing.T) {
	workbook, err := BuildWorkbook(sampleResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer workbook.Close()

	for _, sheet := range []string{SheetDebits, SheetMatches, SheetExceptions, SheetKBUnmatched} {
		if idx, _ := workbook.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	rows, err := workbook.GetRows(SheetMatches)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 match rows, got %d", len(rows))
	}
	if rows[1][0] != "INE001A01036" {
		t.Errorf("unexpected first match ISIN: %q", rows[1][0])
	}
	if rows[2][9] != "MISSING" {
		t.Errorf("unexpected classification cell: %q", rows[2][9])
	}

	exceptions, err := workbook.GetRows(SheetExceptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(exceptions) != 2 {
		t.Errorf("expected header plus 1 exception row, got %d", len(exceptions))
	}

	kb, err := workbook.GetRows(SheetKBUnmatched)
	if err != nil {
		t.Fatal(err)
	}
	if len(kb) != 2 {
		t.Fatalf("expected header plus 1 unmatched row, got %d", len(kb))
	}
	if kb[1][0] != "KB_ONLY_TRANSFERRED" {
		t.Errorf("unexpected tag cell: %q", kb[1][0])
	}
}

func TestBuildWorkbookRowFills(t *testing.T) {
	workbook, err := BuildWorkbook(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	defer workbook.Close()

	okStyle, err := workbook.GetCellStyle(SheetMatches, "A2")
	if err != nil {
		t.Fatal(err)
	}
	missingStyle, err := workbook.GetCellStyle(SheetMatches, "A3")
	if err != nil {
		t.Fatal(err)
	}
	if okStyle == missingStyle {
		t.Error("OK and MISSING rows should carry different fills")
	}
}

func TestGenerateExcelReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatExcel
	rg, err := NewReportGenerator(config)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	workbook, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer workbook.Close()

	if idx, _ := workbook.GetSheetIndex(SheetDebits); idx < 0 {
		t.Errorf("missing sheet %s in written workbook", SheetDebits)
	}
}

func TestGenerateReportNilResult(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := rg.GenerateReport(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil result")
	}
}
