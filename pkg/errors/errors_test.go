package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestReconErrorMessage(t *testing.T) {
	err := New(CategoryParse, CodeHeaderNotFound, "header row not found")
	if err.Error() != "header row not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	err.WithSuggestion("check the report format")
	if !strings.Contains(err.Error(), "suggestion: check the report format") {
		t.Errorf("expected suggestion in message, got: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryFile, CodeFileCorrupted, "could not read workbook")

	if err.Unwrap() != cause {
		t.Error("expected Unwrap to return the original cause")
	}

	if Wrap(nil, CategoryFile, CodeFileCorrupted, "ignored") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
		{Category("unknown"), 1},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "test")
		if got := err.ExitCode(); got != tt.want {
			t.Errorf("ExitCode for %s = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestAsReconError(t *testing.T) {
	inner := StructureError(CodeMissingSheet, "macro.xlsm", "KB HUF")
	wrapped := fmt.Errorf("loading internal records: %w", inner)

	re, ok := AsReconError(wrapped)
	if !ok {
		t.Fatal("expected to find ReconError in chain")
	}
	if re.Code != CodeMissingSheet {
		t.Errorf("unexpected code: %s", re.Code)
	}
	if re.Context["file"] != "macro.xlsm" {
		t.Errorf("expected file context, got %v", re.Context)
	}

	if _, ok := AsReconError(fmt.Errorf("plain error")); ok {
		t.Error("plain error should not yield a ReconError")
	}
}

func TestStructureErrorIsFatalCategory(t *testing.T) {
	err := StructureError(CodeHeaderNotFound, "report.csv", "no POSTED DATE row")
	if err.Category != CategoryParse {
		t.Errorf("expected parse category, got %s", err.Category)
	}
	if err.Suggestion == "" {
		t.Error("structure errors should carry a suggestion")
	}
}

func TestWithContextAccumulates(t *testing.T) {
	err := New(CategoryValidation, CodeMissingField, "missing ISIN").
		WithContext("row", 7).
		WithContext("column", "ISIN")

	if err.Context["row"] != 7 || err.Context["column"] != "ISIN" {
		t.Errorf("context not accumulated: %v", err.Context)
	}
}
