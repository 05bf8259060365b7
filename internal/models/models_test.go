package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input string
		want  Direction
	}{
		{"D", DirectionDebit},
		{"d", DirectionDebit},
		{" DR ", DirectionDebit},
		{"DEBIT", DirectionDebit},
		{"C", DirectionCredit},
		{"CR", DirectionCredit},
		{"credit", DirectionCredit},
		{"", DirectionUnknown},
		{"X", DirectionUnknown},
	}

	for _, tt := range tests {
		if got := ParseDirection(tt.input); got != tt.want {
			t.Errorf("ParseDirection(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestTransferRecordValidate(t *testing.T) {
	valid := TransferRecord{
		ISIN:       "INE001A01036",
		Units:      decimal.NewFromInt(100),
		PostedDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Direction:  DirectionDebit,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*TransferRecord)
	}{
		{"empty ISIN", func(r *TransferRecord) { r.ISIN = "  " }},
		{"zero units", func(r *TransferRecord) { r.Units = decimal.Zero }},
		{"zero posted date", func(r *TransferRecord) { r.PostedDate = time.Time{} }},
		{"credit direction", func(r *TransferRecord) { r.Direction = DirectionCredit }},
	}

	for _, tt := range tests {
		r := valid
		tt.mutate(&r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestInternalRecordSettled(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Transferred", true},
		{"TRANSFERRED", true},
		{" transferred ", true},
		{"Transfer Pending", false},
		{"", false},
	}

	for _, tt := range tests {
		ir := InternalRecord{Status: tt.status}
		if got := ir.Settled(); got != tt.want {
			t.Errorf("Settled(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("1,00,000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("expected 100000, got %s", got)
	}

	got, err = ParseUnits(" 250.50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(250.50)) {
		t.Errorf("expected 250.50, got %s", got)
	}

	if _, err := ParseUnits(""); err == nil {
		t.Error("expected error for empty units")
	}
	if _, err := ParseUnits("abc"); err == nil {
		t.Error("expected error for non-numeric units")
	}
}

func TestParseDateDayFirst(t *testing.T) {
	got, err := ParseDate("05/03/2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !SameDay(got, want) {
		t.Errorf("expected 2024-03-05, got %s", got.Format("2006-01-02"))
	}

	got, err = ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !SameDay(got, want) {
		t.Errorf("ISO format: expected 2024-03-05, got %s", got.Format("2006-01-02"))
	}

	if _, err := ParseDate("not a date"); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 5, 22, 30, 0, 0, time.UTC)
	next := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	if !SameDay(morning, evening) {
		t.Error("timestamps on the same day should compare equal")
	}
	if SameDay(evening, next) {
		t.Error("adjacent days should not compare equal")
	}
}

func TestMatchResultIsException(t *testing.T) {
	for _, c := range []Classification{ClassificationReview, ClassificationMismatch, ClassificationMissing} {
		mr := MatchResult{Classification: c}
		if !mr.IsException() {
			t.Errorf("%s should be an exception", c)
		}
	}

	ok := MatchResult{Classification: ClassificationOK}
	if ok.IsException() {
		t.Error("OK should not be an exception")
	}
}
