// Package models defines the domain records flowing through the
// reconciliation pipeline: depository transfer records, internal
// book-of-record entries and the classified match results.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction represents the debit/credit flag on a depository transaction.
type Direction string

const (
	// DirectionDebit marks an outbound transfer. Only debit rows are in
	// scope for transfer-out reconciliation.
	DirectionDebit Direction = "DEBIT"
	// DirectionCredit marks an inbound transfer.
	DirectionCredit Direction = "CREDIT"
	// DirectionUnknown marks a flag value the report uses for anything else.
	DirectionUnknown Direction = "UNKNOWN"
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	return string(d)
}

// ParseDirection interprets the depository report's debit/credit flag.
// Unrecognized values map to DirectionUnknown rather than an error; such
// rows are simply out of scope and get filtered during normalization.
func ParseDirection(s string) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D", "DR", "DEBIT":
		return DirectionDebit
	case "C", "CR", "CREDIT":
		return DirectionCredit
	default:
		return DirectionUnknown
	}
}

// DematType identifies which depository convention an extracted
// identifier follows.
type DematType string

const (
	// DematNSDL is an alphanumeric identifier with the IN prefix.
	DematNSDL DematType = "NSDL"
	// DematCDSL is a 16-digit numeric identifier.
	DematCDSL DematType = "CDSL"
	// DematUnknown means no identifier could be extracted.
	DematUnknown DematType = ""
)

// TransferRecord is a canonical debit transaction produced by the
// normalizer. Records are created once and never mutated; reprocessing
// always produces a fresh set.
type TransferRecord struct {
	ISIN           string          `json:"isin"`
	DematNumber    string          `json:"demat_number,omitempty"`
	DematType      DematType       `json:"demat_type,omitempty"`
	ClientName     string          `json:"client_name,omitempty"`
	ClientResolved bool            `json:"client_resolved"`
	Units          decimal.Decimal `json:"units"`
	PostedDate     time.Time       `json:"posted_date"`
	Direction      Direction       `json:"direction"`
	BondName       string          `json:"bond_name,omitempty"`
	Narration      string          `json:"narration,omitempty"`
}

// Validate checks the invariants every canonical record must satisfy:
// ISIN and units present, posted date known, direction debit.
func (tr *TransferRecord) Validate() error {
	if strings.TrimSpace(tr.ISIN) == "" {
		return fmt.Errorf("ISIN cannot be empty")
	}

	if tr.Units.IsZero() {
		return fmt.Errorf("units cannot be zero")
	}

	if tr.PostedDate.IsZero() {
		return fmt.Errorf("posted date cannot be zero")
	}

	if tr.Direction != DirectionDebit {
		return fmt.Errorf("only debit records survive normalization, got %s", tr.Direction)
	}

	return nil
}

// String returns a compact representation for logs.
func (tr *TransferRecord) String() string {
	return fmt.Sprintf("TransferRecord{ISIN: %s, Units: %s, Client: %s, Posted: %s}",
		tr.ISIN, tr.Units.String(), tr.ClientName, tr.PostedDate.Format("2006-01-02"))
}

// StatusTransferred is the internal status value that marks a record as
// settled. Comparison is case-insensitive.
const StatusTransferred = "TRANSFERRED"

// InternalRecord is one row of the internal book-of-record after the
// internal sheets are merged into a single record set.
type InternalRecord struct {
	ISIN       string          `json:"isin"`
	Units      decimal.Decimal `json:"units"`
	ClientName string          `json:"client_name"`
	KBDate     time.Time       `json:"kb_date"`
	Status     string          `json:"status"`
	BondName   string          `json:"bond_name,omitempty"`

	// Source position for audit trails.
	Sheet string `json:"sheet,omitempty"`
	Row   int    `json:"row,omitempty"`
}

// Settled reports whether the internal status marks the transfer as done.
func (ir *InternalRecord) Settled() bool {
	return strings.EqualFold(strings.TrimSpace(ir.Status), StatusTransferred)
}

// String returns a compact representation for logs.
func (ir *InternalRecord) String() string {
	return fmt.Sprintf("InternalRecord{ISIN: %s, Units: %s, Client: %s, KBDate: %s, Status: %s}",
		ir.ISIN, ir.Units.String(), ir.ClientName, ir.KBDate.Format("2006-01-02"), ir.Status)
}

// Classification is the reconciliation outcome for one transfer record.
type Classification string

const (
	// ClassificationOK means the transfer matched the book-of-record on
	// every rule.
	ClassificationOK Classification = "OK"
	// ClassificationReview means the match needs operational confirmation
	// (posted after the authorized date, or the authorized date is missing).
	ClassificationReview Classification = "REVIEW"
	// ClassificationMismatch means a field disagreed: name below threshold,
	// status not transferred, or posted before the authorized date.
	ClassificationMismatch Classification = "MISMATCH"
	// ClassificationMissing means no internal record shares the transfer's
	// ISIN and units.
	ClassificationMissing Classification = "MISSING"
)

// String returns the string representation of the Classification.
func (c Classification) String() string {
	return string(c)
}

// MatchResult pairs a transfer record with its best internal candidate and
// the classification the matching engine assigned. Internal is nil exactly
// when the classification is Missing.
type MatchResult struct {
	Transfer       TransferRecord  `json:"transfer"`
	Internal       *InternalRecord `json:"internal,omitempty"`
	NameSimilarity float64         `json:"name_similarity"`
	Classification Classification  `json:"classification"`
	Reasons        []string        `json:"reasons"`
}

// IsException reports whether the result belongs in the exceptions view.
func (mr *MatchResult) IsException() bool {
	return mr.Classification != ClassificationOK
}

// CleanCell trims a raw tabular cell value.
func CleanCell(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeISIN upper-cases and trims a security identifier.
func NormalizeISIN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseUnits parses a unit quantity, tolerating the comma grouping the
// depository report uses.
func ParseUnits(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, fmt.Errorf("units string cannot be empty")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid units format '%s': %w", s, err)
	}

	return d, nil
}

// dateFormats are the calendar-date layouts seen across the depository
// report and internal sheets, day-first variants before month-first.
var dateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
}

// ParseDate parses a calendar date from the formats used by the source
// files. The time component, when present, is discarded downstream; only
// the calendar day matters for reconciliation.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// DateOnly truncates a timestamp to its calendar day in UTC so that date
// comparisons ignore time-of-day noise.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
