package parsers

import "fmt"

// RowError records a soft, per-row parsing problem. Soft errors never abort
// a run; they are surfaced through ParseStats for the audit trail.
type RowError struct {
	Row     int
	Field   string
	Value   string
	Message string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d, field %s='%s': %s", e.Row, e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ParseStats accumulates counts for one parsing pass. Silent loss is
// unacceptable, so every skipped row must be reflected here.
type ParseStats struct {
	RowsRead    int
	RowsParsed  int
	RowsSkipped int
	Errors      []*RowError
}

// NewParseStats creates an empty ParseStats.
func NewParseStats() *ParseStats {
	return &ParseStats{}
}

// AddError records a soft error and counts the row as skipped.
func (s *ParseStats) AddError(err *RowError) {
	s.RowsSkipped++
	s.Errors = append(s.Errors, err)
}

// AddWarning records a soft error for a row that is kept anyway.
func (s *ParseStats) AddWarning(err *RowError) {
	s.Errors = append(s.Errors, err)
}

// String returns a one-line summary for logs.
func (s *ParseStats) String() string {
	return fmt.Sprintf("rows read=%d parsed=%d skipped=%d", s.RowsRead, s.RowsParsed, s.RowsSkipped)
}
