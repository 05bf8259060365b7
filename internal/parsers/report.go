// Package parsers loads the three source files feeding the reconciliation
// pipeline: the depository transaction report (report-style CSV), the demat
// master workbook, and the internal macro workbook.
//
// The depository report is not a clean CSV: the real transaction table is
// embedded below a variable number of header and metadata lines, so the
// reader locates it by header signature rather than a fixed offset.
// Workbook loading uses excelize. Structural problems (signature not
// found, required sheet or column absent) are fatal; bad individual rows
// are soft errors counted in ParseStats.
package parsers

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/pkg/errors"
	"bond-transfer-reconciliation/pkg/logger"
)

// Canonical report column names. The report is matched on header text, not
// column position, since the depository shifts columns between report
// generations.
const (
	ColumnPostedDate = "POSTED DATE"
	ColumnISIN       = "ISIN"
	ColumnNarration  = "TRANSACTION DESCRIPTION"
	ColumnUnits      = "TRANSACTION UNITS"
	ColumnDirection  = "TRANSACTION DEBIT/CREDIT FLAG (D/C)"
)

// ReportConfig configures the depository report reader.
type ReportConfig struct {
	// HeaderSignature is the first cell of the row that starts the
	// embedded transaction table.
	HeaderSignature string

	// Column headers, overridable for report layout variants.
	PostedDateColumn string
	ISINColumn       string
	NarrationColumn  string
	UnitsColumn      string
	DirectionColumn  string
}

// DefaultReportConfig returns the layout used by the depository's
// "Transaction cum Holding" report.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		HeaderSignature:  ColumnPostedDate,
		PostedDateColumn: ColumnPostedDate,
		ISINColumn:       ColumnISIN,
		NarrationColumn:  ColumnNarration,
		UnitsColumn:      ColumnUnits,
		DirectionColumn:  ColumnDirection,
	}
}

// Validate checks the report configuration.
func (c *ReportConfig) Validate() error {
	if strings.TrimSpace(c.HeaderSignature) == "" {
		return errors.ConfigurationError("report.header_signature", c.HeaderSignature, nil)
	}
	for name, v := range map[string]string{
		"report.posted_date_column": c.PostedDateColumn,
		"report.isin_column":        c.ISINColumn,
		"report.narration_column":   c.NarrationColumn,
		"report.units_column":       c.UnitsColumn,
		"report.direction_column":   c.DirectionColumn,
	} {
		if strings.TrimSpace(v) == "" {
			return errors.ConfigurationError(name, v, nil)
		}
	}
	return nil
}

// ReportRow is one raw row of the embedded transaction table. All values
// are untyped strings; typing and validation happen in the normalizer.
type ReportRow struct {
	PostedDate string
	ISIN       string
	Narration  string
	Units      string
	Direction  string

	// Line is the 1-based line number in the source file, for audit.
	Line int
}

// ReportReader extracts the embedded transaction table from a depository
// report file.
type ReportReader struct {
	config *ReportConfig
	logger logger.Logger
}

// NewReportReader creates a ReportReader.
func NewReportReader(config *ReportConfig) (*ReportReader, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ReportReader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("report_reader"),
	}, nil
}

// ReadFile reads the transaction table from the report at path.
func (rr *ReportReader) ReadFile(path string) ([]ReportRow, *ParseStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer file.Close()

	return rr.Read(file, path)
}

// Read reads the transaction table from r. The name is used in errors and
// logs only.
func (rr *ReportReader) Read(r io.Reader, name string) ([]ReportRow, *ParseStats, error) {
	tableLines, headerLine, err := rr.extractTableLines(r, name)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(tableLines, "\n")))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.StructureError(errors.CodeHeaderNotFound, name, "table header row unreadable")
	}

	columns, err := rr.mapColumns(header, name)
	if err != nil {
		return nil, nil, err
	}

	stats := NewParseStats()
	var rows []ReportRow
	line := headerLine

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		stats.RowsRead++

		if err != nil {
			stats.AddError(&RowError{Row: line, Message: "malformed CSV row: " + err.Error()})
			continue
		}

		row := ReportRow{
			PostedDate: fieldAt(record, columns.postedDate),
			ISIN:       fieldAt(record, columns.isin),
			Narration:  fieldAt(record, columns.narration),
			Units:      fieldAt(record, columns.units),
			Direction:  fieldAt(record, columns.direction),
			Line:       line,
		}
		rows = append(rows, row)
		stats.RowsParsed++
	}

	if len(rows) == 0 {
		return nil, stats, errors.StructureError(errors.CodeEmptyTable, name,
			"transaction table header found but no transaction rows under it")
	}

	rr.logger.WithFields(logger.Fields{
		"file":        name,
		"header_line": headerLine,
		"rows":        len(rows),
		"skipped":     stats.RowsSkipped,
	}).Info("Extracted transaction table")

	return rows, stats, nil
}

// extractTableLines scans for the header-signature row and collects the
// table lines that follow, stopping at the first blank line.
func (rr *ReportReader) extractTableLines(r io.Reader, name string) ([]string, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var tableLines []string
	headerLine := 0
	inTable := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if !inTable {
			if rr.isHeaderLine(line) {
				inTable = true
				headerLine = lineNo
				tableLines = append(tableLines, line)
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			break
		}
		tableLines = append(tableLines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, errors.FileError(errors.CodeFileCorrupted, name, err)
	}

	if !inTable {
		return nil, 0, errors.StructureError(errors.CodeHeaderNotFound, name,
			"no row starting with '"+rr.config.HeaderSignature+"' found")
	}

	return tableLines, headerLine, nil
}

// isHeaderLine reports whether the line's first CSV field equals the
// configured header signature.
func (rr *ReportReader) isHeaderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	record, err := csv.NewReader(strings.NewReader(trimmed)).Read()
	if err != nil || len(record) == 0 {
		return false
	}

	return strings.EqualFold(models.CleanCell(record[0]), rr.config.HeaderSignature)
}

type columnIndexes struct {
	postedDate int
	isin       int
	narration  int
	units      int
	direction  int
}

// mapColumns resolves the configured column headers to their positions in
// the table header row.
func (rr *ReportReader) mapColumns(header []string, name string) (columnIndexes, error) {
	lookup := make(map[string]int, len(header))
	for i, h := range header {
		lookup[strings.ToUpper(models.CleanCell(h))] = i
	}

	idx := columnIndexes{}
	var missing []string

	find := func(column string, target *int) {
		if i, ok := lookup[strings.ToUpper(column)]; ok {
			*target = i
		} else {
			missing = append(missing, column)
		}
	}

	find(rr.config.PostedDateColumn, &idx.postedDate)
	find(rr.config.ISINColumn, &idx.isin)
	find(rr.config.NarrationColumn, &idx.narration)
	find(rr.config.UnitsColumn, &idx.units)
	find(rr.config.DirectionColumn, &idx.direction)

	if len(missing) > 0 {
		return idx, errors.StructureError(errors.CodeMissingColumn, name, strings.Join(missing, ", "))
	}

	return idx, nil
}

func fieldAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return models.CleanCell(record[i])
}
