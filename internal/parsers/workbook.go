package parsers

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/pkg/errors"
	"bond-transfer-reconciliation/pkg/logger"
)

// WorkbookConfig names the internal sheets of the macro workbook and their
// positional columns. The internal sheets are positional by contract: the
// macro workbook is machine-generated, so columns are addressed by index
// rather than header text.
type WorkbookConfig struct {
	BondInfoSheet string
	KBSheet       string

	// KB HUF positional columns (0-based).
	KBISINColumn   int
	KBClientColumn int
	KBUnitsColumn  int
	KBDateColumn   int
	KBStatusColumn int

	// KBMinColumns is the minimum width of the KB sheet header.
	KBMinColumns int
}

// DefaultWorkbookConfig returns the layout of the operations macro
// workbook: Bond Info (A=bond name, B=ISIN) and KB HUF (B=ISIN, D=client,
// E=units, H=date, L=status).
func DefaultWorkbookConfig() *WorkbookConfig {
	return &WorkbookConfig{
		BondInfoSheet:  "Bond Info",
		KBSheet:        "KB HUF",
		KBISINColumn:   1,
		KBClientColumn: 3,
		KBUnitsColumn:  4,
		KBDateColumn:   7,
		KBStatusColumn: 11,
		KBMinColumns:   12,
	}
}

// Validate checks the workbook configuration.
func (c *WorkbookConfig) Validate() error {
	if c.BondInfoSheet == "" || c.KBSheet == "" {
		return errors.ConfigurationError("workbook.sheets", fmt.Sprintf("%q/%q", c.BondInfoSheet, c.KBSheet), nil)
	}
	if c.KBMinColumns <= c.KBStatusColumn {
		return errors.ConfigurationError("workbook.kb_min_columns", c.KBMinColumns, nil)
	}
	return nil
}

// MacroData is the merged internal-record set: KB rows carrying the record
// fields, with the Bond Info sheet contributing ISIN-to-bond-name
// enrichment.
type MacroData struct {
	// Bonds maps ISIN to bond name.
	Bonds map[string]string

	// Internal holds the book-of-record entries in sheet order.
	Internal []*models.InternalRecord
}

// BondName returns the bond name for an ISIN, or "" when unknown.
func (m *MacroData) BondName(isin string) string {
	return m.Bonds[models.NormalizeISIN(isin)]
}

// WorkbookLoader reads the macro workbook's internal sheets.
type WorkbookLoader struct {
	config *WorkbookConfig
	logger logger.Logger
}

// NewWorkbookLoader creates a WorkbookLoader.
func NewWorkbookLoader(config *WorkbookConfig) (*WorkbookLoader, error) {
	if config == nil {
		config = DefaultWorkbookConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WorkbookLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("workbook_loader"),
	}, nil
}

// Load reads both internal sheets from the workbook at path and merges
// them into one MacroData set. A missing sheet is a structural failure.
func (wl *WorkbookLoader) Load(path string) (*MacroData, *ParseStats, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer f.Close()

	stats := NewParseStats()

	bonds, err := wl.loadBondInfo(f, path)
	if err != nil {
		return nil, nil, err
	}

	internal, err := wl.loadKBSheet(f, path, bonds, stats)
	if err != nil {
		return nil, nil, err
	}

	wl.logger.WithFields(logger.Fields{
		"file":             path,
		"bonds":            len(bonds),
		"internal_records": len(internal),
		"skipped":          stats.RowsSkipped,
	}).Info("Loaded macro workbook")

	return &MacroData{Bonds: bonds, Internal: internal}, stats, nil
}

func (wl *WorkbookLoader) sheetRows(f *excelize.File, path, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, errors.StructureError(errors.CodeMissingSheet, path, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	return rows, nil
}

// loadBondInfo reads the Bond Info sheet: column A bond name, column B
// ISIN, header row first. Later duplicates of an ISIN are ignored.
func (wl *WorkbookLoader) loadBondInfo(f *excelize.File, path string) (map[string]string, error) {
	rows, err := wl.sheetRows(f, path, wl.config.BondInfoSheet)
	if err != nil {
		return nil, err
	}

	bonds := make(map[string]string)
	for _, row := range skipHeader(rows) {
		isin := models.NormalizeISIN(cellAt(row, 1))
		name := models.CleanCell(cellAt(row, 0))
		if isin == "" {
			continue
		}
		if _, exists := bonds[isin]; !exists {
			bonds[isin] = name
		}
	}

	return bonds, nil
}

// loadKBSheet reads the KB sheet into internal records. Rows with an
// unparseable units value are soft errors; a blank KB date is kept as a
// zero time and classified downstream, not dropped here.
func (wl *WorkbookLoader) loadKBSheet(f *excelize.File, path string, bonds map[string]string, stats *ParseStats) ([]*models.InternalRecord, error) {
	rows, err := wl.sheetRows(f, path, wl.config.KBSheet)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 || len(rows[0]) < wl.config.KBMinColumns {
		return nil, errors.StructureError(errors.CodeMissingColumn, path,
			fmt.Sprintf("%s sheet has fewer than %d columns", wl.config.KBSheet, wl.config.KBMinColumns))
	}

	var records []*models.InternalRecord
	for i, row := range skipHeader(rows) {
		rowNo := i + 2
		stats.RowsRead++

		isin := models.NormalizeISIN(cellAt(row, wl.config.KBISINColumn))
		unitsRaw := cellAt(row, wl.config.KBUnitsColumn)

		if isin == "" && models.CleanCell(unitsRaw) == "" {
			stats.AddError(&RowError{Row: rowNo, Message: "empty internal row"})
			continue
		}

		units, err := models.ParseUnits(unitsRaw)
		if err != nil {
			stats.AddError(&RowError{Row: rowNo, Field: "units", Value: unitsRaw, Message: err.Error()})
			continue
		}

		record := &models.InternalRecord{
			ISIN:       isin,
			Units:      units,
			ClientName: models.CleanCell(cellAt(row, wl.config.KBClientColumn)),
			Status:     models.CleanCell(cellAt(row, wl.config.KBStatusColumn)),
			BondName:   bonds[isin],
			Sheet:      wl.config.KBSheet,
			Row:        rowNo,
		}

		if raw := models.CleanCell(cellAt(row, wl.config.KBDateColumn)); raw != "" {
			date, err := models.ParseDate(raw)
			if err != nil {
				stats.AddWarning(&RowError{Row: rowNo, Field: "kb_date", Value: raw, Message: err.Error()})
			} else {
				record.KBDate = date
			}
		}

		records = append(records, record)
		stats.RowsParsed++
	}

	return records, nil
}

func skipHeader(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}
