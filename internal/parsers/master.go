package parsers

import (
	"github.com/xuri/excelize/v2"

	"bond-transfer-reconciliation/internal/demat"
	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/pkg/errors"
	"bond-transfer-reconciliation/pkg/logger"
)

// masterColumns is the minimum column count of the demat master: client
// name, CDSL identifier, NSDL identifier, in that order.
const masterColumns = 3

// LoadDematMaster reads the demat master workbook and returns its entries
// in sheet order. The first sheet is used; the first row is treated as a
// header. Fewer than three columns is a structural failure.
func LoadDematMaster(path string) ([]demat.MasterEntry, *ParseStats, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, errors.StructureError(errors.CodeMissingSheet, path, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	if len(rows) == 0 || len(rows[0]) < masterColumns {
		return nil, nil, errors.StructureError(errors.CodeMissingColumn, path,
			"demat master must have at least 3 columns: Name, CDSL, NSDL")
	}

	log := logger.GetGlobalLogger().WithComponent("demat_master_loader")
	stats := NewParseStats()
	var entries []demat.MasterEntry

	for i, row := range rows[1:] {
		rowNo := i + 2 // 1-based, after the header
		stats.RowsRead++

		entry := demat.MasterEntry{
			ClientName: models.CleanCell(cellAt(row, 0)),
			CDSL:       models.CleanCell(cellAt(row, 1)),
			NSDL:       models.CleanCell(cellAt(row, 2)),
		}

		if entry.ClientName == "" && entry.CDSL == "" && entry.NSDL == "" {
			stats.AddError(&RowError{Row: rowNo, Message: "empty master row"})
			continue
		}

		entries = append(entries, entry)
		stats.RowsParsed++
	}

	log.WithFields(logger.Fields{
		"file":    path,
		"sheet":   sheet,
		"entries": len(entries),
		"skipped": stats.RowsSkipped,
	}).Info("Loaded demat master")

	return entries, stats, nil
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
