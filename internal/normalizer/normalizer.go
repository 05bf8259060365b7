// Package normalizer turns raw depository report rows into canonical
// transfer records.
//
// Normalization filters to debit rows, resolves the demat identifier in
// each narration to a client name, validates required fields, and reports
// exactly how many rows were dropped and why. Silent loss is unacceptable:
// every excluded row shows up in Stats.
package normalizer

import (
	"bond-transfer-reconciliation/internal/demat"
	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/internal/parsers"
	"bond-transfer-reconciliation/pkg/logger"
)

// Stats reports what happened to every input row of one normalization
// pass. RowsIn always equals Debits + CreditsDropped + UnknownDropped,
// and Records equals Debits - IncompleteRows.
type Stats struct {
	RowsIn            int
	Debits            int
	CreditsDropped    int
	UnknownDropped    int
	IncompleteRows    int
	UnresolvedClients int
	Records           int

	// Incomplete lists the validation failures behind IncompleteRows.
	Incomplete []*parsers.RowError
}

// Normalizer converts report rows into canonical transfer records.
type Normalizer struct {
	resolver *demat.Resolver
	logger   logger.Logger
}

// New creates a Normalizer backed by the given demat resolver.
func New(resolver *demat.Resolver) *Normalizer {
	return &Normalizer{
		resolver: resolver,
		logger:   logger.GetGlobalLogger().WithComponent("normalizer"),
	}
}

// Normalize runs one pass over the raw rows and returns the canonical
// records in input order. The pass is pure: it mutates nothing outside the
// returned values, and rerunning it over the same input yields the same
// output.
func (n *Normalizer) Normalize(rows []parsers.ReportRow) ([]models.TransferRecord, *Stats) {
	stats := &Stats{RowsIn: len(rows)}
	records := make([]models.TransferRecord, 0, len(rows))

	for _, row := range rows {
		direction := models.ParseDirection(row.Direction)
		switch direction {
		case models.DirectionCredit:
			stats.CreditsDropped++
			continue
		case models.DirectionUnknown:
			stats.UnknownDropped++
			continue
		}
		stats.Debits++

		record, rowErr := n.buildRecord(row)
		if rowErr != nil {
			stats.IncompleteRows++
			stats.Incomplete = append(stats.Incomplete, rowErr)
			n.logger.WithFields(logger.Fields{
				"line":  rowErr.Row,
				"field": rowErr.Field,
				"value": rowErr.Value,
			}).Warn("Dropping incomplete transaction row: ", rowErr.Message)
			continue
		}

		if !record.ClientResolved {
			stats.UnresolvedClients++
		}

		records = append(records, record)
	}

	stats.Records = len(records)
	n.logger.WithFields(logger.Fields{
		"rows_in":            stats.RowsIn,
		"debits":             stats.Debits,
		"credits_dropped":    stats.CreditsDropped,
		"unknown_dropped":    stats.UnknownDropped,
		"incomplete_dropped": stats.IncompleteRows,
		"unresolved_clients": stats.UnresolvedClients,
		"records":            stats.Records,
	}).Info("Normalized transaction report")

	return records, stats
}

// buildRecord validates and types one debit row. A nil RowError means the
// record is canonical; otherwise the row is incomplete and excluded.
func (n *Normalizer) buildRecord(row parsers.ReportRow) (models.TransferRecord, *parsers.RowError) {
	isin := models.NormalizeISIN(row.ISIN)
	if isin == "" {
		return models.TransferRecord{}, &parsers.RowError{
			Row: row.Line, Field: "isin", Value: row.ISIN, Message: "missing ISIN",
		}
	}

	units, err := models.ParseUnits(row.Units)
	if err != nil {
		return models.TransferRecord{}, &parsers.RowError{
			Row: row.Line, Field: "units", Value: row.Units, Message: err.Error(),
		}
	}

	posted, err := models.ParseDate(row.PostedDate)
	if err != nil {
		return models.TransferRecord{}, &parsers.RowError{
			Row: row.Line, Field: "posted_date", Value: row.PostedDate, Message: err.Error(),
		}
	}

	// An unresolved demat identifier is tolerated: the record proceeds to
	// matching, where the empty name scores low and surfaces as the right
	// audit signal.
	res := n.resolver.Resolve(row.Narration)

	return models.TransferRecord{
		ISIN:           isin,
		DematNumber:    res.Identifier,
		DematType:      res.Type,
		ClientName:     res.ClientName,
		ClientResolved: res.Resolved(),
		Units:          units,
		PostedDate:     models.DateOnly(posted),
		Direction:      models.DirectionDebit,
		Narration:      row.Narration,
	}, nil
}
