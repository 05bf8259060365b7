package matcher

import (
	"bond-transfer-reconciliation/internal/models"

	"github.com/shopspring/decimal"
)

// internalIndex buckets internal records by their strict match key,
// ISIN plus exact units. Candidate lists preserve input order so that
// similarity ties break deterministically on the earliest record.
type internalIndex struct {
	buckets map[indexKey][]*models.InternalRecord
	total   int
}

type indexKey struct {
	isin  string
	units string
}

func keyFor(isin string, units decimal.Decimal) indexKey {
	// decimal.String() is canonical for a given value, so 100 and 100.00
	// parsed from different sources produce the same key.
	return indexKey{isin: models.NormalizeISIN(isin), units: units.String()}
}

// newInternalIndex builds the index over the given records, preserving
// their order within each bucket.
func newInternalIndex(records []*models.InternalRecord) *internalIndex {
	idx := &internalIndex{
		buckets: make(map[indexKey][]*models.InternalRecord),
		total:   len(records),
	}

	for _, r := range records {
		key := keyFor(r.ISIN, r.Units)
		idx.buckets[key] = append(idx.buckets[key], r)
	}

	return idx
}

// candidates returns the internal records sharing the transfer's ISIN and
// units exactly, in input order. Both fields are hard filters.
func (idx *internalIndex) candidates(tr *models.TransferRecord) []*models.InternalRecord {
	return idx.buckets[keyFor(tr.ISIN, tr.Units)]
}
