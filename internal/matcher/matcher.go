package matcher

import (
	"fmt"

	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/pkg/logger"
)

// Reason strings attached to match results. Kept as formats in one place
// so the audit trail reads consistently across runs.
const (
	reasonNoCandidate    = "no internal record with matching ISIN and units"
	reasonNameBelow      = "client name similarity %.0f below threshold %.0f"
	reasonStatusNot      = "internal status '%s' is not Transferred"
	reasonKBDateMissing  = "authorized date missing on internal record, pending review"
	reasonPostedAfter    = "posted after authorized date, pending confirmation"
	reasonPostedBefore   = "posted before authorized date"
	reasonAllFieldsAgree = "ISIN, units, client name, status and dates all agree"
)

// Engine is the matching engine. It is built once per run with a fixed
// configuration and internal-record set; Match may then be called for any
// number of transfer sets.
type Engine struct {
	config   *Config
	index    *internalIndex
	internal []*models.InternalRecord
	logger   logger.Logger
}

// NewEngine creates a matching engine over the given internal records.
// The records are filtered to the configured KB-date window (when set)
// and indexed by ISIN+units; their input order is preserved for
// deterministic tie-breaking.
func NewEngine(config *Config, internal []*models.InternalRecord) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	windowed := filterKBWindow(internal, config)

	e := &Engine{
		config:   config.Clone(),
		index:    newInternalIndex(windowed),
		internal: windowed,
		logger:   logger.GetGlobalLogger().WithComponent("matching_engine"),
	}

	e.logger.WithFields(logger.Fields{
		"internal_records": len(internal),
		"in_window":        len(windowed),
		"name_threshold":   config.NameThreshold,
	}).Debug("Built matching engine")

	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// InternalRecords returns the internal records inside the KB-date window,
// in input order.
func (e *Engine) InternalRecords() []*models.InternalRecord {
	return e.internal
}

// filterKBWindow applies the optional authorized-date window. Records
// without an authorized date are excluded whenever a bound is set: they
// cannot be placed inside the window.
func filterKBWindow(records []*models.InternalRecord, config *Config) []*models.InternalRecord {
	if config.KBDateFrom == nil && config.KBDateTo == nil {
		return records
	}

	filtered := make([]*models.InternalRecord, 0, len(records))
	for _, r := range records {
		if r.KBDate.IsZero() {
			continue
		}
		day := models.DateOnly(r.KBDate)
		if config.KBDateFrom != nil && day.Before(models.DateOnly(*config.KBDateFrom)) {
			continue
		}
		if config.KBDateTo != nil && day.After(models.DateOnly(*config.KBDateTo)) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Match classifies every transfer record against the internal set. It
// returns exactly one result per transfer, in input order; no record is
// ever dropped at this stage.
func (e *Engine) Match(transfers []models.TransferRecord) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(transfers))
	counts := map[models.Classification]int{}

	for _, tr := range transfers {
		result := e.matchOne(tr)
		counts[result.Classification]++
		results = append(results, result)
	}

	e.logger.WithFields(logger.Fields{
		"transfers": len(transfers),
		"ok":        counts[models.ClassificationOK],
		"review":    counts[models.ClassificationReview],
		"mismatch":  counts[models.ClassificationMismatch],
		"missing":   counts[models.ClassificationMissing],
	}).Info("Matching complete")

	return results
}

// matchOne finds the best internal candidate for one transfer and
// classifies the pair.
func (e *Engine) matchOne(tr models.TransferRecord) models.MatchResult {
	candidates := e.index.candidates(&tr)
	if len(candidates) == 0 {
		return models.MatchResult{
			Transfer:       tr,
			Classification: models.ClassificationMissing,
			Reasons:        []string{reasonNoCandidate},
		}
	}

	best, score := e.selectBest(tr.ClientName, candidates)
	classification, reasons := e.classify(&tr, best, score)

	return models.MatchResult{
		Transfer:       tr,
		Internal:       best,
		NameSimilarity: score,
		Classification: classification,
		Reasons:        reasons,
	}
}

// selectBest picks the candidate with the highest name similarity. Ties go
// to the earliest candidate in internal input order; a strictly higher
// score is required to displace the current best, which keeps selection
// stable and reproducible across reruns.
func (e *Engine) selectBest(clientName string, candidates []*models.InternalRecord) (*models.InternalRecord, float64) {
	best := candidates[0]
	bestScore := Similarity(clientName, best.ClientName)

	for _, c := range candidates[1:] {
		if score := Similarity(clientName, c.ClientName); score > bestScore {
			best = c
			bestScore = score
		}
	}

	return best, bestScore
}

// classify applies the classification rules in precedence order against
// the matched candidate.
func (e *Engine) classify(tr *models.TransferRecord, internal *models.InternalRecord, score float64) (models.Classification, []string) {
	// Name first: a below-threshold name trumps everything else, even
	// when all other fields agree.
	if score < e.config.NameThreshold {
		return models.ClassificationMismatch,
			[]string{fmt.Sprintf(reasonNameBelow, score, e.config.NameThreshold)}
	}

	if !internal.Settled() {
		return models.ClassificationMismatch,
			[]string{fmt.Sprintf(reasonStatusNot, internal.Status)}
	}

	if internal.KBDate.IsZero() {
		return models.ClassificationReview, []string{reasonKBDateMissing}
	}

	posted := models.DateOnly(tr.PostedDate)
	authorized := models.DateOnly(internal.KBDate)

	switch {
	case posted.Equal(authorized):
		// Exact equality beats the on-or-after review rule.
		return models.ClassificationOK, []string{reasonAllFieldsAgree}
	case posted.After(authorized):
		return models.ClassificationReview, []string{reasonPostedAfter}
	default:
		return models.ClassificationMismatch, []string{reasonPostedBefore}
	}
}
