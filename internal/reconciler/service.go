// Package reconciler orchestrates the reconciliation pipeline: parse the
// three source files, normalize the depository report, match against the
// internal book-of-record, and assemble the report sets.
//
// The pipeline is single-threaded and batch-oriented. Each stage is one
// synchronous pass with no shared mutable state between runs; rerunning
// the same inputs produces the same output, including tie-breaks.
package reconciler

import (
	"context"
	"time"

	"bond-transfer-reconciliation/internal/demat"
	"bond-transfer-reconciliation/internal/matcher"
	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/internal/normalizer"
	"bond-transfer-reconciliation/internal/parsers"
	"bond-transfer-reconciliation/pkg/errors"
	"bond-transfer-reconciliation/pkg/logger"
)

// Request names the three source files and carries per-run configuration.
type Request struct {
	// ReportFile is the depository transaction report (report-style CSV).
	ReportFile string
	// DematMasterFile is the demat master workbook.
	DematMasterFile string
	// MacroFile is the internal macro workbook with the Bond Info and KB
	// sheets.
	MacroFile string

	// MatcherConfig tunes the matching engine; nil means defaults.
	MatcherConfig *matcher.Config
	// ReportConfig overrides the report layout; nil means defaults.
	ReportConfig *parsers.ReportConfig
	// WorkbookConfig overrides the macro workbook layout; nil means defaults.
	WorkbookConfig *parsers.WorkbookConfig
}

// Validate checks that the request is runnable.
func (r *Request) Validate() error {
	if r.ReportFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "report_file", r.ReportFile)
	}
	if r.DematMasterFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "demat_master_file", r.DematMasterFile)
	}
	if r.MacroFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "macro_file", r.MacroFile)
	}
	if r.MatcherConfig != nil {
		if err := r.MatcherConfig.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// KBOnlyTag classifies an internal record that no depository debit matched.
type KBOnlyTag string

const (
	// KBOnlyTransferred marks a record the book considers settled with no
	// depository movement behind it. The strongest reverse-check signal.
	KBOnlyTransferred KBOnlyTag = "KB_ONLY_TRANSFERRED"
	// KBOnlyPending marks a record still pending internally.
	KBOnlyPending KBOnlyTag = "KB_ONLY_PENDING"
	// KBOnlyReview marks any other unmatched internal record.
	KBOnlyReview KBOnlyTag = "KB_ONLY_REVIEW"
)

// KBUnmatched is one internal record no transfer selected as its best
// candidate during the run.
type KBUnmatched struct {
	Record *models.InternalRecord `json:"record"`
	Tag    KBOnlyTag              `json:"tag"`
	Reason string                 `json:"reason"`
}

// Summary aggregates the run for at-a-glance reporting.
type Summary struct {
	Transfers   int `json:"transfers"`
	OK          int `json:"ok"`
	Review      int `json:"review"`
	Mismatch    int `json:"mismatch"`
	Missing     int `json:"missing"`
	Exceptions  int `json:"exceptions"`
	KBUnmatched int `json:"kb_unmatched"`

	RowsDropped       int `json:"rows_dropped"`
	UnresolvedClients int `json:"unresolved_clients"`
}

// Result is the complete output of one reconciliation run. All slices are
// in deterministic order and are never mutated after Run returns.
type Result struct {
	Records     []models.TransferRecord `json:"records"`
	Matches     []models.MatchResult    `json:"matches"`
	Exceptions  []models.MatchResult    `json:"exceptions"`
	KBUnmatched []KBUnmatched           `json:"kb_unmatched"`

	NormalizeStats *normalizer.Stats `json:"normalize_stats"`
	Summary        Summary           `json:"summary"`
	ProcessedAt    time.Time         `json:"processed_at"`
}

// Service runs the reconciliation pipeline.
type Service struct {
	logger logger.Logger
}

// NewService creates a Service.
func NewService() *Service {
	return &Service{
		logger: logger.GetGlobalLogger().WithComponent("reconciliation_service"),
	}
}

// Run executes the full pipeline for one request. Structural failures in
// any source file abort the run; partial data issues degrade into
// classifications and counts on the Result.
func (s *Service) Run(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	s.logger.WithFields(logger.Fields{
		"report":       req.ReportFile,
		"demat_master": req.DematMasterFile,
		"macro":        req.MacroFile,
	}).Info("Starting reconciliation run")

	reader, err := parsers.NewReportReader(req.ReportConfig)
	if err != nil {
		return nil, err
	}
	rows, _, err := reader.ReadFile(req.ReportFile)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError("reconciliation", err)
	}

	masterEntries, _, err := parsers.LoadDematMaster(req.DematMasterFile)
	if err != nil {
		return nil, err
	}
	resolver := demat.NewResolver(masterEntries)

	loader, err := parsers.NewWorkbookLoader(req.WorkbookConfig)
	if err != nil {
		return nil, err
	}
	macro, _, err := loader.Load(req.MacroFile)
	if err != nil {
		return nil, err
	}
	if len(macro.Internal) == 0 {
		return nil, errors.ReconciliationError(errors.CodeNoRecordsLoaded, "matching", nil).
			WithSuggestion("check the KB sheet name and that it contains data rows").
			WithContext("macro_file", req.MacroFile)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError("reconciliation", err)
	}

	records, stats := normalizer.New(resolver).Normalize(rows)
	for i := range records {
		records[i].BondName = macro.BondName(records[i].ISIN)
	}

	engine, err := matcher.NewEngine(req.MatcherConfig, macro.Internal)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logger.Fields{
		"name_threshold":     engine.Config().NameThreshold,
		"internal_in_window": len(engine.InternalRecords()),
	}).Debug("Matching engine ready")

	matches := engine.Match(records)

	result := &Result{
		Records:        records,
		Matches:        matches,
		Exceptions:     exceptions(matches),
		KBUnmatched:    reverseCheck(matches, engine.InternalRecords()),
		NormalizeStats: stats,
		ProcessedAt:    start,
	}
	result.Summary = summarize(result, stats)

	s.logger.WithFields(logger.Fields{
		"transfers":    result.Summary.Transfers,
		"ok":           result.Summary.OK,
		"exceptions":   result.Summary.Exceptions,
		"kb_unmatched": result.Summary.KBUnmatched,
		"elapsed":      time.Since(start).String(),
	}).Info("Reconciliation run complete")

	return result, nil
}

// exceptions returns the results whose classification is not OK, in match
// order.
func exceptions(matches []models.MatchResult) []models.MatchResult {
	out := make([]models.MatchResult, 0, len(matches))
	for _, m := range matches {
		if m.IsException() {
			out = append(out, m)
		}
	}
	return out
}

// reverseCheck tags every internal record inside the KB-date window that
// no transfer selected as its best candidate. A Transferred record without
// a depository debit behind it is the loudest signal this check exists for.
func reverseCheck(matches []models.MatchResult, internal []*models.InternalRecord) []KBUnmatched {
	selected := make(map[*models.InternalRecord]bool, len(matches))
	for i := range matches {
		if matches[i].Internal != nil {
			selected[matches[i].Internal] = true
		}
	}

	var unmatched []KBUnmatched
	for _, r := range internal {
		if selected[r] {
			continue
		}
		unmatched = append(unmatched, tagKBOnly(r))
	}
	return unmatched
}

func tagKBOnly(r *models.InternalRecord) KBUnmatched {
	if r.Settled() {
		return KBUnmatched{
			Record: r,
			Tag:    KBOnlyTransferred,
			Reason: "internal record marked Transferred but no depository debit matched it",
		}
	}

	switch matcher.NormalizeName(r.Status) {
	case "TRANSFER PENDING", "PENDING", "NOT TRANSFERRED":
		return KBUnmatched{
			Record: r,
			Tag:    KBOnlyPending,
			Reason: "internal record pending and no depository debit matched it",
		}
	}

	return KBUnmatched{
		Record: r,
		Tag:    KBOnlyReview,
		Reason: "internal record with no depository debit match",
	}
}

func summarize(result *Result, stats *normalizer.Stats) Summary {
	summary := Summary{
		Transfers:         len(result.Matches),
		Exceptions:        len(result.Exceptions),
		KBUnmatched:       len(result.KBUnmatched),
		RowsDropped:       stats.IncompleteRows,
		UnresolvedClients: stats.UnresolvedClients,
	}

	for _, m := range result.Matches {
		switch m.Classification {
		case models.ClassificationOK:
			summary.OK++
		case models.ClassificationReview:
			summary.Review++
		case models.ClassificationMismatch:
			summary.Mismatch++
		case models.ClassificationMissing:
			summary.Missing++
		}
	}

	return summary
}
