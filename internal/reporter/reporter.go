// Package reporter renders reconciliation results for people and machines.
//
// Four output formats are supported:
//   - Console: human-readable summary for terminal display
//   - JSON: structured output for programmatic consumption
//   - CSV: flat match rows for spreadsheet applications
//   - Excel: a multi-sheet workbook with classification row fills
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(nil)
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatExcel   OutputFormat = "excel"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatExcel:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	// Output format
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeMatched     bool `json:"include_matched"`
	IncludeExceptions  bool `json:"include_exceptions"`
	IncludeKBUnmatched bool `json:"include_kb_unmatched"`
	IncludeParseStats  bool `json:"include_parse_stats"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`

	// Console options
	MaxListItems int `json:"max_list_items"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		IncludeMatched:     true,
		IncludeExceptions:  true,
		IncludeKBUnmatched: true,
		IncludeParseStats:  true,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
		MaxListItems:       10,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxListItems < 1 {
		return fmt.Errorf("max list items must be at least 1, got %d", c.MaxListItems)
	}

	return nil
}

// ReportGenerator renders reconciliation results in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport renders a result in the configured format and writes it to
// the provided writer. The excel format writes a binary workbook, so the
// writer should be a file for that case.
func (rg *ReportGenerator) GenerateReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	case FormatExcel:
		return rg.generateExcelReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport renders a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(result *reconciler.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "BOND TRANSFER RECONCILIATION\n")
	fmt.Fprintf(writer, "Generated: %s\n\n", result.ProcessedAt.Format(time.RFC3339))

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummaryTable(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeExceptions && len(result.Exceptions) > 0 {
		fmt.Fprintf(writer, "=== EXCEPTIONS ===\n")
		rg.printExceptions(result.Exceptions, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeKBUnmatched && len(result.KBUnmatched) > 0 {
		fmt.Fprintf(writer, "=== INTERNAL RECORDS WITHOUT DEBITS ===\n")
		rg.printKBUnmatched(result.KBUnmatched, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeParseStats && result.NormalizeStats != nil {
		fmt.Fprintf(writer, "=== PROCESSING STATISTICS ===\n")
		rg.printNormalizeStats(result, writer)
	}

	return nil
}

// generateJSONReport renders a structured JSON report
func (rg *ReportGenerator) generateJSONReport(result *reconciler.Result, writer io.Writer) error {
	filteredResult := rg.filterResultForOutput(result)

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(filteredResult)
}

// generateCSVReport renders one flat row per match plus the unmatched
// internal records, suitable for filtering in a spreadsheet.
func (rg *ReportGenerator) generateCSVReport(result *reconciler.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Type",
			"ISIN",
			"Bond_Name",
			"Client",
			"Units",
			"Posted_Date",
			"KB_Date",
			"KB_Client",
			"KB_Status",
			"Name_Similarity",
			"Classification",
			"Notes",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	matches := result.Matches
	if !rg.config.IncludeMatched {
		matches = result.Exceptions
	}

	for i := range matches {
		if err := csvWriter.Write(matchRow(&matches[i])); err != nil {
			return fmt.Errorf("failed to write match record: %w", err)
		}
	}

	if rg.config.IncludeKBUnmatched {
		for _, u := range result.KBUnmatched {
			record := []string{
				string(u.Tag),
				u.Record.ISIN,
				u.Record.BondName,
				"",
				u.Record.Units.String(),
				"",
				formatDate(u.Record.KBDate),
				u.Record.ClientName,
				u.Record.Status,
				"",
				"",
				u.Reason,
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write unmatched internal record: %w", err)
			}
		}
	}

	return nil
}

// matchRow flattens a match result into CSV fields.
func matchRow(match *models.MatchResult) []string {
	kbDate, kbClient, kbStatus, similarity := "", "", "", ""
	if match.Internal != nil {
		kbDate = formatDate(match.Internal.KBDate)
		kbClient = match.Internal.ClientName
		kbStatus = match.Internal.Status
		similarity = fmt.Sprintf("%.1f", match.NameSimilarity)
	}

	return []string{
		"Transfer",
		match.Transfer.ISIN,
		match.Transfer.BondName,
		match.Transfer.ClientName,
		match.Transfer.Units.String(),
		formatDate(match.Transfer.PostedDate),
		kbDate,
		kbClient,
		kbStatus,
		similarity,
		match.Classification.String(),
		strings.Join(match.Reasons, "; "),
	}
}

// Helper methods for console output formatting

func (rg *ReportGenerator) printSummaryTable(summary reconciler.Summary, writer io.Writer) {
	fmt.Fprintf(writer, "Transfers:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.Transfers)
	fmt.Fprintf(writer, "  OK:        %d (%.1f%%)\n",
		summary.OK, rg.calculatePercentage(summary.OK, summary.Transfers))
	fmt.Fprintf(writer, "  Review:    %d (%.1f%%)\n",
		summary.Review, rg.calculatePercentage(summary.Review, summary.Transfers))
	fmt.Fprintf(writer, "  Mismatch:  %d (%.1f%%)\n",
		summary.Mismatch, rg.calculatePercentage(summary.Mismatch, summary.Transfers))
	fmt.Fprintf(writer, "  Missing:   %d (%.1f%%)\n",
		summary.Missing, rg.calculatePercentage(summary.Missing, summary.Transfers))

	fmt.Fprintf(writer, "\nExceptions:            %d\n", summary.Exceptions)
	fmt.Fprintf(writer, "Internal-only records:  %d\n", summary.KBUnmatched)
}

func (rg *ReportGenerator) printExceptions(exceptions []models.MatchResult, writer io.Writer) {
	fmt.Fprintf(writer, "Total Exceptions: %d\n\n", len(exceptions))

	// Group by classification for readability.
	groups := make(map[models.Classification][]*models.MatchResult)
	for i := range exceptions {
		e := &exceptions[i]
		groups[e.Classification] = append(groups[e.Classification], e)
	}

	order := []models.Classification{
		models.ClassificationMismatch,
		models.ClassificationMissing,
		models.ClassificationReview,
	}

	for _, class := range order {
		items := groups[class]
		if len(items) == 0 {
			continue
		}

		fmt.Fprintf(writer, "%s (%d):\n", class, len(items))
		for i, item := range items {
			fmt.Fprintf(writer, "  %d. ISIN: %s, Units: %s, Client: %s, Posted: %s",
				i+1,
				item.Transfer.ISIN,
				item.Transfer.Units.String(),
				item.Transfer.ClientName,
				formatDate(item.Transfer.PostedDate))
			if len(item.Reasons) > 0 {
				fmt.Fprintf(writer, " (%s)", strings.Join(item.Reasons, "; "))
			}
			fmt.Fprintf(writer, "\n")

			if i >= rg.config.MaxListItems-1 && len(items) > rg.config.MaxListItems {
				fmt.Fprintf(writer, "  ... and %d more\n", len(items)-rg.config.MaxListItems)
				break
			}
		}
		fmt.Fprintf(writer, "\n")
	}
}

func (rg *ReportGenerator) printKBUnmatched(unmatched []reconciler.KBUnmatched, writer io.Writer) {
	fmt.Fprintf(writer, "Total Unmatched Internal Records: %d\n\n", len(unmatched))

	for i, u := range unmatched {
		fmt.Fprintf(writer, "  %d. [%s] ISIN: %s, Units: %s, Client: %s, KB Date: %s\n",
			i+1,
			u.Tag,
			u.Record.ISIN,
			u.Record.Units.String(),
			u.Record.ClientName,
			formatDate(u.Record.KBDate))

		if i >= rg.config.MaxListItems-1 && len(unmatched) > rg.config.MaxListItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(unmatched)-rg.config.MaxListItems)
			break
		}
	}
}

func (rg *ReportGenerator) printNormalizeStats(result *reconciler.Result, writer io.Writer) {
	stats := result.NormalizeStats
	fmt.Fprintf(writer, "Report Rows In:       %d\n", stats.RowsIn)
	fmt.Fprintf(writer, "Debit Rows:           %d\n", stats.Debits)
	fmt.Fprintf(writer, "Credits Dropped:      %d\n", stats.CreditsDropped)
	fmt.Fprintf(writer, "Incomplete Rows:      %d\n", stats.IncompleteRows)
	fmt.Fprintf(writer, "Unresolved Clients:   %d\n", stats.UnresolvedClients)
	fmt.Fprintf(writer, "Canonical Records:    %d\n", stats.Records)
}

// Helper methods

func (rg *ReportGenerator) calculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func (rg *ReportGenerator) filterResultForOutput(result *reconciler.Result) map[string]interface{} {
	output := map[string]interface{}{
		"summary":      result.Summary,
		"processed_at": result.ProcessedAt,
	}

	if rg.config.IncludeMatched && result.Matches != nil {
		output["matches"] = result.Matches
	}

	if rg.config.IncludeExceptions && result.Exceptions != nil {
		output["exceptions"] = result.Exceptions
	}

	if rg.config.IncludeKBUnmatched && result.KBUnmatched != nil {
		output["kb_unmatched"] = result.KBUnmatched
	}

	if rg.config.IncludeParseStats && result.NormalizeStats != nil {
		output["normalize_stats"] = result.NormalizeStats
	}

	return output
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
