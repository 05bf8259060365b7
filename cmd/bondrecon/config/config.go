// Package config builds component configurations from CLI inputs.
package config

import (
	"fmt"
	"time"

	"bond-transfer-reconciliation/internal/matcher"
	"bond-transfer-reconciliation/internal/parsers"
	"bond-transfer-reconciliation/internal/reporter"
)

// KBDateLayout is the wire format for the CLI date-window flags.
const KBDateLayout = "2006-01-02"

// CreateMatcherConfig creates a matcher configuration with the CLI overrides
// applied. Empty date strings leave the corresponding bound open.
func CreateMatcherConfig(nameThreshold float64, kbDateFrom, kbDateTo string) (*matcher.Config, error) {
	config := matcher.DefaultConfig()
	config.NameThreshold = nameThreshold

	if kbDateFrom != "" {
		from, err := time.Parse(KBDateLayout, kbDateFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid kb-date-from %q, use YYYY-MM-DD: %w", kbDateFrom, err)
		}
		config.KBDateFrom = &from
	}

	if kbDateTo != "" {
		to, err := time.Parse(KBDateLayout, kbDateTo)
		if err != nil {
			return nil, fmt.Errorf("invalid kb-date-to %q, use YYYY-MM-DD: %w", kbDateTo, err)
		}
		config.KBDateTo = &to
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// CreateWorkbookConfig creates a workbook configuration with the sheet name
// overrides applied. Empty strings keep the defaults.
func CreateWorkbookConfig(bondInfoSheet, kbSheet string) *parsers.WorkbookConfig {
	config := parsers.DefaultWorkbookConfig()

	if bondInfoSheet != "" {
		config.BondInfoSheet = bondInfoSheet
	}
	if kbSheet != "" {
		config.KBSheet = kbSheet
	}

	return config
}

// CreateReportConfig creates a reporter configuration for the specified
// output format.
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.IncludeExceptions = true
		config.IncludeKBUnmatched = true
		config.IncludeParseStats = true
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeMatched = false // keep JSON output focused on exceptions
		config.IncludeExceptions = true
		config.IncludeKBUnmatched = true
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		config.IncludeMatched = true
		config.IncludeKBUnmatched = true
		config.IncludeParseStats = false
	case "excel":
		config.Format = reporter.FormatExcel
		config.IncludeMatched = true
		config.IncludeExceptions = true
		config.IncludeKBUnmatched = true
	}

	return config
}
