package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bond-transfer-reconciliation/cmd/bondrecon/config"
	"bond-transfer-reconciliation/internal/matcher"
	"bond-transfer-reconciliation/internal/reconciler"
	"bond-transfer-reconciliation/internal/reporter"
	"bond-transfer-reconciliation/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	reportFile    string
	dematMaster   string
	macroFile     string
	outputFormat  string
	outputFile    string
	nameThreshold float64
	kbDateFrom    string
	kbDateTo      string
	bondInfoSheet string
	kbSheet       string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a depository report against the internal book-of-record",
	Long: `Reconcile reads a depository transaction report, keeps the outbound
debits, resolves demat identifiers to client names via the demat master,
and matches every debit against the internal macro workbook.

This command requires:
- A depository transaction report (CSV format)
- A demat master workbook (XLSX format)
- The internal macro workbook (XLSX/XLSM format)

Examples:
  # Basic reconciliation to the console
  bondrecon reconcile --report-file report.csv --demat-master master.xlsx --macro-file macro.xlsm

  # Restrict matching to an authorized-date window
  bondrecon reconcile --report-file report.csv --demat-master master.xlsx --macro-file macro.xlsm \
    --kb-date-from 2024-03-01 --kb-date-to 2024-03-31

  # Colored review workbook
  bondrecon reconcile --report-file report.csv --demat-master master.xlsx --macro-file macro.xlsm \
    --output-format excel --output-file review.xlsx

  # Relax the client name threshold
  bondrecon reconcile --report-file report.csv --demat-master master.xlsx --macro-file macro.xlsm \
    --name-threshold 85`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&reportFile, "report-file", "r", "", "path to depository transaction report CSV (required)")
	reconcileCmd.Flags().StringVarP(&dematMaster, "demat-master", "m", "", "path to demat master workbook (required)")
	reconcileCmd.Flags().StringVarP(&macroFile, "macro-file", "k", "", "path to internal macro workbook (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, excel")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	reconcileCmd.Flags().Float64VarP(&nameThreshold, "name-threshold", "t", matcher.DefaultNameThreshold, "client name similarity threshold (0-100)")
	reconcileCmd.Flags().StringVar(&kbDateFrom, "kb-date-from", "", "only match internal records authorized on or after this date (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVar(&kbDateTo, "kb-date-to", "", "only match internal records authorized on or before this date (YYYY-MM-DD)")

	// Workbook layout flags
	reconcileCmd.Flags().StringVar(&bondInfoSheet, "bond-info-sheet", "", "bond info sheet name (default: Bond Info)")
	reconcileCmd.Flags().StringVar(&kbSheet, "kb-sheet", "", "internal record sheet name (default: KB HUF)")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("report-file")
	reconcileCmd.MarkFlagRequired("demat-master")
	reconcileCmd.MarkFlagRequired("macro-file")

	// Bind flags to viper
	viper.BindPFlag("report-file", reconcileCmd.Flags().Lookup("report-file"))
	viper.BindPFlag("demat-master", reconcileCmd.Flags().Lookup("demat-master"))
	viper.BindPFlag("macro-file", reconcileCmd.Flags().Lookup("macro-file"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("name-threshold", reconcileCmd.Flags().Lookup("name-threshold"))
	viper.BindPFlag("kb-date-from", reconcileCmd.Flags().Lookup("kb-date-from"))
	viper.BindPFlag("kb-date-to", reconcileCmd.Flags().Lookup("kb-date-to"))
	viper.BindPFlag("bond-info-sheet", reconcileCmd.Flags().Lookup("bond-info-sheet"))
	viper.BindPFlag("kb-sheet", reconcileCmd.Flags().Lookup("kb-sheet"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	reportFile = viper.GetString("report-file")
	dematMaster = viper.GetString("demat-master")
	macroFile = viper.GetString("macro-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	nameThreshold = viper.GetFloat64("name-threshold")
	kbDateFrom = viper.GetString("kb-date-from")
	kbDateTo = viper.GetString("kb-date-to")
	bondInfoSheet = viper.GetString("bond-info-sheet")
	kbSheet = viper.GetString("kb-sheet")

	// Validate required flags
	if reportFile == "" {
		return fmt.Errorf("report-file is required")
	}
	if dematMaster == "" {
		return fmt.Errorf("demat-master is required")
	}
	if macroFile == "" {
		return fmt.Errorf("macro-file is required")
	}

	// Validate file existence
	if err := validateFileExists(reportFile, "transaction report"); err != nil {
		return err
	}
	if err := validateFileExists(dematMaster, "demat master workbook"); err != nil {
		return err
	}
	if err := validateFileExists(macroFile, "macro workbook"); err != nil {
		return err
	}

	// Validate output format
	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv, excel", outputFormat)
	}

	// Excel output is binary, so a destination file is required
	if reporter.OutputFormat(outputFormat) == reporter.FormatExcel && outputFile == "" {
		return fmt.Errorf("output-file is required for excel output")
	}

	// Validate threshold
	if nameThreshold < 0 || nameThreshold > 100 {
		return fmt.Errorf("name threshold must be between 0 and 100, got %v", nameThreshold)
	}

	// Validate dates
	if kbDateFrom != "" {
		if _, err := time.Parse(config.KBDateLayout, kbDateFrom); err != nil {
			return fmt.Errorf("invalid kb-date-from format. Use YYYY-MM-DD: %w", err)
		}
	}
	if kbDateTo != "" {
		if _, err := time.Parse(config.KBDateLayout, kbDateTo); err != nil {
			return fmt.Errorf("invalid kb-date-to format. Use YYYY-MM-DD: %w", err)
		}
	}

	// Validate date range
	if kbDateFrom != "" && kbDateTo != "" {
		from, _ := time.Parse(config.KBDateLayout, kbDateFrom)
		to, _ := time.Parse(config.KBDateLayout, kbDateTo)
		if from.After(to) {
			return fmt.Errorf("kb-date-from cannot be after kb-date-to")
		}
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	configureLogging()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Report file: %s\n", reportFile)
		fmt.Fprintf(os.Stderr, "Demat master: %s\n", dematMaster)
		fmt.Fprintf(os.Stderr, "Macro file: %s\n", macroFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	// Create configurations
	matcherConfig, err := config.CreateMatcherConfig(nameThreshold, kbDateFrom, kbDateTo)
	if err != nil {
		return fmt.Errorf("failed to create matcher config: %w", err)
	}

	workbookConfig := config.CreateWorkbookConfig(bondInfoSheet, kbSheet)

	// Run the pipeline
	request := &reconciler.Request{
		ReportFile:      reportFile,
		DematMasterFile: dematMaster,
		MacroFile:       macroFile,
		MatcherConfig:   matcherConfig,
		WorkbookConfig:  workbookConfig,
	}

	result, err := reconciler.NewService().Run(ctx, request)
	if err != nil {
		return err
	}

	// Generate report
	reportConfig := config.CreateReportConfig(outputFormat)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReport(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Show completion message
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d transfers: %d OK, %d review, %d mismatch, %d missing.\n",
			result.Summary.Transfers, result.Summary.OK,
			result.Summary.Review, result.Summary.Mismatch, result.Summary.Missing)
		if result.Summary.KBUnmatched > 0 {
			fmt.Fprintf(os.Stderr, "Found %d internal records no debit selected.\n", result.Summary.KBUnmatched)
		}
	}

	return nil
}

// configureLogging raises the global log level when --verbose is set.
func configureLogging() {
	logConfig := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		logConfig.Level = logger.DebugLevel
	}

	log, err := logger.New(logConfig)
	if err != nil {
		return
	}
	logger.SetGlobalLogger(log)
}
