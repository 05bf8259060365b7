package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	// Create temporary test files
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		description string
		expectError bool
	}{
		{
			name:        "valid file",
			filePath:    validFile,
			description: "test file",
			expectError: false,
		},
		{
			name:        "empty path",
			filePath:    "",
			description: "test file",
			expectError: true,
		},
		{
			name:        "non-existent file",
			filePath:    "/non/existent/file.csv",
			description: "test file",
			expectError: true,
		},
		{
			name:        "directory instead of file",
			filePath:    tmpDir,
			description: "test file",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, tt.description)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateReconcileFlags(t *testing.T) {
	// Create temporary test files
	tmpDir := t.TempDir()
	report := filepath.Join(tmpDir, "report.csv")
	master := filepath.Join(tmpDir, "master.xlsx")
	macro := filepath.Join(tmpDir, "macro.xlsm")

	for _, path := range []string{report, master, macro} {
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
	}

	setValidFlags := func() {
		viper.Set("report-file", report)
		viper.Set("demat-master", master)
		viper.Set("macro-file", macro)
		viper.Set("output-format", "console")
		viper.Set("output-file", "")
		viper.Set("name-threshold", 95.0)
		viper.Set("kb-date-from", "")
		viper.Set("kb-date-to", "")
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name:        "valid flags",
			setupFlags:  setValidFlags,
			expectError: false,
		},
		{
			name: "missing report file",
			setupFlags: func() {
				setValidFlags()
				viper.Set("report-file", "")
			},
			expectError:   true,
			errorContains: "report-file is required",
		},
		{
			name: "missing demat master",
			setupFlags: func() {
				setValidFlags()
				viper.Set("demat-master", "")
			},
			expectError:   true,
			errorContains: "demat-master is required",
		},
		{
			name: "missing macro file",
			setupFlags: func() {
				setValidFlags()
				viper.Set("macro-file", "")
			},
			expectError:   true,
			errorContains: "macro-file is required",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				setValidFlags()
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "excel without output file",
			setupFlags: func() {
				setValidFlags()
				viper.Set("output-format", "excel")
			},
			expectError:   true,
			errorContains: "output-file is required",
		},
		{
			name: "threshold out of range",
			setupFlags: func() {
				setValidFlags()
				viper.Set("name-threshold", 150.0)
			},
			expectError:   true,
			errorContains: "name threshold",
		},
		{
			name: "bad date format",
			setupFlags: func() {
				setValidFlags()
				viper.Set("kb-date-from", "03/01/2024")
			},
			expectError:   true,
			errorContains: "invalid kb-date-from",
		},
		{
			name: "inverted date window",
			setupFlags: func() {
				setValidFlags()
				viper.Set("kb-date-from", "2024-03-31")
				viper.Set("kb-date-to", "2024-03-01")
			},
			expectError:   true,
			errorContains: "cannot be after",
		},
		{
			name: "missing output directory",
			setupFlags: func() {
				setValidFlags()
				viper.Set("output-file", "/non/existent/dir/out.csv")
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			err := validateReconcileFlags(reconcileCmd, nil)

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error containing %q, got %q", tt.errorContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
