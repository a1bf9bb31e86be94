package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// JournalExportOptions contains options for exporting journal activity.
// An empty AccountID exports every journal line instead of a statement.
type JournalExportOptions struct {
	AccountID string
	OutputDir string
}

// JournalExporter handles exporting account statements and full journal
// dumps to CSV
type JournalExporter struct {
	db         *gorm.DB
	statements *StatementService
}

// NewJournalExporter creates a new journal exporter
func NewJournalExporter(db *gorm.DB) *JournalExporter {
	return &JournalExporter{
		db:         db,
		statements: NewStatementService(db),
	}
}

// ExportToCSV writes the account's statement rows in CSV format
func (e *JournalExporter) ExportToCSV(writer io.Writer, options JournalExportOptions) error {
	statement, err := e.statements.GetAccountStatement(options.AccountID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to build statement: %w", err)
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	// Write header
	header := []string{"EntryID", "LineID", "Date", "Description", "Debit", "Credit", "Balance"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	// Write statement lines
	for _, line := range statement.Lines {
		row := []string{
			fmt.Sprintf("%d", line.EntryID),
			fmt.Sprintf("%d", line.LineID),
			line.Date.String(),
			line.Description,
			line.Debit.String(),
			line.Credit.String(),
			line.Balance.String(),
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write row to CSV: %w", err)
		}
	}
	return nil
}

// ExportJournalToCSV dumps every journal line, draft and posted alike,
// in entry order. Used when no account is given.
func (e *JournalExporter) ExportJournalToCSV(writer io.Writer) error {
	type journalRow struct {
		EntryID          uint
		LineID           uint
		EntryDate        time.Time
		EntryDescription string
		LineDescription  string
		Status           string
		SourceModule     string
		AccountID        string
		Debit            decimal.Decimal
		Credit           decimal.Decimal
	}

	var rows []journalRow
	err := e.db.Model(&JournalEntryLine{}).
		Select("journal_entry_lines.entry_id AS entry_id, journal_entry_lines.id AS line_id, " +
			"journal_entries.entry_date AS entry_date, journal_entries.description AS entry_description, " +
			"journal_entry_lines.description AS line_description, " +
			"journal_entries.status AS status, journal_entries.source_module AS source_module, " +
			"journal_entry_lines.account_id AS account_id, " +
			"journal_entry_lines.debit AS debit, journal_entry_lines.credit AS credit").
		Joins("JOIN journal_entries ON journal_entries.id = journal_entry_lines.entry_id").
		Order("journal_entries.entry_date ASC, journal_entries.id ASC, journal_entry_lines.id ASC").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to load journal lines: %w", err)
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	header := []string{"EntryID", "LineID", "Date", "Description", "Status", "SourceModule", "Account", "Debit", "Credit"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	for _, row := range rows {
		description := row.LineDescription
		if description == "" {
			description = row.EntryDescription
		}
		record := []string{
			fmt.Sprintf("%d", row.EntryID),
			fmt.Sprintf("%d", row.LineID),
			row.EntryDate.String(),
			description,
			row.Status,
			row.SourceModule,
			row.AccountID,
			row.Debit.String(),
			row.Credit.String(),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write row to CSV: %w", err)
		}
	}
	return nil
}

// ExportToFile exports a statement, or the full journal when no account
// is set, to a CSV file
func (e *JournalExporter) ExportToFile(options JournalExportOptions) (string, error) {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", options.OutputDir, err)
	}

	baseName := "journal.csv"
	if options.AccountID != "" {
		baseName = fmt.Sprintf("statement_%s.csv", options.AccountID)
	}
	fileName := filepath.Join(options.OutputDir, baseName)
	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", fileName, err)
	}
	defer file.Close()

	if options.AccountID == "" {
		err = e.ExportJournalToCSV(file)
	} else {
		err = e.ExportToCSV(file, options)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export to CSV: %w", err)
	}

	return fileName, nil
}

func runExportJournalCli(logger Logger) {
	logger = logger.NewSystem("export-journal")
	if len(os.Args) > 3 {
		logger.Fatal("Usage: glnode export-journal [accountID]")
	}

	accountID := ""
	if len(os.Args) == 3 {
		accountID = os.Args[2]
		if !accountCodeRegex.MatchString(accountID) {
			logger.Fatal("Invalid account code", "value", accountID)
		}
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		logger.Fatal("Failed to setup database", "error", err)
	}

	exporter := NewJournalExporter(db)
	options := JournalExportOptions{
		AccountID: accountID,
		OutputDir: "csv_export",
	}

	fileName, err := exporter.ExportToFile(options)
	if err != nil {
		logger.Fatal("Failed to export statement", "error", err)
	}
	logger.Info("Successfully exported statement", "file", fileName)
}
