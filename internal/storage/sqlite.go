package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eye-triage-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite report store. It creates the database
// file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency with the serving path.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// createSchema creates the report table and indexes. The full report is
// kept as a JSON document; the columns queried by clinic tooling are
// duplicated for indexing.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS triage_reports (
		id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		symptom TEXT NOT NULL,
		urgency_level TEXT NOT NULL,
		base_severity REAL NOT NULL,
		adjusted_severity REAL NOT NULL,
		requires_review INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_patient ON triage_reports(patient_id);
	CREATE INDEX IF NOT EXISTS idx_reports_urgency ON triage_reports(urgency_level);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON triage_reports(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save records a completed triage report.
func (s *SQLiteStore) Save(ctx context.Context, report *domain.TriageReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO triage_reports (
			id, patient_id, symptom, urgency_level,
			base_severity, adjusted_severity, requires_review,
			report_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.PatientID,
		report.SymptomIdentified,
		string(report.UrgencyLevel),
		report.BaseSeverity,
		report.AdjustedSeverity,
		report.RequiresHumanReview,
		string(payload),
		report.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// Get retrieves a report by its identifier.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.TriageReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT report_json FROM triage_reports WHERE id = ?", id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}
	return decodeReport(payload)
}

// List returns recent reports, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.TriageReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_json FROM triage_reports
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	return collectReports(rows)
}

// ListRequiringReview returns recent reports flagged for human review.
func (s *SQLiteStore) ListRequiringReview(ctx context.Context, limit int) ([]*domain.TriageReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_json FROM triage_reports
		WHERE requires_review = 1
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	return collectReports(rows)
}

// Count returns the total number of stored reports.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM triage_reports").Scan(&count)
	return count, err
}

// maxExportLimit bounds how many reports a single export pulls.
const maxExportLimit = 1000000

// ExportJSON exports all stored reports to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, w io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	export := &ReportExport{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Reports:    all,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeReport(payload string) (*domain.TriageReport, error) {
	report := &domain.TriageReport{}
	if err := json.Unmarshal([]byte(payload), report); err != nil {
		return nil, fmt.Errorf("failed to decode stored report: %w", err)
	}
	return report, nil
}

func collectReports(rows *sql.Rows) ([]*domain.TriageReport, error) {
	var result []*domain.TriageReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		report, err := decodeReport(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
