// Package storage persists produced triage reports for clinic review and
// audit. Persistence is deliberately a collaborator of the triage engine,
// never part of it: the engine produces an immutable report and this
// package records it after the fact.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/eye-triage-server/internal/domain"
)

// Store defines the triage report persistence operations.
type Store interface {
	// Save records a completed triage report.
	Save(ctx context.Context, report *domain.TriageReport) error

	// Get retrieves a report by its identifier. Returns
	// domain.ErrReportNotFound when no such report exists.
	Get(ctx context.Context, id string) (*domain.TriageReport, error)

	// List returns recent reports, newest first, with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.TriageReport, error)

	// ListRequiringReview returns recent reports flagged for human review.
	ListRequiringReview(ctx context.Context, limit int) ([]*domain.TriageReport, error)

	// Count returns the total number of stored reports.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes all stored reports as JSON for handoff tooling.
	ExportJSON(ctx context.Context, w io.Writer) error

	// Close releases store resources.
	Close() error
}

// ReportExport is the JSON export envelope.
type ReportExport struct {
	Version    string                 `json:"version"`
	ExportedAt time.Time              `json:"exported_at"`
	Count      int                    `json:"count"`
	Reports    []*domain.TriageReport `json:"reports"`
}
