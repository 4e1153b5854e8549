package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eye-triage-server/internal/domain"
)

// triageRequest is the payload the dialogue framework sends: the raw
// patient message plus whatever context slots it has filled so far.
type triageRequest struct {
	Message  string                `json:"message"`
	Patient  domain.PatientContext `json:"patient"`
	Language string                `json:"language"`
}

// handoffTimeout bounds the asynchronous escalation call so a slow webhook
// cannot pile up goroutines.
const handoffTimeout = 15 * time.Second

// handleTriage runs a triage assessment. The endpoint is deliberately
// permissive: an empty message or missing patient fields still produce a
// best-effort report, matching the engine's no-per-call-failure contract.
func (s *Server) handleTriage(c *gin.Context) {
	var req triageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "invalid request body",
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.key(&req)
		if report, ok := s.cache.get(cacheKey); ok {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, report)
			return
		}
	}

	report := s.engine.Triage(c.Request.Context(), req.Message, &req.Patient, domain.Language(req.Language))

	if s.store != nil {
		if err := s.store.Save(c.Request.Context(), report); err != nil {
			// Audit persistence must not fail the patient-facing response.
			s.logger.WithError(err).WithField("report_id", report.ID).Error("Failed to persist triage report")
		}
	}

	if s.notifier != nil && report.RequiresHumanReview {
		go s.deliverHandoff(report)
	}

	if s.cache != nil {
		s.cache.add(cacheKey, report)
	}

	c.JSON(http.StatusOK, report)
}

// deliverHandoff escalates a report in the background, detached from the
// request lifecycle.
func (s *Server) deliverHandoff(report *domain.TriageReport) {
	ctx, cancel := context.WithTimeout(context.Background(), handoffTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, report); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"report_id":     report.ID,
			"urgency_level": string(report.UrgencyLevel),
		}).Error("Failed to deliver human-review handoff")
	}
}

// handleGetReport returns a stored report by ID.
func (s *Server) handleGetReport(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "report storage is disabled"})
		return
	}

	report, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		s.logger.WithError(err).Error("Failed to load triage report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleListReports returns recent reports, optionally filtered to those
// awaiting human review.
func (s *Server) handleListReports(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "report storage is disabled"})
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 50)
	offset := parsePositiveInt(c.Query("offset"), 0)

	var (
		reports []*domain.TriageReport
		err     error
	)
	if c.Query("review") == "true" {
		reports, err = s.store.ListRequiringReview(c.Request.Context(), limit)
	} else {
		reports, err = s.store.List(c.Request.Context(), limit, offset)
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to list triage reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(reports),
		"reports": reports,
	})
}

// handleHealth reports service liveness and the loaded rule set size.
func (s *Server) handleHealth(c *gin.Context) {
	m := s.engine.Matrix()
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().UTC(),
		"symptoms_loaded":  len(m.Symptoms),
		"modifiers_loaded": len(m.Modifiers),
	})
}

func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
