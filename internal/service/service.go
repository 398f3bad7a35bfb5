// Package service submits sample mutations to the remote source. It never
// writes the local collection; a successful mutation asks for a refresh.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fentz26/labtrack/internal/audit"
	"github.com/fentz26/labtrack/internal/models"
	"go.uber.org/zap"
)

// Mutator is the write side of the remote API.
type Mutator interface {
	UpdateStatus(ctx context.Context, sampleID string, status models.Status) (string, error)
	Claim(ctx context.Context, sampleID, claimedBy string) (string, error)
	AddSample(ctx context.Context, sample models.NewSample) (string, error)
}

// Lookup finds the locally known copy of a record.
type Lookup interface {
	Lookup(sampleID string) (models.SampleRecord, bool)
}

// Service applies the transition rules and submits mutations.
type Service struct {
	api     Mutator
	lookup  Lookup
	audit   *audit.Writer
	refresh func(context.Context)
	logger  *zap.Logger
}

// New creates a Service. refresh is called after every successful mutation
// and may be nil.
func New(api Mutator, lookup Lookup, aw *audit.Writer, refresh func(context.Context), logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:     api,
		lookup:  lookup,
		audit:   aw,
		refresh: refresh,
		logger:  logger,
	}
}

// --- Sample Operations ---

// AddSample submits a new sample.
func (s *Service) AddSample(ctx context.Context, sample models.NewSample) (string, error) {
	if err := sample.Validate(); err != nil {
		return "", err
	}
	inputs := map[string]string{
		"patientName": sample.PatientName,
		"patientID":   sample.PatientID,
		"testType":    sample.TestType,
		"source":      sample.Source,
	}

	msg, err := s.api.AddSample(ctx, sample)
	if err != nil {
		s.record("sample.add", inputs, audit.OutcomeFailed, "", err.Error())
		return "", fmt.Errorf("add sample: %w", err)
	}

	s.record("sample.add", inputs, audit.OutcomeSuccess, "", sample.PatientID)
	s.logger.Info("sample added", zap.String("test_type", sample.TestType), zap.String("source", sample.Source))
	s.afterMutation(ctx)
	return msg, nil
}

// UpdateStatus changes a sample's status. Moves that are not forward in
// the status order are refused unless override is set, and overrides are
// audited as such.
func (s *Service) UpdateStatus(ctx context.Context, sampleID string, status models.Status, override bool) (string, error) {
	sampleID = strings.TrimSpace(sampleID)
	if sampleID == "" {
		return "", ErrMissingSampleID
	}
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	inputs := map[string]interface{}{"sampleID": sampleID, "newStatus": status, "override": override}
	outcome := audit.OutcomeSuccess
	var details string

	if rec, ok := s.known(sampleID); ok {
		details = fmt.Sprintf("%s -> %s", rec.Status, status)
		if !models.IsForward(rec.Status, status) {
			if !override {
				s.record("sample.status", inputs, audit.OutcomeRefused, sampleID, details)
				return "", fmt.Errorf("%w: %s", ErrNonForwardTransition, details)
			}
			outcome = audit.OutcomeOverride
		}
	}

	msg, err := s.api.UpdateStatus(ctx, sampleID, status)
	if err != nil {
		s.record("sample.status", inputs, audit.OutcomeFailed, sampleID, err.Error())
		return "", fmt.Errorf("update status: %w", err)
	}

	s.record("sample.status", inputs, outcome, sampleID, details)
	s.logger.Info("status updated",
		zap.String("sample_id", sampleID),
		zap.String("status", string(status)),
		zap.Bool("override", outcome == audit.OutcomeOverride),
	)
	s.afterMutation(ctx)
	return msg, nil
}

// Claim marks a sample's results as picked up by claimedBy.
func (s *Service) Claim(ctx context.Context, sampleID, claimedBy string) (string, error) {
	sampleID = strings.TrimSpace(sampleID)
	claimedBy = strings.TrimSpace(claimedBy)
	if sampleID == "" {
		return "", ErrMissingSampleID
	}
	if claimedBy == "" {
		return "", ErrMissingClaimer
	}

	inputs := map[string]string{"sampleID": sampleID, "claimedBy": claimedBy}

	if rec, ok := s.known(sampleID); ok {
		if rec.Claimed() {
			s.record("sample.claim", inputs, audit.OutcomeRefused, sampleID, "claimed by "+rec.Claimer())
			return "", fmt.Errorf("%w by %s", ErrAlreadyClaimed, rec.Claimer())
		}
		if !rec.Status.IsTerminal() {
			s.record("sample.claim", inputs, audit.OutcomeRefused, sampleID, string(rec.Status))
			return "", fmt.Errorf("%w (status %s)", ErrNotClaimable, rec.Status)
		}
	}

	msg, err := s.api.Claim(ctx, sampleID, claimedBy)
	if err != nil {
		s.record("sample.claim", inputs, audit.OutcomeFailed, sampleID, err.Error())
		return "", fmt.Errorf("claim sample: %w", err)
	}

	s.record("sample.claim", inputs, audit.OutcomeSuccess, sampleID, "")
	s.logger.Info("sample claimed", zap.String("sample_id", sampleID), zap.String("claimed_by", claimedBy))
	s.afterMutation(ctx)
	return msg, nil
}

func (s *Service) known(sampleID string) (models.SampleRecord, bool) {
	if s.lookup == nil {
		return models.SampleRecord{}, false
	}
	return s.lookup.Lookup(sampleID)
}

func (s *Service) afterMutation(ctx context.Context) {
	if s.refresh != nil {
		s.refresh(ctx)
	}
}

func (s *Service) record(action string, inputs interface{}, outcome, sampleID, details string) {
	if _, err := s.audit.Record(action, inputs, outcome, sampleID, details); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
