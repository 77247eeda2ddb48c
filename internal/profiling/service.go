package profiling

import (
	"context"
	"errors"

	"log/slog"

	"github.com/meridian-esg/meridian-esg/internal/masterdata"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	GetProfile(ctx context.Context, companyID int64, siteID string) (SiteProfile, error)
	UpsertAnswer(ctx context.Context, input AnswerInput) error
	CountUnanswered(ctx context.Context, companyID int64, siteID string) (int, error)
	SetStatus(ctx context.Context, companyID int64, siteID string, status Status) error
}

// GeneratePort enqueues checklist generation once profiling completes.
type GeneratePort interface {
	EnqueueChecklistGenerate(ctx context.Context, companyID int64, siteID string) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the profiling wizard state machine:
// NoAnswers -> InProgress -> Complete -> ChecklistGenerated.
// Generation is triggered exactly once, when the last applicable question is
// answered; re-answering afterwards only marks the checklist stale.
type Service struct {
	repo     RepositoryPort
	generate GeneratePort
	audit    AuditPort
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, generate GeneratePort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, generate: generate, audit: audit, logger: logger}
}

// EditAnswer stores one answer and advances the wizard state.
func (s *Service) EditAnswer(ctx context.Context, input AnswerInput) (SiteProfile, error) {
	if masterdata.IsAggregate(input.SiteID) {
		return SiteProfile{}, shared.ErrInvalidScope
	}
	if input.SiteID == "" || input.QuestionID == "" {
		return SiteProfile{}, errors.New("profiling: site and question required")
	}

	profile, err := s.repo.GetProfile(ctx, input.CompanyID, input.SiteID)
	if err != nil {
		return SiteProfile{}, err
	}
	if err := s.repo.UpsertAnswer(ctx, input); err != nil {
		return SiteProfile{}, err
	}

	switch profile.Status {
	case StatusNoAnswers, StatusInProgress:
		unanswered, err := s.repo.CountUnanswered(ctx, input.CompanyID, input.SiteID)
		if err != nil {
			return SiteProfile{}, err
		}
		next := StatusInProgress
		if unanswered == 0 {
			next = StatusComplete
		}
		if err := s.repo.SetStatus(ctx, input.CompanyID, input.SiteID, next); err != nil {
			return SiteProfile{}, err
		}
		if next == StatusComplete && s.generate != nil {
			if err := s.generate.EnqueueChecklistGenerate(ctx, input.CompanyID, input.SiteID); err != nil {
				// Generation can be retried by the operator; the answer is saved.
				if s.logger != nil {
					s.logger.Error("enqueue checklist generation", slog.Any("error", err),
						slog.String("site_id", input.SiteID))
				}
			}
		}
	default:
		// Complete or generated: keep the status, refresh the answers
		// timestamp so the stale flag can fire.
		if err := s.repo.SetStatus(ctx, input.CompanyID, input.SiteID, profile.Status); err != nil {
			return SiteProfile{}, err
		}
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   input.ActorID,
			CompanyID: input.CompanyID,
			SiteID:    input.SiteID,
			Action:    shared.AuditProfilingAnswer,
			Entity:    "profiling_answer",
			EntityID:  input.QuestionID,
		})
	}
	return s.repo.GetProfile(ctx, input.CompanyID, input.SiteID)
}

// Profile returns the wizard state for one site.
func (s *Service) Profile(ctx context.Context, companyID int64, siteID string) (SiteProfile, error) {
	return s.repo.GetProfile(ctx, companyID, siteID)
}
