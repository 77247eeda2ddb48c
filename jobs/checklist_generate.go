package jobs

import (
	"context"
	"encoding/json"

	"log/slog"

	"github.com/hibiken/asynq"
)

// ChecklistGenerator materialises per-site checklist entries.
type ChecklistGenerator interface {
	GenerateForSite(ctx context.Context, companyID int64, siteID string) (int, error)
}

// GenerationMarker records generation on the site profile.
type GenerationMarker interface {
	MarkGenerated(ctx context.Context, companyID int64, siteID string) error
}

// ChecklistGenerateJob turns a completed profiling wizard into a checklist.
type ChecklistGenerateJob struct {
	generator ChecklistGenerator
	profiles  GenerationMarker
	logger    *slog.Logger
}

// NewChecklistGenerateJob constructs the job.
func NewChecklistGenerateJob(generator ChecklistGenerator, profiles GenerationMarker, logger *slog.Logger) *ChecklistGenerateJob {
	return &ChecklistGenerateJob{generator: generator, profiles: profiles, logger: logger}
}

// Handle processes TaskTypeChecklistGenerate tasks.
func (j *ChecklistGenerateJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ChecklistGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	created, err := j.generator.GenerateForSite(ctx, payload.CompanyID, payload.SiteID)
	if err != nil {
		return err
	}
	if err := j.profiles.MarkGenerated(ctx, payload.CompanyID, payload.SiteID); err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("checklist generated",
			slog.Int64("company_id", payload.CompanyID),
			slog.String("site_id", payload.SiteID),
			slog.Int("entries", created))
	}
	return nil
}
