package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-esg/meridian-esg/internal/profiling"
)

// StaleProfileLister reports sites whose answers changed after generation.
type StaleProfileLister interface {
	ListStale(ctx context.Context) ([]profiling.SiteProfile, error)
}

// DigestMailer enqueues the operator digest once a scan finds stale sites.
type DigestMailer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// StaleScanJob flags every stale checklist so operators can decide on
// regeneration. Detection only; remediation stays external.
type StaleScanJob struct {
	profiles StaleProfileLister
	mail     DigestMailer
	digestTo string
	logger   *slog.Logger
}

// NewStaleScanJob constructs the job. The mailer is optional; without it the
// scan only logs.
func NewStaleScanJob(profiles StaleProfileLister, mail DigestMailer, digestTo string, logger *slog.Logger) *StaleScanJob {
	return &StaleScanJob{profiles: profiles, mail: mail, digestTo: digestTo, logger: logger}
}

// Handle processes TaskTypeStaleScan tasks.
func (j *StaleScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	stale, err := j.profiles.ListStale(ctx)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("stale checklist scan finished", slog.Int("stale", len(stale)))
	}
	if len(stale) == 0 {
		return nil
	}

	var body strings.Builder
	body.WriteString("Checklists with profiling answers newer than their generated checklist:\n")
	for _, p := range stale {
		if j.logger != nil {
			j.logger.Warn("checklist stale",
				slog.Int64("company_id", p.CompanyID),
				slog.String("site_id", p.SiteID),
				slog.Time("answers_updated_at", p.AnswersUpdatedAt),
				slog.Time("generated_at", p.GeneratedAt))
		}
		fmt.Fprintf(&body, "- company %d site %s (answers %s, generated %s)\n",
			p.CompanyID, p.SiteID,
			p.AnswersUpdatedAt.Format(time.RFC3339), p.GeneratedAt.Format(time.RFC3339))
	}

	if j.mail != nil && j.digestTo != "" {
		_, err := j.mail.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      j.digestTo,
			Subject: fmt.Sprintf("Stale checklist digest: %d site(s)", len(stale)),
			Body:    body.String(),
		})
		if err != nil {
			if j.logger != nil {
				j.logger.Error("enqueue stale digest", slog.Any("error", err))
			}
		}
	}
	return nil
}
