package profiling

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists profiling answers and per-site wizard state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile returns the wizard state for one (company, site). A missing row
// means the wizard has not been started.
func (r *Repository) GetProfile(ctx context.Context, companyID int64, siteID string) (SiteProfile, error) {
	if r == nil {
		return SiteProfile{}, errors.New("profiling repository not initialised")
	}
	profile := SiteProfile{CompanyID: companyID, SiteID: siteID, Status: StatusNoAnswers}
	err := r.pool.QueryRow(ctx, `SELECT status, answers_updated_at, COALESCE(generated_at, 'epoch')
FROM site_profiles WHERE company_id=$1 AND site_id=$2`, companyID, siteID).
		Scan(&profile.Status, &profile.AnswersUpdatedAt, &profile.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile, nil
		}
		return SiteProfile{}, err
	}
	return profile, nil
}

// UpsertAnswer stores one answer and bumps the answers timestamp.
func (r *Repository) UpsertAnswer(ctx context.Context, input AnswerInput) error {
	if r == nil {
		return errors.New("profiling repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO profiling_answers (company_id, site_id, question_id, value, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (company_id, site_id, question_id) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`,
		input.CompanyID, input.SiteID, input.QuestionID, input.Value)
	return err
}

// CountUnanswered returns how many applicable questions still lack answers.
func (r *Repository) CountUnanswered(ctx context.Context, companyID int64, siteID string) (int, error) {
	if r == nil {
		return 0, errors.New("profiling repository not initialised")
	}
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*)
FROM profiling_questions q
WHERE NOT EXISTS (
  SELECT 1 FROM profiling_answers a
  WHERE a.company_id=$1 AND a.site_id=$2 AND a.question_id=q.id)`, companyID, siteID).Scan(&count)
	return count, err
}

// SetStatus transitions the wizard state, creating the row when absent. The
// answers timestamp is refreshed on every transition driven by an edit.
func (r *Repository) SetStatus(ctx context.Context, companyID int64, siteID string, status Status) error {
	if r == nil {
		return errors.New("profiling repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO site_profiles (company_id, site_id, status, answers_updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (company_id, site_id) DO UPDATE SET status=EXCLUDED.status, answers_updated_at=NOW()`,
		companyID, siteID, string(status))
	return err
}

// MarkGenerated records checklist generation without touching the answers
// timestamp, so later edits surface as staleness.
func (r *Repository) MarkGenerated(ctx context.Context, companyID int64, siteID string) error {
	if r == nil {
		return errors.New("profiling repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `UPDATE site_profiles SET status=$3, generated_at=NOW()
WHERE company_id=$1 AND site_id=$2`, companyID, siteID, string(StatusChecklistGenerated))
	return err
}

// ListStale returns profiles whose answers changed after generation, used by
// the nightly scan.
func (r *Repository) ListStale(ctx context.Context) ([]SiteProfile, error) {
	if r == nil {
		return nil, errors.New("profiling repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT company_id, site_id, status, answers_updated_at, generated_at
FROM site_profiles
WHERE status='checklist_generated' AND generated_at IS NOT NULL AND answers_updated_at > generated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	profiles := []SiteProfile{}
	for rows.Next() {
		var p SiteProfile
		if err := rows.Scan(&p.CompanyID, &p.SiteID, &p.Status, &p.AnswersUpdatedAt, &p.GeneratedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
