package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Repository persists companies and sites in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSites returns every site of a company ordered by name.
func (r *Repository) ListSites(ctx context.Context, companyID int64) ([]Site, error) {
	if r == nil {
		return nil, errors.New("masterdata repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, name, created_at FROM sites WHERE company_id=$1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sites := []Site{}
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// GetSite fetches one site by ID within a company.
func (r *Repository) GetSite(ctx context.Context, companyID int64, siteID string) (Site, error) {
	if r == nil {
		return Site{}, errors.New("masterdata repository not initialised")
	}
	var s Site
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, name, created_at FROM sites WHERE company_id=$1 AND id=$2`, companyID, siteID).
		Scan(&s.ID, &s.CompanyID, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Site{}, shared.ErrNotFound
		}
		return Site{}, err
	}
	return s, nil
}

// GetCompany fetches one company by ID.
func (r *Repository) GetCompany(ctx context.Context, companyID int64) (Company, error) {
	if r == nil {
		return Company{}, errors.New("masterdata repository not initialised")
	}
	var c Company
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM companies WHERE id=$1`, companyID).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}
