package checklist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Repository persists checklist data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetChecklistForSite lists the elements applicable at one site.
func (r *Repository) GetChecklistForSite(ctx context.Context, companyID int64, siteID string) ([]Element, error) {
	if r == nil {
		return nil, errors.New("checklist repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT e.id, e.category, e.name, e.unit, e.cadence, e.frameworks
FROM per_site_checklist_entries pe
JOIN checklist_elements e ON e.id = pe.element_id
WHERE pe.company_id=$1 AND pe.site_id=$2
ORDER BY e.category, e.name`, companyID, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	elements := []Element{}
	for rows.Next() {
		var el Element
		if err := rows.Scan(&el.ID, &el.Category, &el.Name, &el.Unit, &el.Cadence, &el.Frameworks); err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return elements, rows.Err()
}

// GetEntriesForSite lists per-site entries including their instance IDs,
// used by the single-site view where assignments attach per instance.
func (r *Repository) GetEntriesForSite(ctx context.Context, companyID int64, siteID string) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("checklist repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT pe.instance_id, pe.company_id, pe.site_id, e.id, e.category, e.name, e.unit, e.cadence, e.frameworks
FROM per_site_checklist_entries pe
JOIN checklist_elements e ON e.id = pe.element_id
WHERE pe.company_id=$1 AND pe.site_id=$2
ORDER BY e.category, e.name`, companyID, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.InstanceID, &entry.CompanyID, &entry.SiteID,
			&entry.Element.ID, &entry.Element.Category, &entry.Element.Name,
			&entry.Element.Unit, &entry.Element.Cadence, &entry.Element.Frameworks); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetEntry fetches one per-site entry by instance ID.
func (r *Repository) GetEntry(ctx context.Context, instanceID string) (Entry, error) {
	if r == nil {
		return Entry{}, errors.New("checklist repository not initialised")
	}
	var entry Entry
	err := r.pool.QueryRow(ctx, `SELECT pe.instance_id, pe.company_id, pe.site_id, e.id, e.category, e.name, e.unit, e.cadence, e.frameworks
FROM per_site_checklist_entries pe
JOIN checklist_elements e ON e.id = pe.element_id
WHERE pe.instance_id=$1`, instanceID).Scan(&entry.InstanceID, &entry.CompanyID, &entry.SiteID,
		&entry.Element.ID, &entry.Element.Category, &entry.Element.Name,
		&entry.Element.Unit, &entry.Element.Cadence, &entry.Element.Frameworks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// ListGeneratedSites returns the sites of a company whose checklist has been
// generated, the input set for an all-locations aggregation.
func (r *Repository) ListGeneratedSites(ctx context.Context, companyID int64) ([]SiteRef, error) {
	if r == nil {
		return nil, errors.New("checklist repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.name
FROM sites s
JOIN site_profiles sp ON sp.site_id = s.id AND sp.company_id = s.company_id
WHERE s.company_id=$1 AND sp.status='checklist_generated'
ORDER BY s.name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sites := []SiteRef{}
	for rows.Next() {
		var ref SiteRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		sites = append(sites, ref)
	}
	return sites, rows.Err()
}

// GenerateForSite materialises per-site entries for every element applicable
// under the site's profiling answers. Existing entries are kept (generation
// is not repeated automatically once a checklist exists).
func (r *Repository) GenerateForSite(ctx context.Context, companyID int64, siteID string) (int, error) {
	if r == nil {
		return 0, errors.New("checklist repository not initialised")
	}
	tag, err := r.pool.Exec(ctx, `INSERT INTO per_site_checklist_entries (instance_id, company_id, site_id, element_id)
SELECT gen_random_uuid(), $1, $2, ae.element_id
FROM applicable_elements ae
WHERE ae.company_id=$1 AND ae.site_id=$2
ON CONFLICT (company_id, site_id, element_id) DO NOTHING`, companyID, siteID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
