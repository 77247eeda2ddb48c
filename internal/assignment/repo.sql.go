package assignment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esg/meridian-esg/internal/checklist"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

const fkViolation = "23503"

// Repository persists assignments in PostgreSQL. Writes are
// last-write-wins per (scope, key); reassignment replaces, nothing is
// soft-deleted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ReadAssignments loads the category defaults and element overrides for one
// (company, site) scope. Both reads run in a single repeatable-read
// transaction so a concurrent write cannot split the snapshot.
func (r *Repository) ReadAssignments(ctx context.Context, companyID int64, siteID string) (Set, error) {
	if r == nil {
		return Set{}, errors.New("assignment repository not initialised")
	}
	set := NewSet()
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT ca.category, u.id, u.name
FROM category_assignments ca
JOIN users u ON u.id = ca.user_id
WHERE ca.company_id=$1 AND ca.site_id=$2`, companyID, siteID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cat checklist.Category
			var user UserRef
			if err := rows.Scan(&cat, &user.ID, &user.Name); err != nil {
				return err
			}
			set.Category[cat] = user
		}
		if err := rows.Err(); err != nil {
			return err
		}

		elemRows, err := tx.Query(ctx, `SELECT ea.instance_id, u.id, u.name
FROM element_assignments ea
JOIN per_site_checklist_entries pe ON pe.instance_id = ea.instance_id
JOIN users u ON u.id = ea.user_id
WHERE pe.company_id=$1 AND pe.site_id=$2`, companyID, siteID)
		if err != nil {
			return err
		}
		defer elemRows.Close()
		for elemRows.Next() {
			var instanceID string
			var user UserRef
			if err := elemRows.Scan(&instanceID, &user.ID, &user.Name); err != nil {
				return err
			}
			set.Element[instanceID] = user
		}
		return elemRows.Err()
	})
	if err != nil {
		return Set{}, err
	}
	return set, nil
}

// WriteCategoryAssignment overwrites the category default for the scope.
// Element-level overrides are untouched.
func (r *Repository) WriteCategoryAssignment(ctx context.Context, companyID int64, siteID string, category checklist.Category, userID int64) error {
	if r == nil {
		return errors.New("assignment repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO category_assignments (company_id, site_id, category, user_id, assigned_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (company_id, site_id, category) DO UPDATE SET user_id=EXCLUDED.user_id, assigned_at=NOW()`,
		companyID, siteID, string(category), userID)
	return err
}

// WriteElementAssignment overwrites the override for one instance only. A
// foreign-key violation means the instance does not exist.
func (r *Repository) WriteElementAssignment(ctx context.Context, instanceID string, userID int64) error {
	if r == nil {
		return errors.New("assignment repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO element_assignments (instance_id, user_id, assigned_at)
VALUES ($1,$2,NOW())
ON CONFLICT (instance_id) DO UPDATE SET user_id=EXCLUDED.user_id, assigned_at=NOW()`,
		instanceID, userID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// mapWriteError translates a foreign-key violation into the portal's
// not-found error; anything else passes through untouched.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
		return shared.ErrNotFound
	}
	return err
}

// IsEligibleAssignee reports whether the user may receive work in the
// company: an active user belonging to that company.
func (r *Repository) IsEligibleAssignee(ctx context.Context, companyID, userID int64) (bool, error) {
	if r == nil {
		return false, errors.New("assignment repository not initialised")
	}
	var eligible bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM users WHERE id=$1 AND company_id=$2 AND is_active)`, userID, companyID).Scan(&eligible)
	if err != nil {
		return false, err
	}
	return eligible, nil
}
