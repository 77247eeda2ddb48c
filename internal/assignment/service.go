package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridian-esg/meridian-esg/internal/checklist"
	"github.com/meridian-esg/meridian-esg/internal/masterdata"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// StorePort abstracts assignment persistence for the service.
type StorePort interface {
	ReadAssignments(ctx context.Context, companyID int64, siteID string) (Set, error)
	WriteCategoryAssignment(ctx context.Context, companyID int64, siteID string, category checklist.Category, userID int64) error
	WriteElementAssignment(ctx context.Context, instanceID string, userID int64) error
	IsEligibleAssignee(ctx context.Context, companyID, userID int64) (bool, error)
}

// EntryPort resolves checklist-item instances.
type EntryPort interface {
	GetEntry(ctx context.Context, instanceID string) (checklist.Entry, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ErrIneligibleAssignee indicates the target user does not belong to the
// company or is inactive.
var ErrIneligibleAssignee = errors.New("assignment: user not eligible for this company")

// Service applies assignment mutations. Permission checks happen at the
// coordinator; this layer owns scope and referential validation.
type Service struct {
	store   StorePort
	entries EntryPort
	audit   AuditPort
}

// NewService builds Service.
func NewService(store StorePort, entries EntryPort, audit AuditPort) *Service {
	return &Service{store: store, entries: entries, audit: audit}
}

// AssignCategory overwrites the default assignee for an entire category at a
// concrete site. The aggregate pseudo-site is rejected before any storage is
// touched; existing element-level overrides keep winning for their
// instances.
func (s *Service) AssignCategory(ctx context.Context, input CategoryInput) error {
	if masterdata.IsAggregate(input.SiteID) {
		return shared.ErrInvalidScope
	}
	if input.SiteID == "" {
		return errors.New("assignment: site required")
	}
	if !checklist.ValidCategory(input.Category) {
		return fmt.Errorf("assignment: unknown category %q", input.Category)
	}
	eligible, err := s.store.IsEligibleAssignee(ctx, input.CompanyID, input.UserID)
	if err != nil {
		return err
	}
	if !eligible {
		return ErrIneligibleAssignee
	}
	if err := s.store.WriteCategoryAssignment(ctx, input.CompanyID, input.SiteID, input.Category, input.UserID); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   input.ActorID,
			CompanyID: input.CompanyID,
			SiteID:    input.SiteID,
			Action:    shared.AuditAssignCategory,
			Entity:    "category_assignment",
			EntityID:  fmt.Sprintf("%d:%s:%s", input.CompanyID, input.SiteID, input.Category),
			Meta:      map[string]any{"user_id": input.UserID},
		})
	}
	return nil
}

// AssignElement overwrites the override for exactly one checklist-item
// instance. The same logical element at another site is unaffected.
func (s *Service) AssignElement(ctx context.Context, input ElementInput) error {
	entry, err := s.entries.GetEntry(ctx, input.InstanceID)
	if err != nil {
		return err
	}
	eligible, err := s.store.IsEligibleAssignee(ctx, entry.CompanyID, input.UserID)
	if err != nil {
		return err
	}
	if !eligible {
		return ErrIneligibleAssignee
	}
	if err := s.store.WriteElementAssignment(ctx, input.InstanceID, input.UserID); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   input.ActorID,
			CompanyID: entry.CompanyID,
			SiteID:    entry.SiteID,
			Action:    shared.AuditAssignElement,
			Entity:    "element_assignment",
			EntityID:  input.InstanceID,
			Meta:      map[string]any{"user_id": input.UserID},
		})
	}
	return nil
}

// Resolve loads the assignment set for a scope.
func (s *Service) Resolve(ctx context.Context, companyID int64, siteID string) (Set, error) {
	return s.store.ReadAssignments(ctx, companyID, siteID)
}
