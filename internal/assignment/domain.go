package assignment

import (
	"github.com/meridian-esg/meridian-esg/internal/checklist"
)

// UserRef identifies an assignee for display.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Set holds every assignment in effect for one (company, site) scope:
// category defaults plus per-instance element overrides. Assignments are
// always scoped to a concrete site, never to the aggregate.
type Set struct {
	Category map[checklist.Category]UserRef
	Element  map[string]UserRef
}

// NewSet returns an empty Set with initialised maps.
func NewSet() Set {
	return Set{
		Category: make(map[checklist.Category]UserRef),
		Element:  make(map[string]UserRef),
	}
}

// CategoryInput describes an assign-category request.
type CategoryInput struct {
	CompanyID int64
	SiteID    string
	Category  checklist.Category
	UserID    int64
	ActorID   int64
}

// ElementInput describes an assign-element request.
type ElementInput struct {
	InstanceID string
	UserID     int64
	ActorID    int64
}
