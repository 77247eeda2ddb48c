package assignment

import "github.com/meridian-esg/meridian-esg/internal/checklist"

// EffectiveAssignee resolves the responsible user for one checklist-item
// instance. An element-level override always wins over the category default;
// nil means unassigned and callers render it as such, never a fabricated
// user.
func EffectiveAssignee(instanceID string, category checklist.Category, set Set) *UserRef {
	if user, ok := set.Element[instanceID]; ok {
		return &user
	}
	if user, ok := set.Category[category]; ok {
		return &user
	}
	return nil
}
