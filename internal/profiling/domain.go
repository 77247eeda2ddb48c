package profiling

import "time"

// Status tracks a site's progress through the profiling wizard.
type Status string

const (
	// StatusNoAnswers means the wizard has not been started for the site.
	StatusNoAnswers Status = "no_answers"
	// StatusInProgress means at least one answer exists.
	StatusInProgress Status = "in_progress"
	// StatusComplete means every applicable question is answered but the
	// checklist has not been generated yet.
	StatusComplete Status = "complete"
	// StatusChecklistGenerated means the site's checklist exists.
	StatusChecklistGenerated Status = "checklist_generated"
)

// SiteProfile is the per-(company, site) wizard state.
type SiteProfile struct {
	CompanyID        int64
	SiteID           string
	Status           Status
	AnswersUpdatedAt time.Time
	GeneratedAt      time.Time
}

// Stale reports whether answers changed after the checklist was generated.
// Re-answering never regenerates automatically; callers surface this as a
// non-fatal status flag.
func (p SiteProfile) Stale() bool {
	return p.Status == StatusChecklistGenerated &&
		!p.GeneratedAt.IsZero() &&
		p.AnswersUpdatedAt.After(p.GeneratedAt)
}

// AnswerInput describes one profiling answer edit.
type AnswerInput struct {
	CompanyID  int64
	SiteID     string
	QuestionID string
	Value      string
	ActorID    int64
}
