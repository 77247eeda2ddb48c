package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeChecklistGenerate materialises a site's checklist once its
	// profiling wizard completes.
	TaskTypeChecklistGenerate = "checklist:generate"
	// TaskTypeStaleScan flags checklists whose profiling answers changed
	// after generation.
	TaskTypeStaleScan = "checklist:stale_scan"
	// TaskTypeSendEmail is the task type for transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// ChecklistGeneratePayload identifies the site to generate for.
type ChecklistGeneratePayload struct {
	CompanyID int64  `json:"company_id"`
	SiteID    string `json:"site_id"`
}

// NewChecklistGenerateTask constructs an Asynq task.
func NewChecklistGenerateTask(payload ChecklistGeneratePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeChecklistGenerate, data), nil
}

// NewStaleScanTask constructs the nightly stale-checklist scan task.
func NewStaleScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeStaleScan, nil)
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery is wired in a later phase.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}
