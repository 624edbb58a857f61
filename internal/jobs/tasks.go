package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeResetEmail is the task type for password-reset emails.
	TaskTypeResetEmail = "mail:reset"
)

// ResetEmailPayload describes one password-reset message to deliver.
type ResetEmailPayload struct {
	To    string `json:"to"`
	Token string `json:"token"`
}

// NewResetEmailTask constructs an Asynq task for a reset email.
func NewResetEmailTask(payload ResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeResetEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
