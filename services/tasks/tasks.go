package tasks

import (
	"encoding/json"
	"time"

	"wellbe/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSendEmail     = "email:send"
	TypeReviewPrompts = "sessions:review_prompts"
)

const emailMaxRetry = 5

func NewEmailTask(email models.Email) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(email)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendEmail, b)
	opts := []asynq.Option{asynq.MaxRetry(emailMaxRetry), asynq.Timeout(time.Minute)}

	return task, opts, nil
}

func ParseEmailTask(task *asynq.Task) (models.Email, error) {
	var email models.Email
	err := json.Unmarshal(task.Payload(), &email)
	return email, err
}

// NewReviewPromptsTask has no payload; the sweep always looks back from the
// time it runs.
func NewReviewPromptsTask() *asynq.Task {
	return asynq.NewTask(TypeReviewPrompts, nil)
}
