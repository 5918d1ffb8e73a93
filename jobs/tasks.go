// Package jobs defines the background tasks processed by the worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/wolv-invest/platform/internal/identity"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeTouchLastLogin stamps a profile's last-login time after a
	// successful sign-in. Fire-and-forget: failures never affect the login.
	TaskTypeTouchLastLogin = "profile:touch_last_login"
	// TaskTypeWelcomeEmail sends the post-registration welcome email.
	TaskTypeWelcomeEmail = "mail:welcome"
)

// TouchLastLoginPayload identifies the profile to stamp.
type TouchLastLoginPayload struct {
	SubjectID string `json:"subject_id"`
}

// NewTouchLastLoginTask constructs an Asynq task.
func NewTouchLastLoginTask(subjectID string) (*asynq.Task, error) {
	data, err := json.Marshal(TouchLastLoginPayload{SubjectID: subjectID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTouchLastLogin, data), nil
}

// NewTouchLastLoginHandler processes TaskTypeTouchLastLogin tasks.
func NewTouchLastLoginHandler(dir identity.Directory, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TouchLastLoginPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := dir.TouchLastLogin(ctx, payload.SubjectID); err != nil {
			if logger != nil {
				logger.Warn("touch last login", slog.String("subject", payload.SubjectID), slog.Any("error", err))
			}
			return err
		}
		return nil
	}
}

// WelcomeEmailPayload describes the welcome email recipient.
type WelcomeEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewWelcomeEmailTask constructs an Asynq task.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeEmail, data), nil
}

// NewWelcomeEmailHandler processes TaskTypeWelcomeEmail tasks.
func NewWelcomeEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WelcomeEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// Placeholder: integrate with the transactional mail provider.
		if logger != nil {
			logger.Info("send welcome email", slog.String("to", payload.Email))
		}
		return nil
	}
}
