package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-id/meridian/internal/observability"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAccountDeactivated is the follow-up task enqueued after an
	// account is deactivated.
	TaskTypeAccountDeactivated = "account:deactivated"
)

// AccountDeactivatedPayload describes the deactivated account and the
// operator-supplied reason.
type AccountDeactivatedPayload struct {
	AccountID string `json:"account_id"`
	Reason    string `json:"reason"`
}

// NewAccountDeactivatedTask constructs an Asynq task.
func NewAccountDeactivatedTask(payload AccountDeactivatedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAccountDeactivated, data), nil
}

// SessionPurger removes the cached sessions of deactivated accounts. The
// identity provider keys sessions as session:<account_id>:<session_id>.
type SessionPurger struct {
	rdb     *redis.Client
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSessionPurger constructs a SessionPurger.
func NewSessionPurger(rdb *redis.Client, logger *slog.Logger, metrics *observability.Metrics) *SessionPurger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionPurger{rdb: rdb, logger: logger, metrics: metrics}
}

// HandleAccountDeactivated processes TaskTypeAccountDeactivated tasks.
func (p *SessionPurger) HandleAccountDeactivated(ctx context.Context, t *asynq.Task) error {
	var payload AccountDeactivatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	purged, err := p.purgeSessions(ctx, payload.AccountID)
	if err != nil {
		p.metrics.ObserveJob(TaskTypeAccountDeactivated, "error")
		return fmt.Errorf("purge sessions for %s: %w", payload.AccountID, err)
	}

	p.logger.Info("account deactivated",
		slog.String("account_id", payload.AccountID),
		slog.String("reason", payload.Reason),
		slog.Int("sessions_purged", purged))
	p.metrics.ObserveJob(TaskTypeAccountDeactivated, "ok")
	return nil
}

func (p *SessionPurger) purgeSessions(ctx context.Context, accountID string) (int, error) {
	pattern := fmt.Sprintf("session:%s:*", accountID)
	purged := 0
	iter := p.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := p.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return purged, err
		}
		purged++
	}
	if err := iter.Err(); err != nil {
		return purged, err
	}
	return purged, nil
}
