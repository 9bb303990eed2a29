package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/micromasters/dashboard-api/internal/lock"
)

// TypeDashboardRefresh rebuilds one learner's cached dashboard.
const TypeDashboardRefresh = "dashboard:refresh"

// DashboardRefreshPayload identifies the learner whose dashboard to rebuild.
type DashboardRefreshPayload struct {
	UserID string `json:"user_id"`
}

// NewDashboardRefreshTask builds the asynq task for a dashboard rebuild.
// Tasks are deduplicated per learner within a short window so a burst of
// coupon attaches does not queue redundant rebuilds.
func NewDashboardRefreshTask(userID string) (*asynq.Task, error) {
	if userID == "" {
		return nil, errors.New("tasks: user id is required")
	}
	payload, err := json.Marshal(DashboardRefreshPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TypeDashboardRefresh,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Unique(30*time.Second),
	), nil
}

// Client enqueues background tasks.
type Client struct {
	inner *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

// EnqueueRefresh schedules a dashboard rebuild for the learner. An already
// queued rebuild for the same learner is not an error.
func (c *Client) EnqueueRefresh(ctx context.Context, userID string) error {
	if c == nil || c.inner == nil {
		return errors.New("tasks: client not configured")
	}
	task, err := NewDashboardRefreshTask(userID)
	if err != nil {
		return err
	}
	_, err = c.inner.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

// Rebuilder rebuilds one learner's dashboard.
type Rebuilder interface {
	Rebuild(ctx context.Context, userID string) error
}

// RebuildLocker serialises rebuilds for the same learner across workers.
type RebuildLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Processor handles background tasks on the worker.
type Processor struct {
	Dashboard Rebuilder
	Locker    RebuildLocker
	Logger    zerolog.Logger
}

// Register attaches the processor's handlers to the mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDashboardRefresh, p.HandleDashboardRefresh)
}

// HandleDashboardRefresh processes one dashboard rebuild task.
func (p *Processor) HandleDashboardRefresh(ctx context.Context, t *asynq.Task) error {
	var payload DashboardRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode dashboard refresh payload: %w", asynq.SkipRetry)
	}
	if payload.UserID == "" {
		return fmt.Errorf("dashboard refresh payload missing user id: %w", asynq.SkipRetry)
	}
	if p.Dashboard == nil {
		return errors.New("tasks: dashboard rebuilder not configured")
	}
	rebuild := func(ctx context.Context) error {
		return p.Dashboard.Rebuild(ctx, payload.UserID)
	}
	if p.Locker != nil {
		key := lock.RebuildKey(payload.UserID)
		rebuild = func(ctx context.Context) error {
			return p.Locker.WithLock(ctx, key, time.Minute, func(ctx context.Context) error {
				return p.Dashboard.Rebuild(ctx, payload.UserID)
			})
		}
	}
	if err := rebuild(ctx); err != nil {
		p.Logger.Error().Err(err).Str("user_id", payload.UserID).Msg("rebuild dashboard")
		return err
	}
	p.Logger.Info().Str("user_id", payload.UserID).Msg("dashboard rebuilt")
	return nil
}
