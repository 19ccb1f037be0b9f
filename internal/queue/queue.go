package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueNotifications = "notifications"

	TypeExpirySweep = "notification:expiry_sweep"

	// SweepUniqueTTL is how long an enqueued sweep blocks identical ones.
	SweepUniqueTTL = 5 * time.Minute
)

var (
	// ErrAlreadyQueued is returned when an identical task is still pending.
	ErrAlreadyQueued = errors.New("task already queued")
	// ErrTaskNotFound is returned for task ids the notifications queue does not hold.
	ErrTaskNotFound = errors.New("task not found")
)

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func RedisOpt(redisAddr string) asynq.RedisClientOpt {
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	return asynq.RedisClientOpt{Addr: redisAddr}
}

func NewClient(redisAddr string) *Client {
	opt := RedisOpt(redisAddr)
	slog.Info("Successfully initialized task queue", "redis_addr", opt.Addr)
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TypeExpirySweep, nil)
}

// ExpirySweepOptions are shared by on-demand and scheduled sweeps so both
// paths collapse into one pending task.
func ExpirySweepOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(3),
		asynq.Timeout(2 * time.Minute),
		asynq.Unique(SweepUniqueTTL),
		asynq.Retention(24 * time.Hour),
	}
}

// EnqueueExpirySweep queues an immediate sweep. Repeated calls within the
// uniqueness window collapse into one task.
func (c *Client) EnqueueExpirySweep(ctx context.Context) (string, error) {
	info, err := c.client.EnqueueContext(ctx, NewExpirySweepTask(), ExpirySweepOptions()...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", ErrAlreadyQueued
	}
	if err != nil {
		return "", fmt.Errorf("failed to enqueue expiry sweep: %w", err)
	}
	return info.ID, nil
}

// GetTaskStatus looks up a task in the notifications queue, including
// completed tasks still within their retention window.
func (c *Client) GetTaskStatus(taskID string) (*asynq.TaskInfo, error) {
	info, err := c.inspector.GetTaskInfo(QueueNotifications, taskID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task info: %w", err)
	}
	return info, nil
}

func (c *Client) Close() error {
	if err := c.inspector.Close(); err != nil {
		slog.Warn("failed to close queue inspector", "error", err)
	}
	return c.client.Close()
}
