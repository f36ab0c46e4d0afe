// Package jobs hosts the Asynq background worker and its task definitions.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-builds a consolidated report so the first
	// interactive request hits a warm cache.
	TaskReportWarmup = "report:warmup"
)

// ReportWarmupPayload selects the report to pre-build.
type ReportWarmupPayload struct {
	Companies []string `json:"companies"`
	Currency  string   `json:"currency"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task for report warmup.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueReportWarmup enqueues a report warmup task.
func (c *Client) EnqueueReportWarmup(ctx context.Context, payload ReportWarmupPayload) (*asynq.TaskInfo, error) {
	task, err := NewReportWarmupTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
