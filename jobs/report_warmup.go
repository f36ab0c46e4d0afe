package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/finboard-hq/finboard/internal/consol"
)

// ReportBuilder is the slice of the consolidation service the warmup job needs.
type ReportBuilder interface {
	GetReports(ctx context.Context, q consol.Query) (consol.Report, error)
}

// ReportWarmupJob rebuilds consolidated reports off the request path.
type ReportWarmupJob struct {
	Builder ReportBuilder
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewReportWarmupJob constructs the job handler.
func NewReportWarmupJob(builder ReportBuilder, logger *slog.Logger) *ReportWarmupJob {
	return &ReportWarmupJob{
		Builder: builder,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes a report warmup task.
func (j *ReportWarmupJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Builder == nil {
		return errors.New("report warmup job not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.Companies) == 0 {
		return asynq.SkipRetry
	}
	started := j.clock()
	_, err := j.Builder.GetReports(ctx, consol.Query{
		Companies: payload.Companies,
		Currency:  payload.Currency,
		From:      payload.From,
		To:        payload.To,
	})
	if err != nil {
		j.Logger.Error("report warmup failed",
			slog.Any("companies", payload.Companies),
			slog.Any("error", err))
		return err
	}
	j.Logger.Info("report warmup complete",
		slog.Any("companies", payload.Companies),
		slog.Duration("took", j.clock().Sub(started)))
	return nil
}
