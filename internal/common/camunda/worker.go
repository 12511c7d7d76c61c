// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/metrics"
	"marketplace-compat/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler must return an error (required by Zeebe client)
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Jobs are activated with the
// worker's configured concurrency and timeout. obs may be nil.
func NewWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 5
	}
	timeout := 30 * time.Second
	if wcfg.Timeout > 0 {
		timeout = config.GetDuration(wcfg.Timeout)
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler, obs, log)).
		MaxJobsActive(maxJobs).
		Timeout(timeout).
		Open()

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

// instrument wraps handler with job logging and Prometheus and otel job metrics.
func instrument(taskType string, handler JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		status := "success"
		if err := handler.Handle(client, job); err != nil {
			status = "failed"
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.AsStandardError(err).Code)).Inc()
			log.Error("Handler returned error", map[string]interface{}{
				"jobKey": job.Key,
				"error":  err.Error(),
			})
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())

		ctx := context.Background()
		obs.RecordJobProcessed(ctx, status)
		obs.RecordJobDuration(ctx, time.Since(start), status)
	}
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", nil)
}

// Stop closes the job worker and waits for in-flight jobs until ctx expires.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", nil)
	done := make(chan struct{})
	go func() {
		w.worker.Close()
		w.worker.AwaitClose()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker did not stop before deadline", nil)
	}
}
