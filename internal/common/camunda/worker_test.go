package camunda

import (
	"testing"

	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type handlerFunc func(client worker.JobClient, job entities.Job) error

func (f handlerFunc) Handle(client worker.JobClient, job entities.Job) error {
	return f(client, job)
}

func TestInstrument_CountsEachJobOnce(t *testing.T) {
	const taskType = "instrument-success"
	var activeDuringJob float64

	handle := instrument(taskType, handlerFunc(func(worker.JobClient, entities.Job) error {
		activeDuringJob = testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType))
		return nil
	}), nil, logger.NewTestLogger(t))

	handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}})

	assert.Equal(t, 1.0, activeDuringJob)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
}

func TestInstrument_CountsFailuresByCode(t *testing.T) {
	const taskType = "instrument-failure"

	handle := instrument(taskType, handlerFunc(func(worker.JobClient, entities.Job) error {
		return errors.NewProfileNotFoundError("user-1")
	}), nil, logger.NewTestLogger(t))

	handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 2}})

	failed := metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.ErrCodeProfileNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
