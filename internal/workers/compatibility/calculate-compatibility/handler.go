// internal/workers/compatibility/calculate-compatibility/handler.go
package calculatecompatibility

import (
	"context"
	"encoding/json"
	"strings"

	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/validation"
	"marketplace-compat/internal/marketplace"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-compatibility"
)

type Scorer interface {
	Score(ctx context.Context, category string, req marketplace.ScoreRequest) (*marketplace.ScoreResponse, error)
}

type Handler struct {
	config       *Config
	service      Scorer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Scorer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		return h.failJob(ctx, client, job, err)
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		return h.failJob(ctx, client, job, err)
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result := validation.ValidateScoreRequest([]byte(job.Variables))
	if !result.Valid {
		return nil, errors.NewInvalidScoringRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidScoringRequestError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Category == "" {
		return nil, errors.NewInvalidScoringRequestError("category is required")
	}

	resp, err := h.service.Score(ctx, input.Category, input.ScoreRequest)
	if err != nil {
		return nil, err
	}

	result := resp.Result
	h.logger.Info("compatibility calculated", map[string]interface{}{
		"category":     input.Category,
		"userId":       result.UserID,
		"listingId":    result.ListingID,
		"overallScore": result.OverallScore,
		"cached":       resp.Cached,
	})

	return &Output{
		Compatibility:          result,
		OverallScore:           result.OverallScore,
		PrimaryMatchReason:     result.PrimaryMatchReason,
		ImprovementSuggestions: result.ImprovementSuggestions,
		Badges:                 result.Badges,
		MatchFactors:           result.Factors,
		Cached:                 resp.Cached,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return errors.NewInternalError(err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return errors.NewWorkflowEngineError("complete job", err)
	}
	return nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	stdErr := errors.AsStandardError(err)
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
	return stdErr
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
