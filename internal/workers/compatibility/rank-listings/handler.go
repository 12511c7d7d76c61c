// internal/workers/compatibility/rank-listings/handler.go
package ranklistings

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/validation"
	"marketplace-compat/internal/marketplace"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-listings"
)

type Ranker interface {
	Rank(ctx context.Context, category string, req marketplace.RankRequest) (*marketplace.RankResponse, error)
}

type Handler struct {
	config       *Config
	service      Ranker
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Ranker, log logger.Logger) *Handler {
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
	result := validation.ValidateRankRequest([]byte(job.Variables))
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

	req := input.RankRequest
	if req.MaxItems <= 0 || (h.config.MaxItems > 0 && req.MaxItems > h.config.MaxItems) {
		req.MaxItems = h.config.MaxItems
	}

	start := time.Now()
	resp, err := h.service.Rank(ctx, input.Category, req)
	if err != nil {
		return nil, err
	}

	output := &Output{
		RankedListings: resp.RankedListings,
		Candidates:     resp.Candidates,
		Skipped:        resp.Skipped,
	}
	if len(resp.RankedListings) > 0 {
		output.TopListingID = resp.RankedListings[0].ListingID
		output.TopScore = resp.RankedListings[0].OverallScore
	}

	duration := time.Since(start).Milliseconds()
	h.logger.Info("ranking completed", map[string]interface{}{
		"category":    input.Category,
		"inputCount":  resp.Candidates,
		"outputCount": len(resp.RankedListings),
		"durationMs":  duration,
	})
	if duration > 500 {
		h.logger.Warn("ranking exceeded 500ms", map[string]interface{}{
			"durationMs": duration,
		})
	}

	return output, nil
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
