package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/validation"
	"marketplace-compat/internal/compatibility"
	"marketplace-compat/internal/marketplace"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

// ReadinessCheck is one dependency probed by GET /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type handlers struct {
	service *marketplace.Service
	checks  []ReadinessCheck
	logger  logger.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[check.Name] = err.Error()
			h.logger.Warn("readiness check failed", map[string]interface{}{
				"check": check.Name,
				"error": err.Error(),
			})
			continue
		}
		results[check.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

func (h *handlers) score(c *gin.Context) {
	category, ok := h.category(c)
	if !ok {
		return
	}

	raw, ok := h.body(c, validation.ValidateScoreRequest)
	if !ok {
		return
	}

	var req marketplace.ScoreRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "Malformed request body", err.Error())
		return
	}

	resp, err := h.service.Score(c.Request.Context(), string(category), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) rank(c *gin.Context) {
	category, ok := h.category(c)
	if !ok {
		return
	}

	raw, ok := h.body(c, validation.ValidateRankRequest)
	if !ok {
		return
	}

	var req marketplace.RankRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "Malformed request body", err.Error())
		return
	}

	resp, err := h.service.Rank(c.Request.Context(), string(category), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) weights(c *gin.Context) {
	category, ok := h.category(c)
	if !ok {
		return
	}

	table, ok := h.service.Engine().Weights(category)
	if !ok {
		respondError(c, http.StatusServiceUnavailable, codeCompatibilityUnavailable,
			"No weight table configured for category "+string(category), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"weights":  table.SortedWeights(),
	})
}

// invalidateProfile is called by the profile owner after a profile changes.
func (h *handlers) invalidateProfile(c *gin.Context) {
	if err := h.service.InvalidateProfile(c.Request.Context(), c.Param("userId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) category(c *gin.Context) (compatibility.Category, bool) {
	category, err := compatibility.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, codeUnsupportedCategory, err.Error(), gin.H{
			"supported": compatibility.Categories(),
		})
		return "", false
	}
	return category, true
}

// body reads the request body and runs validate over it.
func (h *handlers) body(c *gin.Context, validate func([]byte) *validation.ValidationResult) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		respondError(c, http.StatusRequestEntityTooLarge, codeInvalidRequest, "Request body too large", nil)
		return nil, false
	}

	if result := validate(raw); !result.Valid {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "Request failed validation", result.Errors)
		return nil, false
	}
	return raw, true
}
