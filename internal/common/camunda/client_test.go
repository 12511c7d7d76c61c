package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", Timeout: 2000, RequestTimeout: 5000})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.Equal(t, 2*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)

	defaults := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500"})
	assert.Equal(t, 10*time.Second, defaults.ConnectionTimeout)
}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	result, err := executeWithRetry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
		calls++
		if calls < 2 {
			return nil, stderrors.New("rpc error: code = Unavailable")
		}
		return "ok", nil
	}, "create-instance")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestExecuteWithRetry_GivesUpOnPermanentError(t *testing.T) {
	calls := 0
	_, err := executeWithRetry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("process definition not found")
	}, "create-instance")

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	stdErr := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeWorkflowEngineUnavailable, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, "not_found", stdErr.Metadata["reason"])
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := executeWithRetry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("context deadline exceeded")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, fastRetry.MaxRetries+1, calls)
	stdErr := errors.AsStandardError(err)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, "timeout", stdErr.Metadata["reason"])
}

func TestExecuteWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	_, err := executeWithRetry(ctx, slow, func(context.Context) (interface{}, error) {
		cancel()
		return nil, stderrors.New("connection refused")
	}, "topology")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("connection reset by peer")))
	assert.False(t, isRetryableZeebeError(stderrors.New("permission denied")))
}
