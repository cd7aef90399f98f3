package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gemini-gateway/internal/metrics"
	"gemini-gateway/internal/transport/httpdto"
	"gemini-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	PromptRequiredMessage = "Prompt is required"
	BackendFailureMessage = "Failed to fetch response from Gemini API"
)

// Generator produces text for a prompt. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateHandler relays a prompt to the generation backend. It keeps no state
// between requests.
type GenerateHandler struct {
	generator Generator
	timeout   time.Duration
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewGenerateHandler creates the relay handler. A zero timeout leaves the
// backend call bounded only by the request context.
func NewGenerateHandler(generator Generator, timeout time.Duration, l *logger.Logger, m *metrics.Metrics) *GenerateHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &GenerateHandler{generator: generator, timeout: timeout, logger: l, metrics: m}
}

// Generate handles POST /generate.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req httpdto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == nil || strings.TrimSpace(*req.Prompt) == "" {
		h.metrics.GenerateOutcome(metrics.OutcomeInvalid)
		c.JSON(http.StatusBadRequest, httpdto.GenerateError{Error: PromptRequiredMessage})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := h.generator.Generate(ctx, *req.Prompt)
	h.metrics.ObserveBackend(time.Since(start))
	if err != nil {
		h.metrics.GenerateOutcome(metrics.OutcomeBackendError)
		h.logger.ErrorCtx(c.Request.Context(), "generation backend failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, httpdto.GenerateError{Error: BackendFailureMessage})
		return
	}

	h.metrics.GenerateOutcome(metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, httpdto.GenerateResponse{Response: text})
}
