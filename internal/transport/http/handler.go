package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "tradecoach/internal/errors"
	"tradecoach/internal/journal"
	"tradecoach/internal/logging"
	"tradecoach/internal/models"
	"tradecoach/internal/performance"
	"tradecoach/internal/resilience"
	"tradecoach/internal/security"
	"tradecoach/internal/store"
)

// Handler holds the route handlers.
type Handler struct {
	journal *journal.Service
	health  *resilience.HealthChecker
	limiter *performance.RateLimiter
}

// RegisterRoutes mounts every route on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/analyses", h.rateLimit(), h.CreateAnalysis)
	api.GET("/trades", h.ListTrades)
	api.GET("/trades/:id", h.GetTrade)
	api.DELETE("/trades/:id", h.DeleteTrade)
	api.GET("/report", h.Report)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Health reports component status. Unhealthy maps to 503.
func (h *Handler) Health(c *gin.Context) {
	status := h.health.Check(c.Request.Context())
	code := http.StatusOK
	if status.Status == resilience.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter != nil && !h.limiter.Allow() {
			wait := int(math.Ceil(h.limiter.RetryAfter().Seconds()))
			if wait < 1 {
				wait = 1
			}
			c.Header("Retry-After", strconv.Itoa(wait))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: apperrors.ErrRateLimited.Error()})
			return
		}
		c.Next()
	}
}

// CreateAnalysis analyzes a submission and stores it unless save=false.
func (h *Handler) CreateAnalysis(c *gin.Context) {
	var sub models.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	save := true
	if v := c.Query("save"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "save must be a boolean", Field: "save"})
			return
		}
		save = parsed
	}

	ctx := c.Request.Context()
	if !save {
		analysis, err := h.journal.Analyze(ctx, sub)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, analysis)
		return
	}

	record, err := h.journal.Submit(ctx, sub)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ListTrades lists journal records newest first.
func (h *Handler) ListTrades(c *gin.Context) {
	filter := store.TradeFilter{
		Symbol:  strings.ToUpper(strings.TrimSpace(c.Query("symbol"))),
		Method:  models.AnalysisMethod(c.Query("method")),
		Result:  models.TradeResult(c.Query("result")),
		Emotion: c.Query("emotion"),
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer", Field: "limit"})
			return
		}
		filter.Limit = limit
	}

	records, err := h.journal.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": records, "count": len(records)})
}

// GetTrade returns one record.
func (h *Handler) GetTrade(c *gin.Context) {
	record, err := h.journal.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteTrade removes one record.
func (h *Handler) DeleteTrade(c *gin.Context) {
	if err := h.journal.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Report aggregates the journal over ?period=daily|weekly|monthly|all.
func (h *Handler) Report(c *gin.Context) {
	stats, err := h.journal.Report(c.Request.Context(), c.DefaultQuery("period", "all"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// fail maps service errors onto status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var ve *apperrors.ValidationError
	switch {
	case apperrors.As(err, &ve):
		c.JSON(http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case apperrors.Is(err, apperrors.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "trade not found"})
	default:
		logger := logging.FromContext(c.Request.Context())
		logger.Error().Str("path", c.FullPath()).Str("error", security.MaskError(err)).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: security.MaskError(err)})
	}
}
