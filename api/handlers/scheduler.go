package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/internal/utils"
	"github.com/primestrides/sendstack/services"
	"github.com/primestrides/sendstack/services/pool"
)

type SchedulerHandler struct {
	cfg      *config.SchedulerConfig
	services *services.Services
}

func NewSchedulerHandler(cfg *config.SchedulerConfig, s *services.Services) *SchedulerHandler {
	return &SchedulerHandler{cfg: cfg, services: s}
}

// GetAllStatus returns the full pool view, one entry per identity.
func (h *SchedulerHandler) GetAllStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetAllStatus", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		statuses, err := h.services.Pool.GetAllStatus(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"identities": statuses})
	}
}

// GetIdentityStatus returns the status of a single identity.
func (h *SchedulerHandler) GetIdentityStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetIdentityStatus", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		identity := c.Param("identity")
		tracing.TagIdentity(span, identity)

		status, err := h.services.Pool.GetAccountStatus(ctx, identity)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, status)
	}
}

// GetWaitTime reports how long a caller should wait before the next
// admission attempt. An exhausted pool is a conflict, not a server
// error: retrying today will not help.
func (h *SchedulerHandler) GetWaitTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetWaitTime", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		wait, err := h.services.Pool.GetWaitTime(ctx)
		if errors.Is(err, pool.ErrPoolExhausted) {
			c.JSON(http.StatusConflict, gin.H{"error": "pool exhausted for today"})
			return
		}
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"waitSeconds": int(wait.Seconds())})
	}
}

// GetSessions previews today's planned sending sessions per identity.
func (h *SchedulerHandler) GetSessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetSessions", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		plans := make(map[string]interface{}, len(h.cfg.Identities))
		for _, identity := range h.cfg.Identities {
			limit, err := h.services.Limits.EffectiveDailyLimit(ctx, identity)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			plans[identity] = h.services.Behavior.PlanDailySessions(utils.Now(), h.cfg.SessionsPerDay, limit)
		}

		c.JSON(http.StatusOK, gin.H{"sessions": plans})
	}
}

// GetFetchSize sizes the next upstream lead-fetch batch.
func (h *SchedulerHandler) GetFetchSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetFetchSize", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		size, err := h.services.FetchSizer.LeadsToFetch(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"leadsToFetch": size})
	}
}
