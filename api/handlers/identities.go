package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/services"
)

type IdentitiesHandler struct {
	services *services.Services
	repos    *repository.Repositories
}

func NewIdentitiesHandler(s *services.Services, repos *repository.Repositories) *IdentitiesHandler {
	return &IdentitiesHandler{services: s, repos: repos}
}

// List returns the persisted sending identity roster.
func (h *IdentitiesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListIdentities", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		identities, err := h.repos.IdentityRepository.List(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"identities": identities})
	}
}

type blockRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Block records a provider block against an identity. Used by the
// operator and by external bounce processors that detect a block
// out-of-band.
func (h *IdentitiesHandler) Block() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "BlockIdentity", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		identity := c.Param("identity")
		tracing.TagIdentity(span, identity)

		var req blockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := h.services.Pool.MarkBlocked(ctx, identity, req.Reason); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "identity blocked", "identity": identity})
	}
}

// ResetCooldown clears an identity's cooldown immediately.
func (h *IdentitiesHandler) ResetCooldown() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ResetCooldown", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		identity := c.Param("identity")
		tracing.TagIdentity(span, identity)

		if err := h.services.Pool.ResetCooldown(ctx, identity); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "cooldown reset", "identity": identity})
	}
}
