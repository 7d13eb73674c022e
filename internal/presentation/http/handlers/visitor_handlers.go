// Package handlers provides HTTP handlers for the visitor workflow endpoints
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

// VisitorHandlers serves the public registration and expiry endpoints.
type VisitorHandlers struct {
	visitorService *services.VisitorService
	logger         *logging.ChanneledLogger
}

// NewVisitorHandlers creates the public visitor handlers.
func NewVisitorHandlers(visitorService *services.VisitorService, logger *logging.ChanneledLogger) *VisitorHandlers {
	return &VisitorHandlers{visitorService: visitorService, logger: logger}
}

// Register handles POST /api/visitors/register
func (h *VisitorHandlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	req, err := h.visitorService.Register(c.Request.Context(), in)
	if err != nil {
		var verr *visitor.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   verr.Error(),
				"fields":  verr.Fields,
			})
			return
		}
		var qerr *visitor.QREncodingError
		if errors.As(err, &qerr) {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to generate visitor QR code"})
			return
		}
		h.logger.Visitor().Error("Registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":          req.ID,
			"status":      req.Status,
			"visitorCode": req.VisitorCode,
			"qrCode":      req.QRCode,
			"expiresAt":   req.ExpiresAt,
		},
	})
}

// Expire handles POST /api/visitors/:id/expire
func (h *VisitorHandlers) Expire(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "visitor ID is required"})
		return
	}

	req, err := h.visitorService.Expire(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, visitor.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "visitor not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"id": req.ID, "status": req.Status},
	})
}

// Root handles GET / with a plain liveness line.
func (h *VisitorHandlers) Root(c *gin.Context) {
	c.String(http.StatusOK, "Visitor gate-pass service is running")
}

// Health handles GET /api/health
func (h *VisitorHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
