package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

// AdminHandlers serves the JWT-guarded admin console endpoints.
type AdminHandlers struct {
	visitorService  *services.VisitorService
	dispatchService *services.DispatchService
	exportService   *services.ExportService
	authService     *services.AdminAuthService
	logger          *logging.ChanneledLogger
}

// NewAdminHandlers creates the admin console handlers.
func NewAdminHandlers(
	visitorService *services.VisitorService,
	dispatchService *services.DispatchService,
	exportService *services.ExportService,
	authService *services.AdminAuthService,
	logger *logging.ChanneledLogger,
) *AdminHandlers {
	return &AdminHandlers{
		visitorService:  visitorService,
		dispatchService: dispatchService,
		exportService:   exportService,
		authService:     authService,
		logger:          logger,
	}
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// DecisionRequest is the id-addressed decision payload.
type DecisionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Login handles POST /api/admin/login
func (h *AdminHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListVisitors handles GET /api/admin/visitors
func (h *AdminHandlers) ListVisitors(c *gin.Context) {
	records, err := h.visitorService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visitors": records,
		"count":    len(records),
	})
}

// GetVisitor handles GET /api/admin/visitors/:id
func (h *AdminHandlers) GetVisitor(c *gin.Context) {
	req, err := h.visitorService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, visitor.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, req)
}

// DecideVisitor handles POST /api/admin/visitors/:id/decision
func (h *AdminHandlers) DecideVisitor(c *gin.Context) {
	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	decision, ok := visitor.ParseDecision(body.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be approved or rejected"})
		return
	}

	req, err := h.visitorService.DecideByID(c.Request.Context(), c.Param("id"), decision)
	switch {
	case errors.Is(err, visitor.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
	case errors.Is(err, visitor.ErrAlreadyDecided):
		resp := gin.H{"error": "visitor has already been processed"}
		if req != nil {
			resp["status"] = req.Status
		}
		c.JSON(http.StatusConflict, resp)
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, req)
	}
}

// ExportVisitors handles GET /api/admin/visitors/export
func (h *AdminHandlers) ExportVisitors(c *gin.Context) {
	data, filename, err := h.exportService.VisitorLogXLSX(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// TestMail handles GET /api/admin/test-mail?to=address
func (h *AdminHandlers) TestMail(c *gin.Context) {
	to := c.Query("to")
	if to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to query parameter is required"})
		return
	}

	id, err := h.dispatchService.SendTestMail(to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messageId": id, "to": to})
}
