package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

// DecisionHandlers serves the email-link decision endpoint. The host lands
// here from their mail client, so every outcome renders a human-readable
// HTML page rather than JSON.
type DecisionHandlers struct {
	visitorService *services.VisitorService
	logger         *logging.ChanneledLogger
}

// NewDecisionHandlers creates the decision link handlers.
func NewDecisionHandlers(visitorService *services.VisitorService, logger *logging.ChanneledLogger) *DecisionHandlers {
	return &DecisionHandlers{visitorService: visitorService, logger: logger}
}

type decisionPage struct {
	Title    string
	Heading  string
	Color    string
	Message  string
	Visitor  string
	Decision string
}

var decisionPageTemplate = template.Must(template.New("decisionPage").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; background: #f4f6f8; margin: 0; padding: 40px 20px;">
  <div style="max-width: 480px; margin: 0 auto; background: white; border-radius: 8px; padding: 30px; box-shadow: 0 2px 8px rgba(0,0,0,0.08); text-align: center;">
    <h2 style="color: {{.Color}}; margin-top: 0;">{{.Heading}}</h2>
    <p style="color: #444; font-size: 15px;">{{.Message}}</p>
    {{if .Visitor}}<p style="color: #444;"><strong>Visitor:</strong> {{.Visitor}}</p>{{end}}
    {{if .Decision}}<p style="color: #444;"><strong>Decision:</strong> {{.Decision}}</p>{{end}}
    <p style="color: #999; font-size: 12px; margin-bottom: 0;">You may close this window.</p>
  </div>
</body>
</html>`))

// DecideByToken handles GET /api/visitors/decision/:token?status=approved|rejected
func (h *DecisionHandlers) DecideByToken(c *gin.Context) {
	token := c.Param("token")

	decision, ok := visitor.ParseDecision(c.Query("status"))
	if !ok {
		h.renderPage(c, http.StatusBadRequest, decisionPage{
			Title:   "Invalid Request",
			Heading: "Invalid Request",
			Color:   "#dc3545",
			Message: "The decision link is malformed. Please use the buttons from the approval email.",
		})
		return
	}

	req, err := h.visitorService.DecideByToken(c.Request.Context(), token, decision)
	switch {
	case errors.Is(err, visitor.ErrTokenNotFound):
		h.renderPage(c, http.StatusNotFound, decisionPage{
			Title:   "Link Not Found",
			Heading: "Link Not Found",
			Color:   "#dc3545",
			Message: "This approval link is not recognized. It may have already been used or never existed.",
		})
	case errors.Is(err, visitor.ErrTokenExpired):
		h.renderPage(c, http.StatusGone, decisionPage{
			Title:   "Link Expired",
			Heading: "Link Expired",
			Color:   "#f0ad4e",
			Message: "This approval link has expired. The visitor will need to register again.",
		})
	case errors.Is(err, visitor.ErrAlreadyDecided):
		page := decisionPage{
			Title:   "Already Processed",
			Heading: "Already Processed",
			Color:   "#f0ad4e",
			Message: "A decision has already been recorded for this visitor.",
		}
		if req != nil {
			page.Visitor = req.Name
			page.Decision = string(req.Status)
		}
		h.renderPage(c, http.StatusConflict, page)
	case err != nil:
		h.logger.Decision().Error("Decision link processing failed", "error", err)
		h.renderPage(c, http.StatusInternalServerError, decisionPage{
			Title:   "Something Went Wrong",
			Heading: "Something Went Wrong",
			Color:   "#dc3545",
			Message: "We could not record your decision. Please try the link again in a moment.",
		})
	default:
		page := decisionPage{
			Title:   "Visitor Approved",
			Heading: "Visitor Approved",
			Color:   "#28a745",
			Message: "Thank you. The visitor has been notified and their gate pass is on its way.",
			Visitor: req.Name,
		}
		if decision == visitor.DecisionRejected {
			page.Title = "Visitor Rejected"
			page.Heading = "Visitor Rejected"
			page.Color = "#dc3545"
			page.Message = "Thank you. The visitor has been notified of your decision."
		}
		h.renderPage(c, http.StatusOK, page)
	}
}

func (h *DecisionHandlers) renderPage(c *gin.Context, status int, page decisionPage) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := decisionPageTemplate.Execute(c.Writer, page); err != nil {
		h.logger.Decision().Error("Failed to render decision page", "error", err)
	}
}
