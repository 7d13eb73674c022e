package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/email"
	"github.com/logiclens/gatepass-go/internal/infrastructure/email/templates"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

// PassRenderer produces the PDF gate pass for an approved visitor.
type PassRenderer interface {
	Render(ctx context.Context, req *visitor.Request) ([]byte, error)
}

// DispatchService sends the workflow's outbound notifications. Every send is
// best-effort from the caller's point of view: the lifecycle state machine
// decides what to do with a returned error, never this service.
type DispatchService struct {
	mailer          email.Service
	renderer        PassRenderer
	logger          *logging.ChanneledLogger
	decisionBaseURL string
	tokenWindow     time.Duration
	artifactsDir    string
}

// NewDispatchService creates the notification dispatcher.
func NewDispatchService(
	mailer email.Service,
	renderer PassRenderer,
	logger *logging.ChanneledLogger,
	decisionBaseURL string,
	tokenWindow time.Duration,
	artifactsDir string,
) *DispatchService {
	if tokenWindow <= 0 {
		tokenWindow = 10 * time.Minute
	}
	return &DispatchService{
		mailer:          mailer,
		renderer:        renderer,
		logger:          logger,
		decisionBaseURL: decisionBaseURL,
		tokenWindow:     tokenWindow,
		artifactsDir:    artifactsDir,
	}
}

// NotifyHost emails the host the approve/reject links for a new registration.
func (s *DispatchService) NotifyHost(_ context.Context, req *visitor.Request) error {
	body := templates.GetHostApprovalContent(templates.HostApprovalProps{
		Name:          req.Name,
		Mobile:        req.Mobile,
		NationalID:    req.NationalID,
		Purpose:       req.Purpose,
		Email:         req.Email,
		HostName:      req.HostName,
		ApproveLink:   s.decisionLink(req.ApprovalToken, visitor.DecisionApproved),
		RejectLink:    s.decisionLink(req.ApprovalToken, visitor.DecisionRejected),
		ExpiryMinutes: int(s.tokenWindow.Minutes()),
	})

	id, err := s.mailer.Send(email.Message{
		To:      req.HostEmail,
		Subject: fmt.Sprintf("Visitor Approval Request: %s", req.Name),
		HTML:    body,
	})
	if err != nil {
		return fmt.Errorf("host approval mail to %s: %w", req.HostEmail, err)
	}

	s.logger.Mail().Info("Host approval request sent",
		"visitorId", req.ID, "to", req.HostEmail, "messageId", id)
	return nil
}

// NotifyVisitorApproved emails the visitor their approval notice with the
// gate pass attached. A render failure downgrades to a pass-less notice
// rather than blocking the notification. Visitors without an email address
// are skipped silently; the code on the kiosk screen is their copy.
func (s *DispatchService) NotifyVisitorApproved(ctx context.Context, req *visitor.Request) error {
	if req.Email == "" {
		s.logger.Mail().Debug("Visitor has no email, skipping approval notice", "visitorId", req.ID)
		return nil
	}

	var attachments []email.Attachment
	pdf, err := s.renderer.Render(ctx, req)
	if err != nil {
		s.logger.Render().Error("Pass rendering failed, sending notice without attachment",
			"visitorId", req.ID, "error", err)
	} else {
		attachments = append(attachments, email.Attachment{
			Filename:    fmt.Sprintf("visitor-pass-%s.pdf", req.VisitorCode),
			Content:     pdf,
			ContentType: "application/pdf",
		})
		s.cachePassArtifact(req, pdf)
	}

	body := templates.GetVisitorApprovedContent(templates.VisitorApprovedProps{
		Name:        req.Name,
		VisitorCode: req.VisitorCode,
		Purpose:     req.Purpose,
		ApprovedBy:  req.ApprovedBy,
		HasPass:     len(attachments) > 0,
	})

	id, err := s.mailer.Send(email.Message{
		To:          req.Email,
		Subject:     "Your Visit Has Been Approved",
		HTML:        body,
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("approval notice to %s: %w", req.Email, err)
	}

	s.logger.Mail().Info("Visitor approval notice sent",
		"visitorId", req.ID, "to", req.Email, "messageId", id, "withPass", len(attachments) > 0)
	return nil
}

// NotifyVisitorRejected emails the visitor a rejection notice.
func (s *DispatchService) NotifyVisitorRejected(_ context.Context, req *visitor.Request) error {
	if req.Email == "" {
		s.logger.Mail().Debug("Visitor has no email, skipping rejection notice", "visitorId", req.ID)
		return nil
	}

	id, err := s.mailer.Send(email.Message{
		To:      req.Email,
		Subject: "Your Visit Request Update",
		HTML:    templates.GetVisitorRejectedContent(req.Name),
	})
	if err != nil {
		return fmt.Errorf("rejection notice to %s: %w", req.Email, err)
	}

	s.logger.Mail().Info("Visitor rejection notice sent",
		"visitorId", req.ID, "to", req.Email, "messageId", id)
	return nil
}

// SendTestMail verifies the mail pipeline end to end from the admin console.
func (s *DispatchService) SendTestMail(to string) (string, error) {
	id, err := s.mailer.Send(email.Message{
		To:      to,
		Subject: "Gatepass Mail Test",
		HTML:    "<p>This is a test message from the gatepass server. Mail delivery is working.</p>",
	})
	if err != nil {
		return "", fmt.Errorf("test mail to %s: %w", to, err)
	}
	s.logger.Mail().Info("Test mail sent", "to", to, "messageId", id)
	return id, nil
}

func (s *DispatchService) decisionLink(token string, decision visitor.Decision) string {
	return fmt.Sprintf("%s/visitors/decision/%s?status=%s",
		s.decisionBaseURL, url.PathEscape(token), decision)
}

// cachePassArtifact keeps a disposable copy of the rendered pass on disk for
// operator inspection.
func (s *DispatchService) cachePassArtifact(req *visitor.Request, pdf []byte) {
	if s.artifactsDir == "" {
		return
	}
	if err := os.MkdirAll(s.artifactsDir, 0755); err != nil {
		return
	}
	path := filepath.Join(s.artifactsDir, fmt.Sprintf("pass_%s.pdf", req.ID))
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		s.logger.Render().Debug("Failed to cache pass artifact", "path", path, "error", err)
	}
}
