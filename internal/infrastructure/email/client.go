// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"

	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/pkg/config"
	"github.com/resendlabs/resend-go"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Message is a single outbound email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Service defines the interface for sending emails, allowing for mock
// implementations in tests. Send returns the provider message id.
type Service interface {
	Send(msg Message) (string, error)
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	if config.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.EmailFrom,
		fromName:  config.EmailFromName,
	}, nil
}

// Send delivers a message through Resend.
func (c *ResendClient) Send(msg Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	for _, a := range msg.Attachments {
		params.Attachments = append(params.Attachments, resend.Attachment{
			Filename: a.Filename,
			Content:  string(a.Content),
		})
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return "", fmt.Errorf("failed to send email via Resend: %w", err)
	}

	return sent.Id, nil
}

// NoopService discards outbound mail. It stands in for the real client when
// no API key is configured so the rest of the workflow keeps functioning;
// every drop is logged loudly for the operator.
type NoopService struct {
	logger *logging.ChanneledLogger
}

// NewNoopService creates a mail sink.
func NewNoopService(logger *logging.ChanneledLogger) *NoopService {
	return &NoopService{logger: logger}
}

// Send logs and discards the message.
func (s *NoopService) Send(msg Message) (string, error) {
	s.logger.Alert().Warn("Mail discarded: no email provider configured",
		"to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return "", nil
}
