// Package templates provides the HTML bodies for visitor-workflow emails.
package templates

import (
	"bytes"
	"html/template"
)

// HostApprovalProps feeds the approval-request email sent to the host.
type HostApprovalProps struct {
	Name          string
	Mobile        string
	NationalID    string
	Purpose       string
	Email         string
	HostName      string
	ApproveLink   string
	RejectLink    string
	ExpiryMinutes int
}

// VisitorApprovedProps feeds the approval notice sent to the visitor.
type VisitorApprovedProps struct {
	Name        string
	VisitorCode string
	Purpose     string
	ApprovedBy  string
	HasPass     bool
}

var hostApprovalTemplate = template.Must(template.New("hostApproval").Parse(`
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #333;">Visitor Approval Request</h2>
    <p>Hello,</p>
    <p>You have a visitor waiting for approval:</p>

    <div style="background: #f9f9f9; padding: 15px; border-radius: 5px; margin: 15px 0;">
      <p><strong>Name:</strong> {{.Name}}</p>
      <p><strong>Mobile:</strong> {{.Mobile}}</p>
      <p><strong>ID Number:</strong> {{.NationalID}}</p>
      <p><strong>Purpose:</strong> {{.Purpose}}</p>
      {{if .Email}}<p><strong>Email:</strong> {{.Email}}</p>{{end}}
      {{if .HostName}}<p><strong>To Meet:</strong> {{.HostName}}</p>{{end}}
    </div>

    <p>Please click one of the buttons below to approve or reject this visitor:</p>

    <div style="margin: 25px 0;">
      <a href="{{.ApproveLink}}" style="background: #28a745; color: white; padding: 12px 25px; text-decoration: none; border-radius: 4px; margin-right: 15px;">Approve Visitor</a>
      <a href="{{.RejectLink}}" style="background: #dc3545; color: white; padding: 12px 25px; text-decoration: none; border-radius: 4px;">Reject Visitor</a>
    </div>

    <p style="color: #666; font-size: 12px;">
      This link will expire in {{.ExpiryMinutes}} minutes. If you didn't request this, please ignore this email.
    </p>
  </div>`))

var visitorApprovedTemplate = template.Must(template.New("visitorApproved").Parse(`
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #28a745;">Visit Approved!</h2>
    <p>Dear {{.Name}},</p>
    <p>Your visit request has been <strong>approved</strong>.</p>
    <p>Your visitor details:</p>
    <div style="background: #f9f9f9; padding: 15px; border-radius: 5px; margin: 15px 0;">
      <p><strong>Visitor Code:</strong> {{.VisitorCode}}</p>
      <p><strong>Purpose:</strong> {{.Purpose}}</p>
      <p><strong>Approved By:</strong> {{.ApprovedBy}}</p>
    </div>
    {{if .HasPass}}<p>Please find your visitor pass attached to this email. Show it at the reception when you arrive.</p>
    {{else}}<p>Please show your visitor code at the reception when you arrive.</p>{{end}}
    <p style="color: #666;">This is an automated message. Please do not reply to this email.</p>
  </div>`))

var visitorRejectedTemplate = template.Must(template.New("visitorRejected").Parse(`
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #dc3545;">Visit Declined</h2>
    <p>Dear {{.Name}},</p>
    <p>We regret to inform you that your visit request has been <strong>declined</strong>.</p>
    <p>If you believe this is an error, please contact the reception.</p>
    <p style="color: #666;">This is an automated message. Please do not reply to this email.</p>
  </div>`))

// GetHostApprovalContent renders the host approval-request body.
func GetHostApprovalContent(props HostApprovalProps) string {
	return render(hostApprovalTemplate, props)
}

// GetVisitorApprovedContent renders the visitor approval notice body.
func GetVisitorApprovedContent(props VisitorApprovedProps) string {
	return render(visitorApprovedTemplate, props)
}

// GetVisitorRejectedContent renders the visitor rejection notice body.
func GetVisitorRejectedContent(name string) string {
	return render(visitorRejectedTemplate, struct{ Name string }{Name: name})
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// Templates are compiled at init and data is plain structs; an
		// execution failure here means a programming error.
		return ""
	}
	return buf.String()
}
