package pass

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/media"
)

// FallbackStrategy draws the pass directly with vector and text primitives.
// It depends on nothing outside the record, so it cannot fail for a valid
// record short of an encoding bug.
type FallbackStrategy struct {
	issuer string
}

// NewFallbackStrategy creates the direct-drawing strategy.
func NewFallbackStrategy(issuer string) *FallbackStrategy {
	if issuer == "" {
		issuer = "LogicLens"
	}
	return &FallbackStrategy{issuer: issuer}
}

func (s *FallbackStrategy) Name() string { return "direct-draw" }

// Render lays out the gate-pass card on a single A4 page: header, circular
// photo, identity fields, QR image, and a status footer strip.
func (s *FallbackStrategy) Render(_ context.Context, req *visitor.Request) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle(fmt.Sprintf("Visitor Pass %s", req.VisitorCode), false)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()

	// Light background wash.
	pdf.SetFillColor(224, 247, 250)
	pdf.Rect(0, 0, pageW, pageH, "F")

	// Card container.
	cardX, cardY := 25.0, 30.0
	cardW, cardH := pageW-50.0, 180.0
	pdf.SetFillColor(255, 255, 255)
	pdf.SetDrawColor(204, 204, 204)
	pdf.SetLineWidth(0.3)
	pdf.RoundedRect(cardX, cardY, cardW, cardH, 6, "1234", "FD")

	// Header.
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(30, 61, 89)
	pdf.SetXY(cardX, cardY+8)
	pdf.CellFormat(cardW, 10, "Visitor Gate Pass", "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.SetXY(cardX, cardY+18)
	pdf.CellFormat(cardW, 5, fmt.Sprintf("Issued by %s", s.issuer), "", 0, "C", false, 0, "")

	// Circular visitor photo, centered.
	if req.Photo != "" {
		if photo, err := media.DataURIToPNG(req.Photo); err == nil {
			const photoD = 36.0
			photoX := cardX + cardW/2 - photoD/2
			photoY := cardY + 28.0
			pdf.ClipCircle(cardX+cardW/2, photoY+photoD/2, photoD/2, false)
			s.embedPNG(pdf, "visitor-photo", photo, photoX, photoY, photoD, photoD)
			pdf.ClipEnd()
		}
	}

	// Visitor name.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(30, 61, 89)
	pdf.SetXY(cardX, cardY+70)
	pdf.CellFormat(cardW, 8, req.Name, "", 0, "C", false, 0, "")

	// Detail lines.
	type detail struct {
		label string
		value string
		r     int
		g     int
		b     int
	}
	details := []detail{
		{"Visitor Code", req.VisitorCode, 0, 0, 255},
		{"Purpose", req.Purpose, 0, 0, 0},
		{"To Meet", req.HostName, 0, 0, 0},
		{"Date & Time", req.CreatedAt.Local().Format("02 Jan 2006 15:04"), 0, 0, 0},
	}
	switch req.Status {
	case visitor.StatusApproved:
		approver := req.ApprovedBy
		if approver == "" {
			approver = "Host"
		}
		details = append(details, detail{"Status", fmt.Sprintf("APPROVED by %s", approver), 46, 204, 113})
	default:
		details = append(details, detail{"Status", strings.ToUpper(string(req.Status)), 51, 51, 51})
	}

	y := cardY + 84.0
	for _, d := range details {
		if d.value == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(51, 51, 51)
		pdf.SetXY(cardX+20, y)
		pdf.CellFormat(40, 7, d.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(d.r, d.g, d.b)
		pdf.CellFormat(cardW-80, 7, d.value, "", 0, "L", false, 0, "")
		y += 9
	}

	// QR artifact.
	if req.QRCode != "" {
		if qr, err := media.DataURIToPNG(req.QRCode); err == nil {
			const qrD = 38.0
			s.embedPNG(pdf, "visitor-qr", qr, cardX+cardW/2-qrD/2, y+2, qrD, qrD)
		}
	}

	// Footer strip.
	pdf.SetFillColor(46, 204, 113)
	pdf.Rect(cardX, cardY+cardH-14, cardW, 14, "F")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(cardX, cardY+cardH-11)
	pdf.CellFormat(cardW, 8, "GATE PASS", "", 0, "C", false, 0, "")

	// Timestamp outside the card.
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.SetXY(cardX, cardY+cardH+6)
	pdf.CellFormat(cardW, 5, fmt.Sprintf("Generated: %s", time.Now().Local().Format("02 Jan 2006 15:04:05")), "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *FallbackStrategy) embedPNG(pdf *gofpdf.Fpdf, name string, png []byte, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}
