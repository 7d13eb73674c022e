package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/logiclens/gatepass-go/internal/domain/repositories"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/xuri/excelize/v2"
)

// ExportService produces spreadsheet exports of the visitor log for the
// admin console.
type ExportService struct {
	repo   repositories.VisitorRepository
	logger *logging.ChanneledLogger
}

// NewExportService creates the export service.
func NewExportService(repo repositories.VisitorRepository, logger *logging.ChanneledLogger) *ExportService {
	return &ExportService{repo: repo, logger: logger}
}

// VisitorLogXLSX builds an xlsx workbook of every visitor record and returns
// the file bytes plus a download filename.
func (s *ExportService) VisitorLogXLSX(ctx context.Context) ([]byte, string, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Visitors"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Visitor Code", "Name", "Email", "Mobile", "ID Number",
		"Purpose", "To Meet", "Host Email", "Status", "Approved By",
		"Decision At", "Registered At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", last, style)
	}

	for i, r := range records {
		row := i + 2
		decisionAt := ""
		if r.DecisionAt != nil {
			decisionAt = r.DecisionAt.Local().Format("02 Jan 2006 15:04:05")
		}
		values := []any{
			r.VisitorCode, r.Name, r.Email, r.Mobile, r.NationalID,
			r.Purpose, r.HostName, r.HostEmail, string(r.Status), r.ApprovedBy,
			decisionAt, r.CreatedAt.Local().Format("02 Jan 2006 15:04:05"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write xlsx: %w", err)
	}

	filename := fmt.Sprintf("visitor-log-%s.xlsx", time.Now().Format("2006-01-02"))
	s.logger.System().Info("Visitor log exported", "records", len(records), "filename", filename)
	return buf.Bytes(), filename, nil
}
