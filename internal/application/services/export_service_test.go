package services_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/persistence/memory"
	"github.com/xuri/excelize/v2"
)

func TestVisitorLogXLSX(t *testing.T) {
	ctx := context.Background()
	store := memory.NewVisitorStore()
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	decided := now.Add(5 * time.Minute)
	records := []*visitor.Request{
		{
			ID: "v1", Name: "Asha Verma", Mobile: "9876543210", NationalID: "1234",
			Purpose: "Vendor meeting", HostName: "R. Iyer", HostEmail: "iyer@example.com",
			VisitorCode: "LOGIC-2026-1001", Status: visitor.StatusApproved,
			ApprovedBy: "R. Iyer", DecisionAt: &decided, CreatedAt: now,
		},
		{
			ID: "v2", Name: "Kiran Rao", Mobile: "9123456780", NationalID: "5678",
			Purpose: "Interview", HostEmail: "hr@example.com",
			VisitorCode: "LOGIC-2026-1002", Status: visitor.StatusPending,
			CreatedAt: now.Add(time.Minute),
		},
	}
	for _, r := range records {
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	svc := services.NewExportService(store, quietLogger(t))

	data, filename, err := svc.VisitorLogXLSX(ctx)
	if err != nil {
		t.Fatalf("VisitorLogXLSX: %v", err)
	}
	if !strings.HasPrefix(filename, "visitor-log-") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("filename = %q", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Visitors")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 records", len(rows))
	}
	if rows[0][0] != "Visitor Code" {
		t.Errorf("header = %q", rows[0][0])
	}

	// ListAll returns newest first.
	if rows[1][0] != "LOGIC-2026-1002" || rows[2][0] != "LOGIC-2026-1001" {
		t.Errorf("row order = %q, %q", rows[1][0], rows[2][0])
	}
	if rows[2][8] != "approved" || rows[2][9] != "R. Iyer" {
		t.Errorf("decision columns = %q, %q", rows[2][8], rows[2][9])
	}
}
