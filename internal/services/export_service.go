package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/timeutil"
)

const exportSheet = "Entries"

var exportHeaders = []string{
	"ID", "Type", "C209", "C208", "Month", "Container", "Pieces", "Flight",
	"Origin", "Destination", "Signature", "Flags", "New Build", "RW Flight",
	"Notes", "Created By", "Created At",
}

// ExportService writes entry listings as XLSX workbooks.
type ExportService struct {
	entries *EntryService
}

func NewExportService(entries *EntryService) *ExportService {
	return &ExportService{entries: entries}
}

// ExportXLSX returns the rows List would return for f as a workbook.
func (s *ExportService) ExportXLSX(ctx context.Context, sess *auth.Session, f models.EntryFilter) ([]byte, error) {
	rows, err := s.entries.List(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	return EntriesWorkbook(rows)
}

// EntriesWorkbook renders entries to XLSX bytes.
func EntriesWorkbook(rows []*models.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(exportSheet, "A1", lastHeader, bold)

	for r, e := range rows {
		var pieces interface{}
		if e.Pieces != nil {
			pieces = *e.Pieces
		}
		values := []interface{}{
			e.ID, e.Type, e.C209Number, e.C208Number, e.MonthYear, e.Container(), pieces,
			e.FlightNumber, e.Origin, e.Destination, e.Signature, e.Flags,
			yesNo(e.IsNewBuild), yesNo(e.IsRWFlight), e.Notes, e.CreatedBy,
			timeutil.ToOps(e.CreatedAt).Format(timeutil.DisplayLayout),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	f.SetColWidth(exportSheet, "A", "A", 8)
	f.SetColWidth(exportSheet, "B", "Q", 16)
	f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
