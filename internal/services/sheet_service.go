package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf/v2"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/metrics"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/storage"
	"skyroute-backend/internal/timeutil"
	"skyroute-backend/pkg/logger"
)

const sheetTemplateVersion = "In Bond Control Sheet Template v1.2 250124"

// SheetData is what gets printed on an In Bond Control Sheet.
type SheetData struct {
	C209         string
	C208         string
	BarNumber    string
	Pieces       string
	Signature    string
	DateReceived string
	MonthYear    string
}

// SheetFromEntry fills a sheet from a stored entry.
func SheetFromEntry(e *models.Entry) SheetData {
	d := SheetData{
		C209:         e.C209Number,
		C208:         e.C208Number,
		BarNumber:    e.Container(),
		Signature:    e.Signature,
		DateReceived: timeutil.ToOps(e.CreatedAt).Format(timeutil.SheetDateLayout),
		MonthYear:    e.MonthYear,
	}
	if e.Pieces != nil {
		d.Pieces = strconv.Itoa(*e.Pieces)
	}
	return d
}

// SheetArchiveStore records uploaded sheets.
type SheetArchiveStore interface {
	Create(ctx context.Context, a *models.SheetArchive) error
}

type SheetService struct {
	archives SheetArchiveStore
	objects  storage.ObjectStore
	log      logger.Logger
}

func NewSheetService(archives SheetArchiveStore, log logger.Logger) *SheetService {
	return &SheetService{archives: archives, log: log}
}

// SetObjectStore enables Archive
func (s *SheetService) SetObjectStore(o storage.ObjectStore) {
	s.objects = o
}

// ArchiveEnabled reports whether an object store is configured.
func (s *SheetService) ArchiveEnabled() bool {
	return s.objects != nil
}

// Archive renders the sheet for e, uploads it and returns a presigned link.
func (s *SheetService) Archive(ctx context.Context, sess *auth.Session, e *models.Entry) (*models.SheetArchiveResult, error) {
	if !sess.Valid() {
		return nil, unauthorized()
	}
	if !s.ArchiveEnabled() {
		return nil, &Error{Kind: ErrUnavailable, Msg: "sheet archive storage is not configured"}
	}

	pdf, err := s.RenderPDF(SheetFromEntry(e))
	if err != nil {
		return nil, err
	}

	key := storage.SheetKey(e.MonthYear, e.C209Number, e.C208Number)
	if err := s.objects.Put(ctx, key, "application/pdf", pdf); err != nil {
		return nil, storeError("failed to upload sheet", err)
	}

	archive := &models.SheetArchive{
		EntryID:   e.ID,
		ObjectKey: key,
		SizeBytes: int64(len(pdf)),
		CreatedBy: sess.Username,
	}
	if err := s.archives.Create(ctx, archive); err != nil {
		return nil, storeError("failed to record sheet archive", err)
	}

	url, expires, err := s.objects.PresignGet(ctx, key)
	if err != nil {
		return nil, storeError("failed to sign sheet link", err)
	}

	metrics.SheetsArchived.Inc()
	s.log.Info("sheet archived", "entry_id", e.ID, "key", key, "bytes", len(pdf), "operator", sess.Username)
	return &models.SheetArchiveResult{Archive: archive, URL: url, ExpiresAt: expires}, nil
}

// RenderPDF draws sections 1 to 6 of the paper form on one A4 page.
func (s *SheetService) RenderPDF(d SheetData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(40, 16, "dnata", "1", 0, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(90, 16, "In Bond Control Sheet", "TB", 0, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 8)
	x, y := pdf.GetXY()
	pdf.CellFormat(60, 5, "C209 NUMBER", "LTR", 2, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(60, 11, tr(d.C209), "LBR", 0, "C", false, 0, "")
	pdf.SetXY(x+60, y)
	pdf.Ln(18)
	if d.C208 != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(190, 5, tr("C208 Number: "+d.C208), "", 1, "R", false, 0, "")
	}

	// 1. Inbound bars
	sheetSection(pdf, 1, "Inbound Bars", "")
	sheetBoxes(pdf, tr, [][2]string{
		{"Bar Number:", d.BarNumber},
		{"Number of Pieces:", d.Pieces},
		{"Date Received:", d.DateReceived},
	})
	sheetChecks(pdf, []string{"Lock & Seal Check:", "C209 Present:", "Recorded on I/B Despatch:"})
	sheetLine(pdf, "Comments:", "", 10)
	sheetSigned(pdf, tr, "Print Name:", "", "Sign Name:", d.Signature)

	// 2. Bar storage
	sheetSection(pdf, 2, "Bar Storage", "to be used for bars that are being stored and/or checked")
	sheetLine(pdf, "Comments:", "", 12)

	// 3. Bar packing
	for _, title := range []string{"Bar Packing - Core Bar", "Bar Packing - Gift Carts"} {
		sheetSection(pdf, 3, title, "")
		sheetChecks(pdf, []string{"Checks Prior to Opening:", "Lock Seals Intact:", "Seals match paperwork?"})
		sheetSigned(pdf, tr, "Print:", "", "Sign:", "")
	}
	pdf.SetFont("Arial", "I", 7)
	pdf.CellFormat(190, 4, "* If NO, inform Manager/Shift Leader", "", 1, "L", false, 0, "")
	sheetChecks(pdf, []string{"Manager Informed?"})
	sheetLine(pdf, "Manager Name:", "", 7)

	// 4. Re-sealed / re-allocated
	sheetSection(pdf, 4, "Re-Sealed or Re-Allocated Bar",
		"To be completed for incomplete Bar left by Previous Shift or Bar Re-opened")
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(70, 6, "SEAL NUMBERS", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 6, "FROM", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 6, "TO", "1", 1, "C", true, 0, "")
	pdf.CellFormat(70, 9, "", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 9, "", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 9, "", "1", 1, "C", false, 0, "")

	// 5. Bar completion
	for _, title := range []string{"Bar Completion - Core Bar", "Bar Completion - Gift Carts"} {
		sheetSection(pdf, 5, title, "")
		sheetChecks(pdf, []string{"Doors & Locks Serviceable?", "Wheels & Brakes Serviceable?"})
		sheetSigned(pdf, tr, "Print:", "", "Sign:", "")
	}

	// 6. Record bar on dispatch sheet
	sheetSection(pdf, 6, "Record Bar on Dispatch Sheet", "")
	sheetBoxes(pdf, tr, [][2]string{
		{"Date:", d.DateReceived},
		{"Time:", ""},
		{"Entered on Dispatch? YES / NO", ""},
	})
	sheetSigned(pdf, tr, "Print Name:", "", "Sign Name:", "")

	// Footer
	pdf.Ln(2)
	pdf.SetFont("Arial", "", 7)
	pdf.CellFormat(95, 4, "Official In Bond Control Document - Emirates Group Logistics", "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 4, sheetTemplateVersion, "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetSection(pdf *gofpdf.Fpdf, num int, title, sub string) {
	pdf.Ln(1)
	pdf.SetFillColor(0, 0, 0)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(8, 6, strconv.Itoa(num), "1", 0, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(230, 230, 230)
	if sub == "" {
		pdf.CellFormat(182, 6, " "+title, "1", 1, "L", true, 0, "")
		return
	}
	pdf.CellFormat(70, 6, " "+title, "LTB", 0, "L", true, 0, "")
	pdf.SetFont("Arial", "I", 7)
	pdf.CellFormat(112, 6, sub, "RTB", 1, "R", true, 0, "")
}

func sheetBoxes(pdf *gofpdf.Fpdf, tr func(string) string, boxes [][2]string) {
	w := 190 / float64(len(boxes))
	x, y := pdf.GetXY()
	for i, b := range boxes {
		pdf.SetXY(x+float64(i)*w, y)
		pdf.SetFont("Arial", "B", 7)
		pdf.CellFormat(w, 4, b[0], "LTR", 2, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(w, 8, tr(b[1]), "LBR", 0, "C", false, 0, "")
	}
	pdf.SetXY(x, y+12)
}

func sheetChecks(pdf *gofpdf.Fpdf, labels []string) {
	w := 190 / float64(len(labels))
	pdf.SetFont("Arial", "B", 7)
	for i, l := range labels {
		ln := 0
		if i == len(labels)-1 {
			ln = 1
		}
		pdf.CellFormat(w, 7, l+"   [ ] YES   [ ] NO", "1", ln, "L", false, 0, "")
	}
}

func sheetLine(pdf *gofpdf.Fpdf, label, value string, h float64) {
	pdf.SetFont("Arial", "B", 7)
	pdf.CellFormat(190, h, label+" "+value, "1", 1, "LT", false, 0, "")
}

func sheetSigned(pdf *gofpdf.Fpdf, tr func(string) string, l1, v1, l2, v2 string) {
	pdf.SetFont("Arial", "B", 7)
	pdf.CellFormat(95, 8, l1+" "+tr(v1), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 8, l2+" "+tr(v2), "1", 1, "L", false, 0, "")
}
