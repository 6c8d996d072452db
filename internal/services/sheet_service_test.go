package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyroute-backend/internal/models"
	"skyroute-backend/internal/timeutil"
	"skyroute-backend/pkg/logger"
)

type memObjects struct {
	puts   map[string][]byte
	putErr error
}

func (m *memObjects) Put(_ context.Context, key, contentType string, body []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[key] = body
	return nil
}

func (m *memObjects) PresignGet(_ context.Context, key string) (string, time.Time, error) {
	return "https://bucket.example/" + key + "?sig=1", time.Now().Add(15 * time.Minute), nil
}

type memArchives struct {
	rows []*models.SheetArchive
}

func (m *memArchives) Create(_ context.Context, a *models.SheetArchive) error {
	a.ID = len(m.rows) + 1
	m.rows = append(m.rows, a)
	return nil
}

func sheetEntry() *models.Entry {
	pieces := 48
	return &models.Entry{
		ID:            5,
		Type:          models.EntryTypeLogistic,
		C209Number:    "FEB0001",
		C208Number:    "FEB0004",
		MonthYear:     "FEB-26",
		ContainerCode: "AKE12345BA",
		Pieces:        &pieces,
		Signature:     "JD",
		CreatedAt:     time.Date(2026, time.February, 3, 23, 30, 0, 0, time.UTC),
	}
}

func TestSheetFromEntry(t *testing.T) {
	d := SheetFromEntry(sheetEntry())
	assert.Equal(t, "FEB0001", d.C209)
	assert.Equal(t, "FEB0004", d.C208)
	assert.Equal(t, "AKE12345BA", d.BarNumber)
	assert.Equal(t, "48", d.Pieces)
	assert.Equal(t, "JD", d.Signature)
	assert.Equal(t, timeutil.ToOps(sheetEntry().CreatedAt).Format("02/01/2006"), d.DateReceived)

	e := sheetEntry()
	e.Pieces = nil
	e.ContainerCode = ""
	e.BarNumber = "LEGACY1"
	d = SheetFromEntry(e)
	assert.Empty(t, d.Pieces)
	assert.Equal(t, "LEGACY1", d.BarNumber)
}

func TestRenderPDF(t *testing.T) {
	svc := NewSheetService(&memArchives{}, logger.NewNop())
	pdf, err := svc.RenderPDF(SheetFromEntry(sheetEntry()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Greater(t, len(pdf), 1000)
}

func TestArchiveUploadsAndRecords(t *testing.T) {
	objects := &memObjects{}
	archives := &memArchives{}
	svc := NewSheetService(archives, logger.NewNop())
	svc.SetObjectStore(objects)

	res, err := svc.Archive(context.Background(), operator(), sheetEntry())
	require.NoError(t, err)

	require.Len(t, archives.rows, 1)
	key := archives.rows[0].ObjectKey
	assert.True(t, strings.HasPrefix(key, "sheets/FEB-26/FEB0001-FEB0004-"), key)
	assert.Equal(t, int64(len(objects.puts[key])), res.Archive.SizeBytes)
	assert.Equal(t, "jdoe", res.Archive.CreatedBy)
	assert.Contains(t, res.URL, key)
}

func TestArchiveRequiresStorage(t *testing.T) {
	svc := NewSheetService(&memArchives{}, logger.NewNop())
	_, err := svc.Archive(context.Background(), operator(), sheetEntry())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.Archive(context.Background(), nil, sheetEntry())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestArchiveUploadFailure(t *testing.T) {
	archives := &memArchives{}
	svc := NewSheetService(archives, logger.NewNop())
	svc.SetObjectStore(&memObjects{putErr: errors.New("access denied")})

	_, err := svc.Archive(context.Background(), operator(), sheetEntry())
	assert.ErrorIs(t, err, ErrStore)
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, archives.rows)
}
