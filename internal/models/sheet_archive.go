package models

import "time"

// SheetArchive records one In Bond Control Sheet PDF uploaded to object storage
type SheetArchive struct {
	ID        int       `json:"id"`
	EntryID   int64     `json:"entry_id"`
	ObjectKey string    `json:"object_key"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type SheetArchiveResult struct {
	Archive   *SheetArchive `json:"archive"`
	URL       string        `json:"url"`
	ExpiresAt time.Time     `json:"expires_at"`
}
