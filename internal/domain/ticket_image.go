package domain

import "time"

// TicketImage stores metadata for an image attached to a ticket. The binary
// itself lives in external storage under StorageKey.
type TicketImage struct {
	ID         int64
	TicketID   int64
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	UploadedBy int64
	UploadedAt time.Time
}
