package models

import "time"

// TicketAttachment references an uploaded file owned by a ticket
// Table: ticket_attachments
type TicketAttachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TicketID   uint      `gorm:"not null;index" json:"ticket_id"`
	UploaderID uint      `gorm:"not null" json:"uploader_id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	FileURL    string    `gorm:"type:text;not null" json:"file_url"`
	MimeType   *string   `gorm:"size:128" json:"mime_type,omitempty"`
	SizeBytes  *int64    `json:"size_bytes,omitempty"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (TicketAttachment) TableName() string { return "ticket_attachments" }

type TicketAttachmentFilter struct {
	ID       *uint
	TicketID *uint
}
