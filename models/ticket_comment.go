package models

import "time"

// TicketComment is a collaboration note on a ticket
// Table: ticket_comments
type TicketComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TicketID   uint      `gorm:"not null;index" json:"ticket_id"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	IsInternal *bool     `gorm:"default:false" json:"is_internal"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index" json:"created_at"`
}

func (TicketComment) TableName() string { return "ticket_comments" }

type TicketCommentFilter struct {
	ID       *uint
	TicketID *uint
	AuthorID *uint
}
