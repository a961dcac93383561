package models

import "time"

// Notification is a per-user inbox entry; only IsRead changes after creation
// Table: notifications
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TicketID  *uint     `gorm:"index" json:"ticket_id,omitempty"`
	Type      string    `gorm:"size:64;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    *bool     `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

type NotificationFilter struct {
	ID       *uint
	UserID   *uint
	TicketID *uint
	IsRead   *bool
}
