package models

import "time"

// TicketHistory is an append-only audit row for a ticket mutation
// Table: ticket_history
type TicketHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"not null;index" json:"ticket_id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Action    string    `gorm:"size:64;not null" json:"action"`
	FieldName *string   `gorm:"size:64" json:"field_name,omitempty"`
	OldValue  *string   `gorm:"type:text" json:"old_value,omitempty"`
	NewValue  *string   `gorm:"type:text" json:"new_value,omitempty"`
	Note      *string   `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index" json:"created_at"`
}

func (TicketHistory) TableName() string { return "ticket_history" }

type TicketHistoryFilter struct {
	ID       *uint
	TicketID *uint
	Action   *string
}
