package models

import (
	"time"

	"github.com/p57/feedback-hub/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Ticket is a customer feedback or support ticket
// Table: tickets
// Indices: uuid, ticket_number (unique), status, priority, department, assignee_id, created_at
// TicketNumber has the shape {prefix}-YYYYMM-NNNNN and is allocated at creation
// SLADeadline is stamped once at creation and never recomputed
// FormData holds the dynamic-field answers untouched
type Ticket struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID          uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	TicketNumber  string     `gorm:"size:32;not null;uniqueIndex:uk_tickets_ticket_number" json:"ticket_number"`
	CategoryID    uint       `gorm:"not null;index" json:"category_id"`
	SubcategoryID *uint      `gorm:"index" json:"subcategory_id,omitempty"`
	LocationID    *uint      `gorm:"index" json:"location_id,omitempty"`
	ReporterID    uint       `gorm:"not null;index" json:"reporter_id"`
	AssigneeID    *uint      `gorm:"index" json:"assignee_id,omitempty"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	IncidentAt    *time.Time `json:"incident_at,omitempty"`
	ReportedAt    time.Time  `gorm:"not null" json:"reported_at"`

	ClientName   string  `gorm:"size:255;not null" json:"client_name"`
	ClientEmail  *string `gorm:"size:255" json:"client_email,omitempty"`
	ClientPhone  *string `gorm:"size:64" json:"client_phone,omitempty"`
	ClientStatus *string `gorm:"size:64" json:"client_status,omitempty"`
	ClientMood   *string `gorm:"size:64" json:"client_mood,omitempty"`

	Status     TicketStatus   `gorm:"size:32;not null;default:'open';index" json:"status"`
	Priority   TicketPriority `gorm:"size:16;not null;default:'medium';index" json:"priority"`
	Department *Department    `gorm:"size:32;index" json:"department,omitempty"`

	SLADeadline     *time.Time `json:"sla_deadline,omitempty"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`

	AITags    pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"ai_tags"`
	Sentiment *string        `gorm:"size:32" json:"sentiment,omitempty"`
	FormData  JSONData       `gorm:"type:jsonb;not null;default:'{}'" json:"form_data"`

	IsEscalated      *bool      `gorm:"default:false;index" json:"is_escalated"`
	EscalationReason *string    `gorm:"type:text" json:"escalation_reason,omitempty"`
	RequiresFollowUp *bool      `gorm:"default:false" json:"requires_follow_up"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Category    *Category    `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Subcategory *Subcategory `gorm:"foreignKey:SubcategoryID;references:ID" json:"subcategory,omitempty"`
}

func (Ticket) TableName() string { return "tickets" }

// BeforeCreate ensures UUID and timestamps are set
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = utils.UTCNow()
	}
	if t.ReportedAt.IsZero() {
		t.ReportedAt = t.CreatedAt
	}
	return nil
}

// TicketFilter represents filter criteria for ticket queries
type TicketFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	TicketNumber  *string         `json:"ticket_number,omitempty"`
	CategoryID    *uint           `json:"category_id,omitempty"`
	SubcategoryID *uint           `json:"subcategory_id,omitempty"`
	Status        *TicketStatus   `json:"status,omitempty"`
	Priority      *TicketPriority `json:"priority,omitempty"`
	Department    *Department     `json:"department,omitempty"`
	AssigneeID    *uint           `json:"assignee_id,omitempty"`
	ReporterID    *uint           `json:"reporter_id,omitempty"`
	IsEscalated   *bool           `json:"is_escalated,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}
