package dto

import "time"

// AttachmentInput references a file already uploaded to storage
type AttachmentInput struct {
	FileName  string  `json:"file_name" validate:"required,max=255"`
	FileURL   string  `json:"file_url" validate:"required,url"`
	MimeType  *string `json:"mime_type,omitempty" validate:"omitempty,max=128"`
	SizeBytes *int64  `json:"size_bytes,omitempty" validate:"omitempty,min=0"`
}

// CreateTicketRequest is a partial ticket; department, priority and assignee are
// backfilled by assignment rules and catalog defaults when absent
type CreateTicketRequest struct {
	ReporterID       uint              `json:"-"`
	CategoryID       uint              `json:"category_id" validate:"required"`
	SubcategoryID    *uint             `json:"subcategory_id,omitempty" validate:"omitempty"`
	LocationID       *uint             `json:"location_id,omitempty" validate:"omitempty"`
	Title            string            `json:"title" validate:"required,max=255"`
	Description      string            `json:"description" validate:"max=10000"`
	IncidentAt       *time.Time        `json:"incident_at,omitempty" validate:"omitempty"`
	ReportedAt       *time.Time        `json:"reported_at,omitempty" validate:"omitempty"`
	ClientName       string            `json:"client_name" validate:"required,max=255"`
	ClientEmail      *string           `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone      *string           `json:"client_phone,omitempty" validate:"omitempty,max=64"`
	ClientStatus     *string           `json:"client_status,omitempty" validate:"omitempty,max=64"`
	ClientMood       *string           `json:"client_mood,omitempty" validate:"omitempty,max=64"`
	Department       *string           `json:"department,omitempty" validate:"omitempty"`
	Priority         *string           `json:"priority,omitempty" validate:"omitempty"`
	AssigneeID       *uint             `json:"assignee_id,omitempty" validate:"omitempty"`
	FormData         map[string]any    `json:"form_data,omitempty"`
	RequiresFollowUp *bool             `json:"requires_follow_up,omitempty" validate:"omitempty"`
	FollowUpDate     *time.Time        `json:"follow_up_date,omitempty" validate:"omitempty"`
	Attachments      []AttachmentInput `json:"attachments,omitempty" validate:"omitempty,dive"`
}

// TicketDTO is the public shape of a ticket
type TicketDTO struct {
	ID               uint           `json:"id"`
	UUID             string         `json:"uuid"`
	TicketNumber     string         `json:"ticket_number"`
	CategoryID       uint           `json:"category_id"`
	SubcategoryID    *uint          `json:"subcategory_id,omitempty"`
	LocationID       *uint          `json:"location_id,omitempty"`
	ReporterID       uint           `json:"reporter_id"`
	AssigneeID       *uint          `json:"assignee_id,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	IncidentAt       *string        `json:"incident_at,omitempty"`
	ReportedAt       string         `json:"reported_at"`
	ClientName       string         `json:"client_name"`
	ClientEmail      *string        `json:"client_email,omitempty"`
	ClientPhone      *string        `json:"client_phone,omitempty"`
	ClientStatus     *string        `json:"client_status,omitempty"`
	ClientMood       *string        `json:"client_mood,omitempty"`
	Status           string         `json:"status"`
	Priority         string         `json:"priority"`
	Department       *string        `json:"department,omitempty"`
	SLADeadline      *string        `json:"sla_deadline,omitempty"`
	FirstResponseAt  *string        `json:"first_response_at,omitempty"`
	ResolvedAt       *string        `json:"resolved_at,omitempty"`
	ClosedAt         *string        `json:"closed_at,omitempty"`
	AITags           []string       `json:"ai_tags"`
	Sentiment        *string        `json:"sentiment,omitempty"`
	FormData         map[string]any `json:"form_data"`
	IsEscalated      bool           `json:"is_escalated"`
	EscalationReason *string        `json:"escalation_reason,omitempty"`
	RequiresFollowUp bool           `json:"requires_follow_up"`
	FollowUpDate     *string        `json:"follow_up_date,omitempty"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

// CreateTicketResponse returns the persisted ticket and the rule that shaped it, if any
type CreateTicketResponse struct {
	Message       string    `json:"message"`
	Ticket        TicketDTO `json:"ticket"`
	MatchedRuleID *uint     `json:"matched_rule_id,omitempty"`
}

// ListTicketsRequest filters for listing tickets
type ListTicketsRequest struct {
	Status        *string `query:"status" validate:"omitempty"`
	Priority      *string `query:"priority" validate:"omitempty"`
	Department    *string `query:"department" validate:"omitempty"`
	CategoryID    *uint   `query:"category_id" validate:"omitempty"`
	SubcategoryID *uint   `query:"subcategory_id" validate:"omitempty"`
	AssigneeID    *uint   `query:"assignee_id" validate:"omitempty"`
	ReporterID    *uint   `query:"reporter_id" validate:"omitempty"`
	IsEscalated   *bool   `query:"is_escalated" validate:"omitempty"`
	Page          int     `query:"page" validate:"omitempty,min=1"`
	PageSize      int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListTicketsResponse returns a page of tickets
type ListTicketsResponse struct {
	Message    string         `json:"message"`
	Tickets    []TicketDTO    `json:"tickets"`
	Pagination PaginationInfo `json:"pagination"`
}

// TicketHistoryDTO is one audit row
type TicketHistoryDTO struct {
	ID        uint    `json:"id"`
	UserID    *uint   `json:"user_id,omitempty"`
	Action    string  `json:"action"`
	FieldName *string `json:"field_name,omitempty"`
	OldValue  *string `json:"old_value,omitempty"`
	NewValue  *string `json:"new_value,omitempty"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// TicketAttachmentDTO is one attachment reference
type TicketAttachmentDTO struct {
	ID         uint    `json:"id"`
	UploaderID uint    `json:"uploader_id"`
	FileName   string  `json:"file_name"`
	FileURL    string  `json:"file_url"`
	MimeType   *string `json:"mime_type,omitempty"`
	SizeBytes  *int64  `json:"size_bytes,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// TicketDetailResponse returns a ticket with its history and attachments
type TicketDetailResponse struct {
	Message     string                `json:"message"`
	Ticket      TicketDTO             `json:"ticket"`
	History     []TicketHistoryDTO    `json:"history"`
	Attachments []TicketAttachmentDTO `json:"attachments"`
}

// UpdateTicketStatusRequest moves a ticket to a new status; Reason is required for escalation
type UpdateTicketStatusRequest struct {
	TicketID uint    `json:"-"`
	ActorID  uint    `json:"-"`
	Status   string  `json:"status" validate:"required"`
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=2000"`
}

// UpdateTicketPriorityRequest changes the ticket priority; the SLA deadline is kept
type UpdateTicketPriorityRequest struct {
	TicketID uint   `json:"-"`
	ActorID  uint   `json:"-"`
	Priority string `json:"priority" validate:"required"`
}

// UpdateTicketAssigneeRequest (re)assigns or unassigns a ticket
type UpdateTicketAssigneeRequest struct {
	TicketID   uint  `json:"-"`
	ActorID    uint  `json:"-"`
	AssigneeID *uint `json:"assignee_id"`
}

// UpdateTicketResponse returns the ticket after a mutation
type UpdateTicketResponse struct {
	Message string    `json:"message"`
	Ticket  TicketDTO `json:"ticket"`
}

// DeleteTicketRequest identifies the ticket to delete
type DeleteTicketRequest struct {
	TicketID uint `json:"-"`
	ActorID  uint `json:"-"`
}

// DeleteTicketResponse confirms deletion
type DeleteTicketResponse struct {
	Message      string `json:"message"`
	TicketNumber string `json:"ticket_number"`
}

// AddCommentRequest adds a comment to a ticket
type AddCommentRequest struct {
	TicketID   uint   `json:"-"`
	AuthorID   uint   `json:"-"`
	Body       string `json:"body" validate:"required,max=10000"`
	IsInternal bool   `json:"is_internal"`
}

// CommentDTO is the public shape of a ticket comment
type CommentDTO struct {
	ID         uint   `json:"id"`
	TicketID   uint   `json:"ticket_id"`
	AuthorID   uint   `json:"author_id"`
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
	CreatedAt  string `json:"created_at"`
}

// AddCommentResponse returns the created comment
type AddCommentResponse struct {
	Message string     `json:"message"`
	Comment CommentDTO `json:"comment"`
}

// ListCommentsResponse lists a ticket's comments
type ListCommentsResponse struct {
	Message  string       `json:"message"`
	TicketID uint         `json:"ticket_id"`
	Comments []CommentDTO `json:"comments"`
}
