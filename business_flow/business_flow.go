// Package businessflow contains the business logic for the application.
package businessflow

import (
	"encoding/json"
	"time"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
)

// ClientMetadata holds client-related information for logging and auditing
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// IntakeMetrics receives ticket-intake observations
type IntakeMetrics interface {
	TicketCreated(priority, department string)
	RuleMatched(matched bool)
	FormRejected(failedFields int)
	TicketNumberCollision()
}

type noopIntakeMetrics struct{}

func (noopIntakeMetrics) TicketCreated(string, string) {}
func (noopIntakeMetrics) RuleMatched(bool)             {}
func (noopIntakeMetrics) FormRejected(int)             {}
func (noopIntakeMetrics) TicketNumberCollision()       {}

// NoopIntakeMetrics discards every observation
func NoopIntakeMetrics() IntakeMetrics { return noopIntakeMetrics{} }

func departmentString(d *models.Department) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

func parseDepartment(s *string) (*models.Department, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d := models.Department(*s)
	if !d.IsValid() {
		return nil, ErrInvalidDepartment
	}
	return &d, nil
}

func parsePriority(s *string) (*models.TicketPriority, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	p := models.TicketPriority(*s)
	if !p.IsValid() {
		return nil, ErrInvalidPriority
	}
	return &p, nil
}

func visibleCount(fields []models.FieldDefinition) int {
	n := 0
	for _, f := range fields {
		if !f.IsHidden {
			n++
		}
	}
	return n
}

// ToCategoryDTO converts a category model
func ToCategoryDTO(c models.Category) dto.CategoryDTO {
	return dto.CategoryDTO{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		Icon:              c.Icon,
		Color:             c.Color,
		DefaultDepartment: departmentString(c.DefaultDepartment),
		IsActive:          utils.IsTrue(c.IsActive),
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         c.UpdatedAt.Format(time.RFC3339),
	}
}

// ToSubcategoryDTO converts a subcategory model; withFields includes the normalized form
func ToSubcategoryDTO(s models.Subcategory, withFields bool) dto.SubcategoryDTO {
	fields := s.Fields()
	out := dto.SubcategoryDTO{
		ID:                s.ID,
		CategoryID:        s.CategoryID,
		Name:              s.Name,
		Description:       s.Description,
		DefaultDepartment: departmentString(s.DefaultDepartment),
		IsActive:          utils.IsTrue(s.IsActive),
		FieldCount:        len(fields),
		VisibleFieldCount: visibleCount(fields),
		CreatedAt:         s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
	}
	if withFields {
		out.Fields = fields
	}
	return out
}

// ToAssignmentRuleDTO converts an assignment rule model
func ToAssignmentRuleDTO(r models.AssignmentRule) dto.AssignmentRuleDTO {
	var priority *string
	if r.Priority != nil {
		p := string(*r.Priority)
		priority = &p
	}
	return dto.AssignmentRuleDTO{
		ID:             r.ID,
		Name:           r.Name,
		CategoryID:     r.CategoryID,
		SubcategoryID:  r.SubcategoryID,
		Department:     departmentString(r.Department),
		Priority:       priority,
		AssignToUserID: r.AssignToUserID,
		AssignToTeamID: r.AssignToTeamID,
		IsActive:       utils.IsTrue(r.IsActive),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

// ToTicketDTO converts a ticket model
func ToTicketDTO(t models.Ticket) dto.TicketDTO {
	formData := map[string]any{}
	if len(t.FormData) > 0 {
		_ = json.Unmarshal(t.FormData, &formData)
	}
	tags := []string(t.AITags)
	if tags == nil {
		tags = []string{}
	}
	return dto.TicketDTO{
		ID:               t.ID,
		UUID:             t.UUID.String(),
		TicketNumber:     t.TicketNumber,
		CategoryID:       t.CategoryID,
		SubcategoryID:    t.SubcategoryID,
		LocationID:       t.LocationID,
		ReporterID:       t.ReporterID,
		AssigneeID:       t.AssigneeID,
		Title:            t.Title,
		Description:      t.Description,
		IncidentAt:       utils.FormatTimePtr(t.IncidentAt),
		ReportedAt:       t.ReportedAt.Format(time.RFC3339),
		ClientName:       t.ClientName,
		ClientEmail:      t.ClientEmail,
		ClientPhone:      t.ClientPhone,
		ClientStatus:     t.ClientStatus,
		ClientMood:       t.ClientMood,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		Department:       departmentString(t.Department),
		SLADeadline:      utils.FormatTimePtr(t.SLADeadline),
		FirstResponseAt:  utils.FormatTimePtr(t.FirstResponseAt),
		ResolvedAt:       utils.FormatTimePtr(t.ResolvedAt),
		ClosedAt:         utils.FormatTimePtr(t.ClosedAt),
		AITags:           tags,
		Sentiment:        t.Sentiment,
		FormData:         formData,
		IsEscalated:      utils.IsTrue(t.IsEscalated),
		EscalationReason: t.EscalationReason,
		RequiresFollowUp: utils.IsTrue(t.RequiresFollowUp),
		FollowUpDate:     utils.FormatTimePtr(t.FollowUpDate),
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        t.UpdatedAt.Format(time.RFC3339),
	}
}

func toHistoryDTO(h models.TicketHistory) dto.TicketHistoryDTO {
	return dto.TicketHistoryDTO{
		ID:        h.ID,
		UserID:    h.UserID,
		Action:    h.Action,
		FieldName: h.FieldName,
		OldValue:  h.OldValue,
		NewValue:  h.NewValue,
		Note:      h.Note,
		CreatedAt: h.CreatedAt.Format(time.RFC3339),
	}
}

func toAttachmentDTO(a models.TicketAttachment) dto.TicketAttachmentDTO {
	return dto.TicketAttachmentDTO{
		ID:         a.ID,
		UploaderID: a.UploaderID,
		FileName:   a.FileName,
		FileURL:    a.FileURL,
		MimeType:   a.MimeType,
		SizeBytes:  a.SizeBytes,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}

func toCommentDTO(c models.TicketComment) dto.CommentDTO {
	return dto.CommentDTO{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		Body:       c.Body,
		IsInternal: utils.IsTrue(c.IsInternal),
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

func toNotificationDTO(n models.Notification) dto.NotificationDTO {
	return dto.NotificationDTO{
		ID:        n.ID,
		TicketID:  n.TicketID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    utils.IsTrue(n.IsRead),
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// ToCurrentUserDTO converts a user model
func ToCurrentUserDTO(u models.User) dto.CurrentUserDTO {
	return dto.CurrentUserDTO{
		ID:         u.ID,
		AuthID:     u.AuthID.String(),
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       string(u.Role),
		Department: departmentString(u.Department),
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = utils.DefaultPageSize
	}
	if pageSize > utils.MaxPageSize {
		pageSize = utils.MaxPageSize
	}
	return page, pageSize
}
