// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/p57/feedback-hub/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CategoryRepository defines operations for ticket categories
type CategoryRepository interface {
	Repository[models.Category, models.CategoryFilter]
	ByName(ctx context.Context, name string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
}

// SubcategoryRepository defines operations for subcategories and their embedded forms
type SubcategoryRepository interface {
	Repository[models.Subcategory, models.SubcategoryFilter]
	ByCategoryAndName(ctx context.Context, categoryID uint, name string) (*models.Subcategory, error)
	ListByCategory(ctx context.Context, categoryID uint, activeOnly bool) ([]*models.Subcategory, error)
	Update(ctx context.Context, subcategory *models.Subcategory) error
	UpdateFormFields(ctx context.Context, id uint, form models.FormDefinition) error
}

// AssignmentRuleRepository defines operations for assignment rules
type AssignmentRuleRepository interface {
	Repository[models.AssignmentRule, models.AssignmentRuleFilter]
	ListMatching(ctx context.Context, categoryID uint, subcategoryID *uint) ([]*models.AssignmentRule, error)
	Update(ctx context.Context, rule *models.AssignmentRule) error
	Delete(ctx context.Context, id uint) error
}

// UserRepository defines operations for application users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByAuthID(ctx context.Context, authID uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// TicketRepository defines operations for tickets
type TicketRepository interface {
	Repository[models.Ticket, models.TicketFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Ticket, error)
	ByTicketNumber(ctx context.Context, number string) (*models.Ticket, error)
	UpdateColumns(ctx context.Context, id uint, columns map[string]any) error
	DeleteCascade(ctx context.Context, id uint) error
	MaxTicketSequence(ctx context.Context) (int64, error)
}

// TicketHistoryRepository defines operations for ticket audit rows
type TicketHistoryRepository interface {
	Repository[models.TicketHistory, models.TicketHistoryFilter]
	ListByTicket(ctx context.Context, ticketID uint) ([]*models.TicketHistory, error)
}

// TicketCommentRepository defines operations for ticket comments
type TicketCommentRepository interface {
	Repository[models.TicketComment, models.TicketCommentFilter]
	ListByTicket(ctx context.Context, ticketID uint) ([]*models.TicketComment, error)
}

// TicketAttachmentRepository defines operations for ticket attachments
type TicketAttachmentRepository interface {
	Repository[models.TicketAttachment, models.TicketAttachmentFilter]
	ListByTicket(ctx context.Context, ticketID uint) ([]*models.TicketAttachment, error)
}

// NotificationRepository defines operations for user notifications
type NotificationRepository interface {
	Repository[models.Notification, models.NotificationFilter]
	ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) (bool, error)
}
