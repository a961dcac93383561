package repository

import (
	"context"

	"github.com/p57/feedback-hub/models"
	"gorm.io/gorm"
)

// TicketCommentRepositoryImpl implements TicketCommentRepository interface
type TicketCommentRepositoryImpl struct {
	*BaseRepository[models.TicketComment, models.TicketCommentFilter]
}

// NewTicketCommentRepository creates a new ticket comment repository
func NewTicketCommentRepository(db *gorm.DB) TicketCommentRepository {
	return &TicketCommentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TicketComment, models.TicketCommentFilter](db),
	}
}

// ListByTicket returns a ticket's comments oldest first
func (r *TicketCommentRepositoryImpl) ListByTicket(ctx context.Context, ticketID uint) ([]*models.TicketComment, error) {
	return r.ByFilter(ctx, models.TicketCommentFilter{TicketID: &ticketID}, "created_at ASC, id ASC", 0, 0)
}

func (r *TicketCommentRepositoryImpl) applyFilter(query *gorm.DB, filter models.TicketCommentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TicketID != nil {
		query = query.Where("ticket_id = ?", *filter.TicketID)
	}
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	return query
}

// ByFilter retrieves comments based on filter criteria
func (r *TicketCommentRepositoryImpl) ByFilter(ctx context.Context, filter models.TicketCommentFilter, orderBy string, limit, offset int) ([]*models.TicketComment, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TicketComment{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.TicketComment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of comments matching filter
func (r *TicketCommentRepositoryImpl) Count(ctx context.Context, filter models.TicketCommentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TicketComment{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any comment matches the filter
func (r *TicketCommentRepositoryImpl) Exists(ctx context.Context, filter models.TicketCommentFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
