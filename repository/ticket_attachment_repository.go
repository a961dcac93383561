package repository

import (
	"context"

	"github.com/p57/feedback-hub/models"
	"gorm.io/gorm"
)

// TicketAttachmentRepositoryImpl implements TicketAttachmentRepository interface
type TicketAttachmentRepositoryImpl struct {
	*BaseRepository[models.TicketAttachment, models.TicketAttachmentFilter]
}

// NewTicketAttachmentRepository creates a new ticket attachment repository
func NewTicketAttachmentRepository(db *gorm.DB) TicketAttachmentRepository {
	return &TicketAttachmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TicketAttachment, models.TicketAttachmentFilter](db),
	}
}

// ListByTicket returns a ticket's attachments in upload order
func (r *TicketAttachmentRepositoryImpl) ListByTicket(ctx context.Context, ticketID uint) ([]*models.TicketAttachment, error) {
	return r.ByFilter(ctx, models.TicketAttachmentFilter{TicketID: &ticketID}, "id ASC", 0, 0)
}

func (r *TicketAttachmentRepositoryImpl) applyFilter(query *gorm.DB, filter models.TicketAttachmentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TicketID != nil {
		query = query.Where("ticket_id = ?", *filter.TicketID)
	}
	return query
}

// ByFilter retrieves attachments based on filter criteria
func (r *TicketAttachmentRepositoryImpl) ByFilter(ctx context.Context, filter models.TicketAttachmentFilter, orderBy string, limit, offset int) ([]*models.TicketAttachment, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TicketAttachment{}), filter)

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

	var rows []*models.TicketAttachment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of attachments matching filter
func (r *TicketAttachmentRepositoryImpl) Count(ctx context.Context, filter models.TicketAttachmentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TicketAttachment{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any attachment matches the filter
func (r *TicketAttachmentRepositoryImpl) Exists(ctx context.Context, filter models.TicketAttachmentFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
