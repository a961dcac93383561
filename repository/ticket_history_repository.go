package repository

import (
	"context"

	"github.com/p57/feedback-hub/models"
	"gorm.io/gorm"
)

// TicketHistoryRepositoryImpl implements TicketHistoryRepository interface
type TicketHistoryRepositoryImpl struct {
	*BaseRepository[models.TicketHistory, models.TicketHistoryFilter]
}

// NewTicketHistoryRepository creates a new ticket history repository
func NewTicketHistoryRepository(db *gorm.DB) TicketHistoryRepository {
	return &TicketHistoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TicketHistory, models.TicketHistoryFilter](db),
	}
}

// ListByTicket returns a ticket's history oldest first
func (r *TicketHistoryRepositoryImpl) ListByTicket(ctx context.Context, ticketID uint) ([]*models.TicketHistory, error) {
	return r.ByFilter(ctx, models.TicketHistoryFilter{TicketID: &ticketID}, "created_at ASC, id ASC", 0, 0)
}

func (r *TicketHistoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.TicketHistoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TicketID != nil {
		query = query.Where("ticket_id = ?", *filter.TicketID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	return query
}

// ByFilter retrieves history rows based on filter criteria
func (r *TicketHistoryRepositoryImpl) ByFilter(ctx context.Context, filter models.TicketHistoryFilter, orderBy string, limit, offset int) ([]*models.TicketHistory, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TicketHistory{}), filter)

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

	var rows []*models.TicketHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of history rows matching filter
func (r *TicketHistoryRepositoryImpl) Count(ctx context.Context, filter models.TicketHistoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TicketHistory{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any history row matches the filter
func (r *TicketHistoryRepositoryImpl) Exists(ctx context.Context, filter models.TicketHistoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
