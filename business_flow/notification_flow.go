package businessflow

import (
	"context"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
)

// NotificationFlow serves the caller's inbox
type NotificationFlow interface {
	ListNotifications(ctx context.Context, req *dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error)
	MarkRead(ctx context.Context, notificationID, userID uint) error
}

// NotificationFlowImpl implements NotificationFlow
type NotificationFlowImpl struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationFlow(notificationRepo repository.NotificationRepository) NotificationFlow {
	return &NotificationFlowImpl{notificationRepo: notificationRepo}
}

func (f *NotificationFlowImpl) ListNotifications(ctx context.Context, req *dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	filter := models.NotificationFilter{UserID: &req.UserID}
	if req.UnreadOnly {
		filter.IsRead = utils.ToPtr(false)
	}
	total, err := f.notificationRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_NOTIFICATIONS_FAILED", "Failed to count notifications", err)
	}
	unread := total
	if !req.UnreadOnly {
		unread, err = f.notificationRepo.Count(ctx, models.NotificationFilter{UserID: &req.UserID, IsRead: utils.ToPtr(false)})
		if err != nil {
			return nil, NewBusinessError("LIST_NOTIFICATIONS_FAILED", "Failed to count unread notifications", err)
		}
	}

	rows, err := f.notificationRepo.ListByUser(ctx, req.UserID, req.UnreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_NOTIFICATIONS_FAILED", "Failed to list notifications", err)
	}
	out := make([]dto.NotificationDTO, 0, len(rows))
	for _, n := range rows {
		out = append(out, toNotificationDTO(*n))
	}

	return &dto.ListNotificationsResponse{
		Message:       "Notifications retrieved",
		Notifications: out,
		UnreadCount:   unread,
		Pagination:    dto.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// MarkRead only touches notifications owned by userID
func (f *NotificationFlowImpl) MarkRead(ctx context.Context, notificationID, userID uint) error {
	ok, err := f.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return NewBusinessError("MARK_READ_FAILED", "Failed to mark notification read", err)
	}
	if !ok {
		return NewBusinessError("NOTIFICATION_NOT_FOUND", "Notification not found", ErrNotificationNotFound)
	}
	return nil
}
