package dto

// NotificationDTO is one inbox entry
type NotificationDTO struct {
	ID        uint   `json:"id"`
	TicketID  *uint  `json:"ticket_id,omitempty"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// ListNotificationsRequest pages through the caller's notifications
type ListNotificationsRequest struct {
	UserID     uint `query:"-"`
	UnreadOnly bool `query:"unread_only"`
	Page       int  `query:"page" validate:"omitempty,min=1"`
	PageSize   int  `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListNotificationsResponse returns a page of notifications
type ListNotificationsResponse struct {
	Message       string            `json:"message"`
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int64             `json:"unread_count"`
	Pagination    PaginationInfo    `json:"pagination"`
}

// CurrentUserDTO describes the authenticated caller
type CurrentUserDTO struct {
	ID         uint    `json:"id"`
	AuthID     string  `json:"auth_id"`
	Email      string  `json:"email"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	Department *string `json:"department,omitempty"`
}
