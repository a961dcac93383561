package models

// TicketStatus is the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusEscalated  TicketStatus = "escalated"
)

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPending,
		TicketStatusResolved, TicketStatusClosed, TicketStatusEscalated:
		return true
	}
	return false
}

// TicketPriority drives SLA deadlines
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// DefaultTicketPriority is the column default applied before assignment runs
const DefaultTicketPriority = TicketPriorityMedium

func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Department owns a ticket
type Department string

const (
	DepartmentManagement         Department = "management"
	DepartmentOperations         Department = "operations"
	DepartmentFacilities         Department = "facilities"
	DepartmentInstruction        Department = "instruction"
	DepartmentFrontDesk          Department = "front_desk"
	DepartmentSales              Department = "sales"
	DepartmentMarketing          Department = "marketing"
	DepartmentCustomerExperience Department = "customer_experience"
)

var Departments = []Department{
	DepartmentManagement,
	DepartmentOperations,
	DepartmentFacilities,
	DepartmentInstruction,
	DepartmentFrontDesk,
	DepartmentSales,
	DepartmentMarketing,
	DepartmentCustomerExperience,
}

func (d Department) IsValid() bool {
	for _, v := range Departments {
		if v == d {
			return true
		}
	}
	return false
}

// UserRole controls access to settings screens
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleStaff   UserRole = "staff"
)

// CanManageSettings reports whether the role may edit catalog and rule configuration
func (r UserRole) CanManageSettings() bool {
	return r == UserRoleAdmin || r == UserRoleManager
}

// History actions
const (
	HistoryActionTicketCreated   = "ticket_created"
	HistoryActionStatusChanged   = "status_changed"
	HistoryActionPriorityChanged = "priority_changed"
	HistoryActionAssigneeChanged = "assignee_changed"
	HistoryActionEscalated       = "escalated"
	HistoryActionCommentAdded    = "comment_added"
)

// Notification kinds
const (
	NotificationTypeTicketAssigned = "ticket_assigned"
	NotificationTypeStatusChanged  = "status_changed"
	NotificationTypeNewComment     = "new_comment"
)
