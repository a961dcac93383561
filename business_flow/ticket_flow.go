package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/app/services"
	"github.com/p57/feedback-hub/config"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/p57/feedback-hub/utils"
	"gorm.io/gorm"
)

// TicketFlow handles ticket intake and the ticket lifecycle
type TicketFlow interface {
	CreateTicket(ctx context.Context, req *dto.CreateTicketRequest, metadata *ClientMetadata) (*dto.CreateTicketResponse, error)
	ListTickets(ctx context.Context, req *dto.ListTicketsRequest) (*dto.ListTicketsResponse, error)
	GetTicket(ctx context.Context, ticketID uint) (*dto.TicketDetailResponse, error)
	UpdateStatus(ctx context.Context, req *dto.UpdateTicketStatusRequest) (*dto.UpdateTicketResponse, error)
	UpdatePriority(ctx context.Context, req *dto.UpdateTicketPriorityRequest) (*dto.UpdateTicketResponse, error)
	UpdateAssignee(ctx context.Context, req *dto.UpdateTicketAssigneeRequest) (*dto.UpdateTicketResponse, error)
	DeleteTicket(ctx context.Context, req *dto.DeleteTicketRequest) (*dto.DeleteTicketResponse, error)
	AddComment(ctx context.Context, req *dto.AddCommentRequest) (*dto.AddCommentResponse, error)
	ListComments(ctx context.Context, ticketID uint) (*dto.ListCommentsResponse, error)
	ExportTickets(ctx context.Context, req *dto.ListTicketsRequest) (string, []byte, error)
}

// TicketRepositories groups the stores the ticket flow writes to
type TicketRepositories struct {
	Tickets       repository.TicketRepository
	History       repository.TicketHistoryRepository
	Comments      repository.TicketCommentRepository
	Attachments   repository.TicketAttachmentRepository
	Notifications repository.NotificationRepository
	Users         repository.UserRepository
	Categories    repository.CategoryRepository
	Subcategories repository.SubcategoryRepository
}

// TicketFlowImpl implements TicketFlow
type TicketFlowImpl struct {
	repos     TicketRepositories
	tx        repository.TxRunner
	resolver  AssignmentResolver
	analyzer  services.TicketAnalyzer
	publisher services.EventPublisher
	metrics   IntakeMetrics
	cfg       config.TicketConfig
	now       func() time.Time
}

func NewTicketFlow(
	repos TicketRepositories,
	tx repository.TxRunner,
	resolver AssignmentResolver,
	analyzer services.TicketAnalyzer,
	publisher services.EventPublisher,
	metrics IntakeMetrics,
	cfg config.TicketConfig,
) TicketFlow {
	if analyzer == nil {
		analyzer = services.NewNoopTicketAnalyzer()
	}
	if publisher == nil {
		publisher = services.NewNoopEventPublisher()
	}
	if metrics == nil {
		metrics = NoopIntakeMetrics()
	}
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = utils.DefaultTicketNumberPrefix
	}
	return &TicketFlowImpl{
		repos:     repos,
		tx:        tx,
		resolver:  resolver,
		analyzer:  analyzer,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		now:       utils.UTCNow,
	}
}

func (f *TicketFlowImpl) CreateTicket(ctx context.Context, req *dto.CreateTicketRequest, metadata *ClientMetadata) (*dto.CreateTicketResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Title is required", ErrTitleRequired)
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Client name is required", ErrClientNameRequired)
	}

	reporter, err := f.repos.Users.ByID(ctx, req.ReporterID)
	if err != nil {
		return nil, NewBusinessError("CREATE_TICKET_FAILED", "Failed to load reporter", err)
	}
	if reporter == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "Reporter not found", ErrUserNotFound)
	}

	category, err := f.loadActiveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if req.SubcategoryID != nil {
		if err := f.checkSubcategory(ctx, category.ID, *req.SubcategoryID); err != nil {
			return nil, err
		}
	}

	department, err := parseDepartment(req.Department)
	if err != nil {
		return nil, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return nil, NewBusinessError("INVALID_PRIORITY", "Unknown priority", err)
	}
	// The column default lands before routing, so rules only set priority
	// when something upstream left it empty.
	if priority == nil {
		priority = utils.ToPtr(models.DefaultTicketPriority)
	}

	if req.AssigneeID != nil {
		if err := f.checkAssignee(ctx, *req.AssigneeID); err != nil {
			return nil, err
		}
	}

	routing, err := f.resolver.Resolve(ctx, AssignmentCandidate{
		CategoryID:    category.ID,
		SubcategoryID: req.SubcategoryID,
		Department:    department,
		Priority:      priority,
		AssigneeID:    req.AssigneeID,
	})
	if err != nil {
		return nil, NewBusinessError("ASSIGNMENT_FAILED", "Failed to resolve ticket routing", err)
	}
	f.metrics.RuleMatched(routing.MatchedRule != nil)

	// A rule may point at a user that has since been removed
	if req.AssigneeID == nil && routing.AssigneeID != nil {
		if err := f.checkAssignee(ctx, *routing.AssigneeID); err != nil {
			log.Printf("ticket intake: rule %d assignee %d unusable: %v", routing.MatchedRule.ID, *routing.AssigneeID, err)
			routing.AssigneeID = nil
		}
	}

	formData, err := encodeFormData(req.FormData)
	if err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Form data must be a JSON object", err)
	}

	now := f.now()
	reportedAt := now
	if req.ReportedAt != nil {
		reportedAt = req.ReportedAt.UTC()
	}

	analysis := f.analyze(ctx, req, category.Name)

	build := func() *models.Ticket {
		t := &models.Ticket{
			CategoryID:       category.ID,
			SubcategoryID:    req.SubcategoryID,
			LocationID:       req.LocationID,
			ReporterID:       reporter.ID,
			AssigneeID:       routing.AssigneeID,
			Title:            strings.TrimSpace(req.Title),
			Description:      req.Description,
			IncidentAt:       utils.TimeToUTCPtr(req.IncidentAt),
			ReportedAt:       reportedAt,
			ClientName:       strings.TrimSpace(req.ClientName),
			ClientEmail:      req.ClientEmail,
			ClientPhone:      req.ClientPhone,
			ClientStatus:     req.ClientStatus,
			ClientMood:       req.ClientMood,
			Status:           models.TicketStatusOpen,
			Priority:         *routing.Priority,
			Department:       routing.Department,
			SLADeadline:      ComputeSLADeadline(*routing.Priority, now),
			AITags:           []string{},
			FormData:         formData,
			IsEscalated:      utils.ToPtr(false),
			RequiresFollowUp: utils.ToPtr(utils.IsTrue(req.RequiresFollowUp)),
			FollowUpDate:     utils.TimeToUTCPtr(req.FollowUpDate),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if analysis != nil {
			t.AITags = analysis.Tags
			t.Sentiment = utils.ToPtr(analysis.Sentiment)
		}
		return t
	}

	ticket, err := f.insertWithNumber(ctx, build, now, func(txCtx context.Context, t *models.Ticket) error {
		return f.afterInsert(txCtx, t, req.Attachments)
	})
	if err != nil {
		return nil, err
	}

	f.metrics.TicketCreated(string(ticket.Priority), deref(departmentString(ticket.Department), "unassigned"))
	f.publish(ctx, services.NewTicketEvent(services.EventTicketCreated, ticket.ID, ticket.TicketNumber, &reporter.ID, ToTicketDTO(*ticket)))

	if metadata != nil {
		log.Printf("ticket %s created by user %d (request %s)", ticket.TicketNumber, reporter.ID, metadata.RequestID)
	}

	var ruleID *uint
	if routing.MatchedRule != nil {
		ruleID = &routing.MatchedRule.ID
	}
	return &dto.CreateTicketResponse{
		Message:       "Ticket created successfully",
		Ticket:        ToTicketDTO(*ticket),
		MatchedRuleID: ruleID,
	}, nil
}

// insertWithNumber allocates the next ticket number and inserts the ticket in
// one transaction. The first attempt uses count+1. After a unique violation the
// sequence moves past the highest stored suffix, since deleted tickets leave the
// count behind the numbers already issued.
func (f *TicketFlowImpl) insertWithNumber(
	ctx context.Context,
	build func() *models.Ticket,
	now time.Time,
	after func(context.Context, *models.Ticket) error,
) (*models.Ticket, error) {
	retries := f.cfg.NumberMaxRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		ticket := build()
		err := f.tx.WithinTx(ctx, func(txCtx context.Context) error {
			seq, err := f.nextSequence(txCtx, attempt)
			if err != nil {
				return err
			}
			ticket.TicketNumber = FormatTicketNumber(f.cfg.NumberPrefix, now, seq)
			if err := f.repos.Tickets.Save(txCtx, ticket); err != nil {
				return err
			}
			return after(txCtx, ticket)
		})
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewBusinessError("CREATE_TICKET_FAILED", "Failed to create ticket", err)
		}
		f.metrics.TicketNumberCollision()
		log.Printf("ticket number %s collided (attempt %d/%d)", ticket.TicketNumber, attempt+1, retries+1)
		lastErr = err
	}
	return nil, NewBusinessError("TICKET_NUMBER_EXHAUSTED", "Could not allocate a ticket number, try again", errors.Join(ErrTicketNumberExhausted, lastErr))
}

// nextSequence returns the zero-based sequence FormatTicketNumber turns into a suffix
func (f *TicketFlowImpl) nextSequence(ctx context.Context, attempt int) (int64, error) {
	count, err := f.repos.Tickets.Count(ctx, models.TicketFilter{})
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	if attempt == 0 {
		return count, nil
	}
	highest, err := f.repos.Tickets.MaxTicketSequence(ctx)
	if err != nil {
		return 0, fmt.Errorf("max ticket sequence: %w", err)
	}
	return max(count, highest) + int64(attempt-1), nil
}

func (f *TicketFlowImpl) afterInsert(ctx context.Context, t *models.Ticket, attachments []dto.AttachmentInput) error {
	if err := f.repos.History.Save(ctx, &models.TicketHistory{
		TicketID: t.ID,
		UserID:   &t.ReporterID,
		Action:   models.HistoryActionTicketCreated,
		NewValue: utils.ToPtr(t.TicketNumber),
	}); err != nil {
		return err
	}

	if len(attachments) > 0 {
		rows := make([]*models.TicketAttachment, 0, len(attachments))
		for _, a := range attachments {
			rows = append(rows, &models.TicketAttachment{
				TicketID:   t.ID,
				UploaderID: t.ReporterID,
				FileName:   a.FileName,
				FileURL:    a.FileURL,
				MimeType:   a.MimeType,
				SizeBytes:  a.SizeBytes,
			})
		}
		if err := f.repos.Attachments.SaveBatch(ctx, rows); err != nil {
			return err
		}
	}

	if t.AssigneeID != nil {
		return f.notify(ctx, *t.AssigneeID, t, models.NotificationTypeTicketAssigned,
			"New ticket assigned",
			fmt.Sprintf("Ticket %s: %s", t.TicketNumber, t.Title))
	}
	return nil
}

func (f *TicketFlowImpl) ListTickets(ctx context.Context, req *dto.ListTicketsRequest) (*dto.ListTicketsResponse, error) {
	filter, err := ticketFilterFromRequest(req)
	if err != nil {
		return nil, err
	}
	page, pageSize := normalizePage(req.Page, req.PageSize)

	total, err := f.repos.Tickets.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_TICKETS_FAILED", "Failed to count tickets", err)
	}
	rows, err := f.repos.Tickets.ByFilter(ctx, filter, "created_at DESC, id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_TICKETS_FAILED", "Failed to list tickets", err)
	}

	out := make([]dto.TicketDTO, 0, len(rows))
	for _, t := range rows {
		out = append(out, ToTicketDTO(*t))
	}
	return &dto.ListTicketsResponse{
		Message:    "Tickets retrieved",
		Tickets:    out,
		Pagination: dto.NewPaginationInfo(total, page, pageSize),
	}, nil
}

func (f *TicketFlowImpl) GetTicket(ctx context.Context, ticketID uint) (*dto.TicketDetailResponse, error) {
	ticket, err := f.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	history, err := f.repos.History.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, NewBusinessError("GET_TICKET_FAILED", "Failed to load ticket history", err)
	}
	attachments, err := f.repos.Attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, NewBusinessError("GET_TICKET_FAILED", "Failed to load ticket attachments", err)
	}

	resp := &dto.TicketDetailResponse{
		Message:     "Ticket retrieved",
		Ticket:      ToTicketDTO(*ticket),
		History:     make([]dto.TicketHistoryDTO, 0, len(history)),
		Attachments: make([]dto.TicketAttachmentDTO, 0, len(attachments)),
	}
	for _, h := range history {
		resp.History = append(resp.History, toHistoryDTO(*h))
	}
	for _, a := range attachments {
		resp.Attachments = append(resp.Attachments, toAttachmentDTO(*a))
	}
	return resp, nil
}

func (f *TicketFlowImpl) UpdateStatus(ctx context.Context, req *dto.UpdateTicketStatusRequest) (*dto.UpdateTicketResponse, error) {
	status := models.TicketStatus(strings.TrimSpace(req.Status))
	if !status.IsValid() {
		return nil, NewBusinessError("INVALID_STATUS", "Unknown ticket status", ErrInvalidStatus)
	}
	reason := strings.TrimSpace(utils.DerefString(req.Reason))
	if status == models.TicketStatusEscalated && reason == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Escalation requires a reason", ErrEscalationReasonRequired)
	}

	ticket, err := f.loadTicket(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == status {
		return &dto.UpdateTicketResponse{Message: "Status unchanged", Ticket: ToTicketDTO(*ticket)}, nil
	}

	now := f.now()
	old := ticket.Status
	columns := map[string]any{"status": status, "updated_at": now}
	switch status {
	case models.TicketStatusResolved:
		columns["resolved_at"] = now
	case models.TicketStatusClosed:
		columns["closed_at"] = now
		if ticket.ResolvedAt == nil {
			columns["resolved_at"] = now
		}
	case models.TicketStatusEscalated:
		columns["is_escalated"] = true
		columns["escalation_reason"] = reason
	}

	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := f.repos.Tickets.UpdateColumns(txCtx, ticket.ID, columns); err != nil {
			return err
		}
		action := models.HistoryActionStatusChanged
		var note *string
		if status == models.TicketStatusEscalated {
			action = models.HistoryActionEscalated
			note = &reason
		} else if reason != "" {
			note = &reason
		}
		if err := f.recordChange(txCtx, ticket.ID, req.ActorID, action, "status", string(old), string(status), note); err != nil {
			return err
		}
		if ticket.AssigneeID != nil && *ticket.AssigneeID != req.ActorID {
			return f.notify(txCtx, *ticket.AssigneeID, ticket, models.NotificationTypeStatusChanged,
				"Ticket status changed",
				fmt.Sprintf("Ticket %s moved from %s to %s", ticket.TicketNumber, old, status))
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_TICKET_FAILED", "Failed to update ticket status", err)
	}

	updated, err := f.loadTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, services.NewTicketEvent(services.EventTicketStatusChanged, updated.ID, updated.TicketNumber, &req.ActorID,
		map[string]string{"from": string(old), "to": string(status)}))

	return &dto.UpdateTicketResponse{Message: "Status updated", Ticket: ToTicketDTO(*updated)}, nil
}

// UpdatePriority keeps the SLA deadline stamped at creation
func (f *TicketFlowImpl) UpdatePriority(ctx context.Context, req *dto.UpdateTicketPriorityRequest) (*dto.UpdateTicketResponse, error) {
	priority := models.TicketPriority(strings.TrimSpace(req.Priority))
	if !priority.IsValid() {
		return nil, NewBusinessError("INVALID_PRIORITY", "Unknown priority", ErrInvalidPriority)
	}

	ticket, err := f.loadTicket(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.Priority == priority {
		return &dto.UpdateTicketResponse{Message: "Priority unchanged", Ticket: ToTicketDTO(*ticket)}, nil
	}

	old := ticket.Priority
	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := f.repos.Tickets.UpdateColumns(txCtx, ticket.ID, map[string]any{"priority": priority, "updated_at": f.now()}); err != nil {
			return err
		}
		return f.recordChange(txCtx, ticket.ID, req.ActorID, models.HistoryActionPriorityChanged, "priority", string(old), string(priority), nil)
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_TICKET_FAILED", "Failed to update ticket priority", err)
	}

	updated, err := f.loadTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, services.NewTicketEvent(services.EventTicketPriorityChanged, updated.ID, updated.TicketNumber, &req.ActorID,
		map[string]string{"from": string(old), "to": string(priority)}))

	return &dto.UpdateTicketResponse{Message: "Priority updated", Ticket: ToTicketDTO(*updated)}, nil
}

func (f *TicketFlowImpl) UpdateAssignee(ctx context.Context, req *dto.UpdateTicketAssigneeRequest) (*dto.UpdateTicketResponse, error) {
	ticket, err := f.loadTicket(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if sameUint(ticket.AssigneeID, req.AssigneeID) {
		return &dto.UpdateTicketResponse{Message: "Assignee unchanged", Ticket: ToTicketDTO(*ticket)}, nil
	}
	if req.AssigneeID != nil {
		if err := f.checkAssignee(ctx, *req.AssigneeID); err != nil {
			return nil, err
		}
	}

	old := ticket.AssigneeID
	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := f.repos.Tickets.UpdateColumns(txCtx, ticket.ID, map[string]any{"assignee_id": req.AssigneeID, "updated_at": f.now()}); err != nil {
			return err
		}
		if err := f.recordChange(txCtx, ticket.ID, req.ActorID, models.HistoryActionAssigneeChanged, "assignee_id", uintString(old), uintString(req.AssigneeID), nil); err != nil {
			return err
		}
		if req.AssigneeID != nil && *req.AssigneeID != req.ActorID {
			return f.notify(txCtx, *req.AssigneeID, ticket, models.NotificationTypeTicketAssigned,
				"Ticket assigned to you",
				fmt.Sprintf("Ticket %s: %s", ticket.TicketNumber, ticket.Title))
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_TICKET_FAILED", "Failed to update ticket assignee", err)
	}

	updated, err := f.loadTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, services.NewTicketEvent(services.EventTicketAssigneeChanged, updated.ID, updated.TicketNumber, &req.ActorID,
		map[string]*uint{"from": old, "to": req.AssigneeID}))

	return &dto.UpdateTicketResponse{Message: "Assignee updated", Ticket: ToTicketDTO(*updated)}, nil
}

// DeleteTicket removes the ticket with its comments, history, attachments and notifications
func (f *TicketFlowImpl) DeleteTicket(ctx context.Context, req *dto.DeleteTicketRequest) (*dto.DeleteTicketResponse, error) {
	ticket, err := f.loadTicket(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if err := f.repos.Tickets.DeleteCascade(ctx, ticket.ID); err != nil {
		return nil, NewBusinessError("DELETE_TICKET_FAILED", "Failed to delete ticket", err)
	}

	log.Printf("ticket %s deleted by user %d", ticket.TicketNumber, req.ActorID)
	f.publish(ctx, services.NewTicketEvent(services.EventTicketDeleted, ticket.ID, ticket.TicketNumber, &req.ActorID, nil))

	return &dto.DeleteTicketResponse{Message: "Ticket deleted", TicketNumber: ticket.TicketNumber}, nil
}

func (f *TicketFlowImpl) AddComment(ctx context.Context, req *dto.AddCommentRequest) (*dto.AddCommentResponse, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Comment body is required", ErrCommentBodyRequired)
	}
	ticket, err := f.loadTicket(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}

	comment := &models.TicketComment{
		TicketID:   ticket.ID,
		AuthorID:   req.AuthorID,
		Body:       body,
		IsInternal: utils.ToPtr(req.IsInternal),
		CreatedAt:  f.now(),
	}
	err = f.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := f.repos.Comments.Save(txCtx, comment); err != nil {
			return err
		}
		columns := map[string]any{"updated_at": comment.CreatedAt}
		if ticket.FirstResponseAt == nil && req.AuthorID != ticket.ReporterID {
			columns["first_response_at"] = comment.CreatedAt
		}
		if err := f.repos.Tickets.UpdateColumns(txCtx, ticket.ID, columns); err != nil {
			return err
		}
		if err := f.repos.History.Save(txCtx, &models.TicketHistory{
			TicketID: ticket.ID,
			UserID:   &req.AuthorID,
			Action:   models.HistoryActionCommentAdded,
			Note:     utils.ToPtr(truncate(body, 200)),
		}); err != nil {
			return err
		}
		for _, uid := range commentRecipients(ticket, req.AuthorID) {
			if err := f.notify(txCtx, uid, ticket, models.NotificationTypeNewComment,
				"New comment",
				fmt.Sprintf("New comment on ticket %s", ticket.TicketNumber)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("ADD_COMMENT_FAILED", "Failed to add comment", err)
	}

	return &dto.AddCommentResponse{Message: "Comment added", Comment: toCommentDTO(*comment)}, nil
}

func (f *TicketFlowImpl) ListComments(ctx context.Context, ticketID uint) (*dto.ListCommentsResponse, error) {
	ticket, err := f.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	rows, err := f.repos.Comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, NewBusinessError("LIST_COMMENTS_FAILED", "Failed to list comments", err)
	}
	out := make([]dto.CommentDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, toCommentDTO(*c))
	}
	return &dto.ListCommentsResponse{Message: "Comments retrieved", TicketID: ticket.ID, Comments: out}, nil
}

func (f *TicketFlowImpl) loadTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	ticket, err := f.repos.Tickets.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_TICKET_FAILED", "Failed to load ticket", err)
	}
	if ticket == nil {
		return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", ErrTicketNotFound)
	}
	return ticket, nil
}

func (f *TicketFlowImpl) loadActiveCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := f.repos.Categories.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("CREATE_TICKET_FAILED", "Failed to load category", err)
	}
	if category == nil || !utils.IsTrue(category.IsActive) {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}
	return category, nil
}

func (f *TicketFlowImpl) checkSubcategory(ctx context.Context, categoryID, subcategoryID uint) error {
	sub, err := f.repos.Subcategories.ByID(ctx, subcategoryID)
	if err != nil {
		return NewBusinessError("CREATE_TICKET_FAILED", "Failed to load subcategory", err)
	}
	if sub == nil || !utils.IsTrue(sub.IsActive) {
		return NewBusinessError("SUBCATEGORY_NOT_FOUND", "Subcategory not found", ErrSubcategoryNotFound)
	}
	if sub.CategoryID != categoryID {
		return NewBusinessError("VALIDATION_ERROR", "Subcategory does not belong to the category", ErrSubcategoryCategoryMismatch)
	}
	return nil
}

func (f *TicketFlowImpl) checkAssignee(ctx context.Context, userID uint) error {
	user, err := f.repos.Users.ByID(ctx, userID)
	if err != nil {
		return NewBusinessError("ASSIGNEE_LOOKUP_FAILED", "Failed to load assignee", err)
	}
	if user == nil || !utils.IsTrue(user.IsActive) {
		return NewBusinessError("ASSIGNEE_NOT_FOUND", "Assignee not found", ErrAssigneeNotFound)
	}
	return nil
}

func (f *TicketFlowImpl) analyze(ctx context.Context, req *dto.CreateTicketRequest, categoryName string) *services.TicketAnalysis {
	analysis, err := f.analyzer.Analyze(ctx, services.TicketAnalysisInput{
		Title:       req.Title,
		Description: req.Description,
		ClientMood:  utils.DerefString(req.ClientMood),
		Category:    categoryName,
		FormData:    req.FormData,
	})
	if err != nil {
		log.Printf("ticket analysis skipped: %v", err)
		return nil
	}
	return analysis
}

func (f *TicketFlowImpl) recordChange(ctx context.Context, ticketID, actorID uint, action, field, oldValue, newValue string, note *string) error {
	return f.repos.History.Save(ctx, &models.TicketHistory{
		TicketID:  ticketID,
		UserID:    &actorID,
		Action:    action,
		FieldName: &field,
		OldValue:  &oldValue,
		NewValue:  &newValue,
		Note:      note,
	})
}

func (f *TicketFlowImpl) notify(ctx context.Context, userID uint, t *models.Ticket, kind, title, message string) error {
	return f.repos.Notifications.Save(ctx, &models.Notification{
		UserID:   userID,
		TicketID: &t.ID,
		Type:     kind,
		Title:    title,
		Message:  message,
		IsRead:   utils.ToPtr(false),
	})
}

// publish is best effort; the ticket is already committed
func (f *TicketFlowImpl) publish(ctx context.Context, event services.TicketEvent) {
	if err := f.publisher.Publish(ctx, event); err != nil {
		log.Printf("failed to publish %s for ticket %s: %v", event.EventType, event.TicketNumber, err)
	}
}

func ticketFilterFromRequest(req *dto.ListTicketsRequest) (models.TicketFilter, error) {
	filter := models.TicketFilter{
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		AssigneeID:    req.AssigneeID,
		ReporterID:    req.ReporterID,
		IsEscalated:   req.IsEscalated,
	}
	if req.Status != nil && *req.Status != "" {
		s := models.TicketStatus(*req.Status)
		if !s.IsValid() {
			return filter, NewBusinessError("INVALID_STATUS", "Unknown ticket status", ErrInvalidStatus)
		}
		filter.Status = &s
	}
	p, err := parsePriority(req.Priority)
	if err != nil {
		return filter, NewBusinessError("INVALID_PRIORITY", "Unknown priority", err)
	}
	filter.Priority = p
	d, err := parseDepartment(req.Department)
	if err != nil {
		return filter, NewBusinessError("INVALID_DEPARTMENT", "Unknown department", err)
	}
	filter.Department = d
	return filter, nil
}

func encodeFormData(data map[string]any) (models.JSONData, error) {
	if data == nil {
		return models.JSONData("{}"), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return models.JSONData(raw), nil
}

// commentRecipients are the reporter and assignee, minus the author
func commentRecipients(t *models.Ticket, authorID uint) []uint {
	out := make([]uint, 0, 2)
	if t.ReporterID != authorID {
		out = append(out, t.ReporterID)
	}
	if t.AssigneeID != nil && *t.AssigneeID != authorID && *t.AssigneeID != t.ReporterID {
		out = append(out, *t.AssigneeID)
	}
	return out
}

func sameUint(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func uintString(v *uint) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
