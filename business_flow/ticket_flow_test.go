package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/app/services"
	"github.com/p57/feedback-hub/config"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)

type fakeAnalyzer struct {
	analysis *services.TicketAnalysis
	err      error
}

func (a fakeAnalyzer) Analyze(context.Context, services.TicketAnalysisInput) (*services.TicketAnalysis, error) {
	return a.analysis, a.err
}

type capturePublisher struct {
	events []services.TicketEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e services.TicketEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type ticketHarness struct {
	*world
	flow      *TicketFlowImpl
	publisher *capturePublisher
	metrics   *recordingMetrics
}

func newTicketHarness(t *testing.T, analyzer services.TicketAnalyzer) *ticketHarness {
	t.Helper()
	w := newWorld()
	pub := &capturePublisher{}
	m := &recordingMetrics{}
	resolver := NewAssignmentResolver(w.rules, w.categories, w.subcategories)
	flow := NewTicketFlow(w.ticketRepos(), w.tx, resolver, analyzer, pub, m, config.TicketConfig{
		NumberPrefix:     "P57",
		NumberMaxRetries: 2,
	}).(*TicketFlowImpl)
	flow.now = func() time.Time { return fixedNow }
	return &ticketHarness{world: w, flow: flow, publisher: pub, metrics: m}
}

func (h *ticketHarness) createRequest(reporter *models.User, category *models.Category) *dto.CreateTicketRequest {
	return &dto.CreateTicketRequest{
		ReporterID: reporter.ID,
		CategoryID: category.ID,
		Title:      "Squat rack cable frayed",
		ClientName: "Dana Member",
		FormData:   map[string]any{"equipment": "Cable machine"},
	}
}

func TestCreateTicket_FacilitiesScenario(t *testing.T) {
	h := newTicketHarness(t, nil)
	facilities := models.DepartmentFacilities
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("Facilities & Equipment", &facilities)
	sub := h.addSubcategory(category.ID, "Studio Repair & Maintenance")
	h.tickets.countOffset = 122

	req := h.createRequest(reporter, category)
	req.SubcategoryID = &sub.ID

	resp, err := h.flow.CreateTicket(context.Background(), req, NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	ticket := resp.Ticket
	assert.Equal(t, "P57-202504-00123", ticket.TicketNumber)
	require.NotNil(t, ticket.Department)
	assert.Equal(t, "facilities", *ticket.Department)
	assert.Equal(t, "medium", ticket.Priority)
	assert.Equal(t, "open", ticket.Status)
	require.NotNil(t, ticket.SLADeadline)
	assert.Equal(t, fixedNow.Add(48*time.Hour).Format(time.RFC3339), *ticket.SLADeadline)
	assert.Nil(t, ticket.AssigneeID)
	assert.Nil(t, resp.MatchedRuleID)
	assert.Equal(t, map[string]any{"equipment": "Cable machine"}, ticket.FormData)

	history, _ := h.history.ListByTicket(context.Background(), ticket.ID)
	require.Len(t, history, 1)
	assert.Equal(t, models.HistoryActionTicketCreated, history[0].Action)

	assert.Equal(t, []string{services.EventTicketCreated}, h.publisher.types())
	assert.Equal(t, []bool{false}, h.metrics.ruleMatches)
	assert.Equal(t, []string{"medium/facilities"}, h.metrics.created)
}

func TestCreateTicket_RuleRouting(t *testing.T) {
	h := newTicketHarness(t, nil)
	reporter := h.addUser(models.UserRoleStaff)
	tech := h.addUser(models.UserRoleStaff)
	category := h.addCategory("Facilities & Equipment", nil)

	ops := models.DepartmentOperations
	high := models.TicketPriorityHigh
	require.NoError(t, h.rules.Save(context.Background(), &models.AssignmentRule{
		Name:           "Equipment to ops",
		CategoryID:     &category.ID,
		Department:     &ops,
		Priority:       &high,
		AssignToUserID: &tech.ID,
		IsActive:       utils.ToPtr(true),
	}))

	resp, err := h.flow.CreateTicket(context.Background(), h.createRequest(reporter, category), nil)
	require.NoError(t, err)

	assert.Equal(t, "operations", *resp.Ticket.Department)
	// priority defaults to medium before routing, so the rule's priority does not apply
	assert.Equal(t, "medium", resp.Ticket.Priority)
	require.NotNil(t, resp.Ticket.AssigneeID)
	assert.Equal(t, tech.ID, *resp.Ticket.AssigneeID)
	require.NotNil(t, resp.MatchedRuleID)

	inbox, _ := h.notifications.ListByUser(context.Background(), tech.ID, true, 10, 0)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationTypeTicketAssigned, inbox[0].Type)
}

func TestCreateTicket_CallerValuesWin(t *testing.T) {
	h := newTicketHarness(t, nil)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("Member Experience", nil)

	ops := models.DepartmentOperations
	require.NoError(t, h.rules.Save(context.Background(), &models.AssignmentRule{
		Name: "catch all", Department: &ops, IsActive: utils.ToPtr(true),
	}))

	req := h.createRequest(reporter, category)
	req.Department = utils.ToPtr("front_desk")
	req.Priority = utils.ToPtr("critical")

	resp, err := h.flow.CreateTicket(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "front_desk", *resp.Ticket.Department)
	assert.Equal(t, "critical", resp.Ticket.Priority)
	assert.Equal(t, fixedNow.Add(2*time.Hour).Format(time.RFC3339), *resp.Ticket.SLADeadline)
}

func TestCreateTicket_LowPriorityHasNoDeadline(t *testing.T) {
	h := newTicketHarness(t, nil)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)

	req := h.createRequest(reporter, category)
	req.Priority = utils.ToPtr("low")

	resp, err := h.flow.CreateTicket(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Ticket.SLADeadline)
	assert.Nil(t, resp.Ticket.Department)
}

func TestCreateTicket_Rejections(t *testing.T) {
	h := newTicketHarness(t, nil)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)
	other := h.addCategory("Other", nil)
	foreignSub := h.addSubcategory(other.ID, "Elsewhere")
	closed := h.addCategory("Retired", nil)
	closed.IsActive = utils.ToPtr(false)
	require.NoError(t, h.categories.Update(context.Background(), closed))

	tests := []struct {
		name  string
		edit  func(*dto.CreateTicketRequest)
		check func(error) bool
	}{
		{"blank title", func(r *dto.CreateTicketRequest) { r.Title = "  " }, func(err error) bool { return errors.Is(err, ErrTitleRequired) }},
		{"blank client", func(r *dto.CreateTicketRequest) { r.ClientName = "" }, func(err error) bool { return errors.Is(err, ErrClientNameRequired) }},
		{"unknown reporter", func(r *dto.CreateTicketRequest) { r.ReporterID = 999 }, IsUserNotFound},
		{"unknown category", func(r *dto.CreateTicketRequest) { r.CategoryID = 999 }, IsCategoryNotFound},
		{"inactive category", func(r *dto.CreateTicketRequest) { r.CategoryID = closed.ID }, IsCategoryNotFound},
		{"foreign subcategory", func(r *dto.CreateTicketRequest) { r.SubcategoryID = &foreignSub.ID }, func(err error) bool {
			return errors.Is(err, ErrSubcategoryCategoryMismatch)
		}},
		{"bad priority", func(r *dto.CreateTicketRequest) { r.Priority = utils.ToPtr("urgent") }, func(err error) bool { return errors.Is(err, ErrInvalidPriority) }},
		{"bad department", func(r *dto.CreateTicketRequest) { r.Department = utils.ToPtr("hr") }, func(err error) bool { return errors.Is(err, ErrInvalidDepartment) }},
		{"missing assignee", func(r *dto.CreateTicketRequest) { r.AssigneeID = utils.ToPtr(uint(999)) }, func(err error) bool { return errors.Is(err, ErrAssigneeNotFound) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := h.createRequest(reporter, category)
			tt.edit(req)
			_, err := h.flow.CreateTicket(context.Background(), req, nil)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
	assert.Zero(t, h.tickets.saves)
}

func TestCreateTicket_NumberCollisionRetries(t *testing.T) {
	h := newTicketHarness(t, nil)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)
	h.tickets.saveErrs = []error{gorm.ErrDuplicatedKey}

	resp, err := h.flow.CreateTicket(context.Background(), h.createRequest(reporter, category), nil)
	require.NoError(t, err)
	assert.Equal(t, "P57-202504-00001", resp.Ticket.TicketNumber)
	assert.Equal(t, 2, h.tickets.saves)
	assert.Equal(t, 1, h.metrics.collisions)
}

func TestCreateTicket_NumberCollisionExhausted(t *testing.T) {
	h := newTicketHarness(t, nil)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)
	h.tickets.saveErrs = []error{gorm.ErrDuplicatedKey, gorm.ErrDuplicatedKey, gorm.ErrDuplicatedKey}

	_, err := h.flow.CreateTicket(context.Background(), h.createRequest(reporter, category), nil)
	require.Error(t, err)
	assert.True(t, IsTicketNumberExhausted(err))
	assert.Equal(t, 3, h.tickets.saves)
	assert.Empty(t, h.publisher.events)
}

func TestCreateTicket_NumberSkipsPastDeletedTickets(t *testing.T) {
	h := newTicketHarness(t, nil)
	admin := h.addUser(models.UserRoleAdmin)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)
	ctx := context.Background()

	first, err := h.flow.CreateTicket(ctx, h.createRequest(reporter, category), nil)
	require.NoError(t, err)
	second, err := h.flow.CreateTicket(ctx, h.createRequest(reporter, category), nil)
	require.NoError(t, err)
	assert.Equal(t, "P57-202504-00002", second.Ticket.TicketNumber)

	_, err = h.flow.DeleteTicket(ctx, &dto.DeleteTicketRequest{TicketID: first.Ticket.ID, ActorID: admin.ID})
	require.NoError(t, err)

	third, err := h.flow.CreateTicket(ctx, h.createRequest(reporter, category), nil)
	require.NoError(t, err)
	assert.Equal(t, "P57-202504-00003", third.Ticket.TicketNumber)
	assert.Equal(t, 1, h.metrics.collisions)

	fourth, err := h.flow.CreateTicket(ctx, h.createRequest(reporter, category), nil)
	require.NoError(t, err)
	assert.Equal(t, "P57-202504-00004", fourth.Ticket.TicketNumber)
}

func TestCreateTicket_OtherSaveErrorsDoNotRetry(t *testing.T) {
	h := newTicketHarness(t, nil)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)
	h.tickets.saveErrs = []error{errors.New("connection reset")}

	_, err := h.flow.CreateTicket(context.Background(), h.createRequest(reporter, category), nil)
	require.Error(t, err)
	assert.False(t, IsTicketNumberExhausted(err))
	assert.Equal(t, 1, h.tickets.saves)
}

func TestCreateTicket_AnalysisIsBestEffort(t *testing.T) {
	t.Run("tags stored", func(t *testing.T) {
		h := newTicketHarness(t, fakeAnalyzer{analysis: &services.TicketAnalysis{Tags: []string{"equipment"}, Sentiment: "negative"}})
		reporter := h.addUser(models.UserRoleStaff)
		category := h.addCategory("General", nil)

		resp, err := h.flow.CreateTicket(context.Background(), h.createRequest(reporter, category), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"equipment"}, resp.Ticket.AITags)
		assert.Equal(t, "negative", *resp.Ticket.Sentiment)
	})

	t.Run("failure ignored", func(t *testing.T) {
		h := newTicketHarness(t, fakeAnalyzer{err: errors.New("timeout")})
		reporter := h.addUser(models.UserRoleStaff)
		category := h.addCategory("General", nil)

		resp, err := h.flow.CreateTicket(context.Background(), h.createRequest(reporter, category), nil)
		require.NoError(t, err)
		assert.Empty(t, resp.Ticket.AITags)
		assert.Nil(t, resp.Ticket.Sentiment)
	})
}

func (h *ticketHarness) seedTicket(t *testing.T, priority string, assignee *models.User) (*models.User, dto.TicketDTO) {
	t.Helper()
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)
	req := h.createRequest(reporter, category)
	req.Priority = utils.ToPtr(priority)
	if assignee != nil {
		req.AssigneeID = &assignee.ID
	}
	resp, err := h.flow.CreateTicket(context.Background(), req, nil)
	require.NoError(t, err)
	return reporter, resp.Ticket
}

func TestUpdateStatus(t *testing.T) {
	t.Run("resolved stamps resolved_at", func(t *testing.T) {
		h := newTicketHarness(t, nil)
		manager := h.addUser(models.UserRoleManager)
		_, ticket := h.seedTicket(t, "high", nil)

		resp, err := h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: ticket.ID, ActorID: manager.ID, Status: "resolved"})
		require.NoError(t, err)
		assert.Equal(t, "resolved", resp.Ticket.Status)
		require.NotNil(t, resp.Ticket.ResolvedAt)
		assert.Nil(t, resp.Ticket.ClosedAt)
		assert.Contains(t, h.publisher.types(), services.EventTicketStatusChanged)
	})

	t.Run("closed stamps both", func(t *testing.T) {
		h := newTicketHarness(t, nil)
		manager := h.addUser(models.UserRoleManager)
		_, ticket := h.seedTicket(t, "high", nil)

		resp, err := h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: ticket.ID, ActorID: manager.ID, Status: "closed"})
		require.NoError(t, err)
		assert.NotNil(t, resp.Ticket.ResolvedAt)
		assert.NotNil(t, resp.Ticket.ClosedAt)
	})

	t.Run("escalation needs a reason", func(t *testing.T) {
		h := newTicketHarness(t, nil)
		manager := h.addUser(models.UserRoleManager)
		_, ticket := h.seedTicket(t, "high", nil)

		_, err := h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: ticket.ID, ActorID: manager.ID, Status: "escalated"})
		assert.ErrorIs(t, err, ErrEscalationReasonRequired)

		resp, err := h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{
			TicketID: ticket.ID, ActorID: manager.ID, Status: "escalated", Reason: utils.ToPtr("Member threatened to cancel"),
		})
		require.NoError(t, err)
		assert.True(t, resp.Ticket.IsEscalated)
		assert.Equal(t, "Member threatened to cancel", *resp.Ticket.EscalationReason)

		history, _ := h.history.ListByTicket(context.Background(), ticket.ID)
		assert.Equal(t, models.HistoryActionEscalated, history[len(history)-1].Action)
	})

	t.Run("assignee notified unless acting", func(t *testing.T) {
		h := newTicketHarness(t, nil)
		tech := h.addUser(models.UserRoleStaff)
		manager := h.addUser(models.UserRoleManager)
		_, ticket := h.seedTicket(t, "medium", tech)

		_, err := h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: ticket.ID, ActorID: manager.ID, Status: "in_progress"})
		require.NoError(t, err)
		_, err = h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: ticket.ID, ActorID: tech.ID, Status: "pending"})
		require.NoError(t, err)

		n, _ := h.notifications.Count(context.Background(), models.NotificationFilter{UserID: &tech.ID})
		// one for the assignment, one for the manager's status change
		assert.Equal(t, int64(2), n)
	})

	t.Run("unchanged and invalid", func(t *testing.T) {
		h := newTicketHarness(t, nil)
		_, ticket := h.seedTicket(t, "medium", nil)

		resp, err := h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: ticket.ID, Status: "open"})
		require.NoError(t, err)
		assert.Equal(t, "Status unchanged", resp.Message)

		_, err = h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: ticket.ID, Status: "archived"})
		assert.ErrorIs(t, err, ErrInvalidStatus)

		_, err = h.flow.UpdateStatus(context.Background(), &dto.UpdateTicketStatusRequest{TicketID: 999, Status: "closed"})
		assert.True(t, IsTicketNotFound(err))
	})
}

func TestUpdatePriority_KeepsDeadline(t *testing.T) {
	h := newTicketHarness(t, nil)
	manager := h.addUser(models.UserRoleManager)
	_, ticket := h.seedTicket(t, "medium", nil)

	resp, err := h.flow.UpdatePriority(context.Background(), &dto.UpdateTicketPriorityRequest{TicketID: ticket.ID, ActorID: manager.ID, Priority: "critical"})
	require.NoError(t, err)
	assert.Equal(t, "critical", resp.Ticket.Priority)
	assert.Equal(t, ticket.SLADeadline, resp.Ticket.SLADeadline)

	_, err = h.flow.UpdatePriority(context.Background(), &dto.UpdateTicketPriorityRequest{TicketID: ticket.ID, Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestUpdateAssignee(t *testing.T) {
	h := newTicketHarness(t, nil)
	manager := h.addUser(models.UserRoleManager)
	tech := h.addUser(models.UserRoleStaff)
	_, ticket := h.seedTicket(t, "medium", nil)

	resp, err := h.flow.UpdateAssignee(context.Background(), &dto.UpdateTicketAssigneeRequest{TicketID: ticket.ID, ActorID: manager.ID, AssigneeID: &tech.ID})
	require.NoError(t, err)
	assert.Equal(t, tech.ID, *resp.Ticket.AssigneeID)

	inbox, _ := h.notifications.ListByUser(context.Background(), tech.ID, false, 10, 0)
	assert.Len(t, inbox, 1)

	resp, err = h.flow.UpdateAssignee(context.Background(), &dto.UpdateTicketAssigneeRequest{TicketID: ticket.ID, ActorID: manager.ID})
	require.NoError(t, err)
	assert.Nil(t, resp.Ticket.AssigneeID)

	_, err = h.flow.UpdateAssignee(context.Background(), &dto.UpdateTicketAssigneeRequest{TicketID: ticket.ID, AssigneeID: utils.ToPtr(uint(999))})
	assert.ErrorIs(t, err, ErrAssigneeNotFound)
}

func TestAddComment(t *testing.T) {
	h := newTicketHarness(t, nil)
	tech := h.addUser(models.UserRoleStaff)
	reporter, ticket := h.seedTicket(t, "medium", tech)

	_, err := h.flow.AddComment(context.Background(), &dto.AddCommentRequest{TicketID: ticket.ID, AuthorID: reporter.ID, Body: "Any update?"})
	require.NoError(t, err)
	stored, _ := h.tickets.ByID(context.Background(), ticket.ID)
	assert.Nil(t, stored.FirstResponseAt, "reporter comments are not a response")

	_, err = h.flow.AddComment(context.Background(), &dto.AddCommentRequest{TicketID: ticket.ID, AuthorID: tech.ID, Body: "Parts ordered"})
	require.NoError(t, err)
	stored, _ = h.tickets.ByID(context.Background(), ticket.ID)
	require.NotNil(t, stored.FirstResponseAt)
	assert.Equal(t, fixedNow, *stored.FirstResponseAt)

	list, err := h.flow.ListComments(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, list.Comments, 2)
	assert.Equal(t, "Any update?", list.Comments[0].Body)

	n, _ := h.notifications.Count(context.Background(), models.NotificationFilter{UserID: &reporter.ID})
	assert.Equal(t, int64(1), n)

	_, err = h.flow.AddComment(context.Background(), &dto.AddCommentRequest{TicketID: ticket.ID, AuthorID: tech.ID, Body: "   "})
	assert.ErrorIs(t, err, ErrCommentBodyRequired)
}

func TestGetAndDeleteTicket(t *testing.T) {
	h := newTicketHarness(t, nil)
	admin := h.addUser(models.UserRoleAdmin)
	reporter := h.addUser(models.UserRoleStaff)
	category := h.addCategory("General", nil)

	req := h.createRequest(reporter, category)
	req.Attachments = []dto.AttachmentInput{{FileName: "photo.jpg", FileURL: "https://cdn.p57.test/photo.jpg"}}
	created, err := h.flow.CreateTicket(context.Background(), req, nil)
	require.NoError(t, err)

	detail, err := h.flow.GetTicket(context.Background(), created.Ticket.ID)
	require.NoError(t, err)
	assert.Len(t, detail.History, 1)
	assert.Len(t, detail.Attachments, 1)

	resp, err := h.flow.DeleteTicket(context.Background(), &dto.DeleteTicketRequest{TicketID: created.Ticket.ID, ActorID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Ticket.TicketNumber, resp.TicketNumber)
	assert.Equal(t, []uint{created.Ticket.ID}, h.tickets.deleted)

	_, err = h.flow.GetTicket(context.Background(), created.Ticket.ID)
	assert.True(t, IsTicketNotFound(err))
}

func TestListTickets(t *testing.T) {
	h := newTicketHarness(t, nil)
	h.seedTicket(t, "high", nil)
	h.seedTicket(t, "low", nil)
	h.seedTicket(t, "high", nil)

	resp, err := h.flow.ListTickets(context.Background(), &dto.ListTicketsRequest{Priority: utils.ToPtr("high")})
	require.NoError(t, err)
	assert.Len(t, resp.Tickets, 2)
	assert.Equal(t, int64(2), resp.Pagination.Total)

	_, err = h.flow.ListTickets(context.Background(), &dto.ListTicketsRequest{Status: utils.ToPtr("archived")})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
