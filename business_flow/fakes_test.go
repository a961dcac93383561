package businessflow

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
	"gorm.io/gorm"
)

// memRepo is an in-memory stand-in for repository.Repository keyed by id
type memRepo[T any, F any] struct {
	mu       sync.Mutex
	rows     map[uint]*T
	next     uint
	getID    func(*T) uint
	setID    func(*T, uint)
	match    func(*T, F) bool
	saveErrs []error
	saves    int
}

func newMemRepo[T any, F any](getID func(*T) uint, setID func(*T, uint), match func(*T, F) bool) *memRepo[T, F] {
	if match == nil {
		match = func(*T, F) bool { return true }
	}
	return &memRepo[T, F]{rows: map[uint]*T{}, getID: getID, setID: setID, match: match}
}

func (r *memRepo[T, F]) ByID(_ context.Context, id uint) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *memRepo[T, F]) sorted(filter F) []*T {
	ids := make([]uint, 0, len(r.rows))
	for id, row := range r.rows {
		if r.match(row, filter) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		cp := *r.rows[id]
		out = append(out, &cp)
	}
	return out
}

func (r *memRepo[T, F]) ByFilter(_ context.Context, filter F, _ string, limit, offset int) ([]*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(filter)
	if offset > 0 {
		if offset >= len(out) {
			return []*T{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo[T, F]) Save(_ context.Context, entity *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	if r.getID(entity) == 0 {
		r.next++
		r.setID(entity, r.next)
	} else if r.getID(entity) > r.next {
		r.next = r.getID(entity)
	}
	cp := *entity
	r.rows[r.getID(entity)] = &cp
	return nil
}

func (r *memRepo[T, F]) SaveBatch(ctx context.Context, entities []*T) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo[T, F]) Count(_ context.Context, filter F) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sorted(filter))), nil
}

func (r *memRepo[T, F]) Exists(ctx context.Context, filter F) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *memRepo[T, F]) Update(_ context.Context, entity *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entity
	r.rows[r.getID(entity)] = &cp
	return nil
}

func (r *memRepo[T, F]) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memRepo[T, F]) all() []*T {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		cp := *r.rows[id]
		out = append(out, &cp)
	}
	return out
}

// Category

type fakeCategoryRepo struct {
	*memRepo[models.Category, models.CategoryFilter]
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{newMemRepo(
		func(c *models.Category) uint { return c.ID },
		func(c *models.Category, id uint) { c.ID = id },
		func(c *models.Category, f models.CategoryFilter) bool {
			return f.IsActive == nil || utils.IsTrue(c.IsActive) == *f.IsActive
		},
	)}
}

func (r *fakeCategoryRepo) ByName(_ context.Context, name string) (*models.Category, error) {
	for _, c := range r.all() {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

// Subcategory

type fakeSubcategoryRepo struct {
	*memRepo[models.Subcategory, models.SubcategoryFilter]
}

func newFakeSubcategoryRepo() *fakeSubcategoryRepo {
	return &fakeSubcategoryRepo{newMemRepo[models.Subcategory, models.SubcategoryFilter](
		func(s *models.Subcategory) uint { return s.ID },
		func(s *models.Subcategory, id uint) { s.ID = id },
		nil,
	)}
}

func (r *fakeSubcategoryRepo) ByCategoryAndName(_ context.Context, categoryID uint, name string) (*models.Subcategory, error) {
	for _, s := range r.all() {
		if s.CategoryID == categoryID && strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSubcategoryRepo) ListByCategory(_ context.Context, categoryID uint, activeOnly bool) ([]*models.Subcategory, error) {
	var out []*models.Subcategory
	for _, s := range r.all() {
		if s.CategoryID != categoryID || (activeOnly && !utils.IsTrue(s.IsActive)) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSubcategoryRepo) UpdateFormFields(_ context.Context, id uint, form models.FormDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rows[id]; ok {
		s.FormFields = form
	}
	return nil
}

// AssignmentRule

type fakeRuleRepo struct {
	*memRepo[models.AssignmentRule, models.AssignmentRuleFilter]
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{newMemRepo[models.AssignmentRule, models.AssignmentRuleFilter](
		func(r *models.AssignmentRule) uint { return r.ID },
		func(r *models.AssignmentRule, id uint) { r.ID = id },
		nil,
	)}
}

func (r *fakeRuleRepo) ListMatching(_ context.Context, categoryID uint, subcategoryID *uint) ([]*models.AssignmentRule, error) {
	var out []*models.AssignmentRule
	for _, rule := range r.all() {
		if RuleMatches(rule, categoryID, subcategoryID) {
			out = append(out, rule)
		}
	}
	return out, nil
}

// User

type fakeUserRepo struct {
	*memRepo[models.User, models.UserFilter]
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{newMemRepo[models.User, models.UserFilter](
		func(u *models.User) uint { return u.ID },
		func(u *models.User, id uint) { u.ID = id },
		nil,
	)}
}

func (r *fakeUserRepo) ByAuthID(_ context.Context, authID uuid.UUID) (*models.User, error) {
	for _, u := range r.all() {
		if u.AuthID == authID {
			return u, nil
		}
	}
	return nil, nil
}

// Ticket

type fakeTicketRepo struct {
	*memRepo[models.Ticket, models.TicketFilter]
	// countOffset simulates tickets created before the test started
	countOffset int64
	deleted     []uint
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{memRepo: newMemRepo(
		func(t *models.Ticket) uint { return t.ID },
		func(t *models.Ticket, id uint) { t.ID = id },
		func(t *models.Ticket, f models.TicketFilter) bool {
			if f.Status != nil && t.Status != *f.Status {
				return false
			}
			if f.Priority != nil && t.Priority != *f.Priority {
				return false
			}
			if f.CategoryID != nil && t.CategoryID != *f.CategoryID {
				return false
			}
			return true
		},
	)}
}

func (r *fakeTicketRepo) Count(ctx context.Context, filter models.TicketFilter) (int64, error) {
	n, err := r.memRepo.Count(ctx, filter)
	return n + r.countOffset, err
}

// Save enforces ticket number uniqueness like uk_tickets_ticket_number
func (r *fakeTicketRepo) Save(ctx context.Context, t *models.Ticket) error {
	if t.TicketNumber != "" {
		for _, existing := range r.all() {
			if existing.TicketNumber == t.TicketNumber && existing.ID != t.ID {
				r.mu.Lock()
				r.saves++
				r.mu.Unlock()
				return gorm.ErrDuplicatedKey
			}
		}
	}
	return r.memRepo.Save(ctx, t)
}

func (r *fakeTicketRepo) MaxTicketSequence(context.Context) (int64, error) {
	var highest int64
	for _, t := range r.all() {
		i := strings.LastIndex(t.TicketNumber, "-")
		if i < 0 {
			continue
		}
		if n, err := strconv.ParseInt(t.TicketNumber[i+1:], 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func (r *fakeTicketRepo) ByUUID(_ context.Context, id string) (*models.Ticket, error) {
	for _, t := range r.all() {
		if t.UUID.String() == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) ByTicketNumber(_ context.Context, number string) (*models.Ticket, error) {
	for _, t := range r.all() {
		if t.TicketNumber == number {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) UpdateColumns(_ context.Context, id uint, columns map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil
	}
	for k, v := range columns {
		switch k {
		case "status":
			t.Status = v.(models.TicketStatus)
		case "priority":
			t.Priority = v.(models.TicketPriority)
		case "assignee_id":
			t.AssigneeID = v.(*uint)
		case "resolved_at":
			t.ResolvedAt = utils.ToPtr(v.(time.Time))
		case "closed_at":
			t.ClosedAt = utils.ToPtr(v.(time.Time))
		case "first_response_at":
			t.FirstResponseAt = utils.ToPtr(v.(time.Time))
		case "is_escalated":
			t.IsEscalated = utils.ToPtr(v.(bool))
		case "escalation_reason":
			t.EscalationReason = utils.ToPtr(v.(string))
		case "updated_at":
			t.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (r *fakeTicketRepo) DeleteCascade(ctx context.Context, id uint) error {
	r.deleted = append(r.deleted, id)
	return r.Delete(ctx, id)
}

// Ticket children

type fakeHistoryRepo struct {
	*memRepo[models.TicketHistory, models.TicketHistoryFilter]
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID uint) ([]*models.TicketHistory, error) {
	var out []*models.TicketHistory
	for _, h := range r.all() {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeCommentRepo struct {
	*memRepo[models.TicketComment, models.TicketCommentFilter]
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID uint) ([]*models.TicketComment, error) {
	var out []*models.TicketComment
	for _, c := range r.all() {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	*memRepo[models.TicketAttachment, models.TicketAttachmentFilter]
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID uint) ([]*models.TicketAttachment, error) {
	var out []*models.TicketAttachment
	for _, a := range r.all() {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	*memRepo[models.Notification, models.NotificationFilter]
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{newMemRepo(
		func(n *models.Notification) uint { return n.ID },
		func(n *models.Notification, id uint) { n.ID = id },
		func(n *models.Notification, f models.NotificationFilter) bool {
			if f.UserID != nil && n.UserID != *f.UserID {
				return false
			}
			if f.IsRead != nil && utils.IsTrue(n.IsRead) != *f.IsRead {
				return false
			}
			return true
		},
	)}
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	filter := models.NotificationFilter{UserID: &userID}
	if unreadOnly {
		filter.IsRead = utils.ToPtr(false)
	}
	return r.ByFilter(ctx, filter, "", limit, offset)
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = utils.ToPtr(true)
	return true, nil
}

// inlineTx runs the callback without a transaction
type inlineTx struct{ calls int }

func (t *inlineTx) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// stubCatalog counts invalidations and serves fixed fields
type stubCatalog struct {
	FieldCatalog
	invalidations int
}

func (s *stubCatalog) Invalidate(context.Context) { s.invalidations++ }

// recordingMetrics captures intake observations
type recordingMetrics struct {
	created     []string
	ruleMatches []bool
	rejected    []int
	collisions  int
}

func (m *recordingMetrics) TicketCreated(priority, department string) {
	m.created = append(m.created, priority+"/"+department)
}
func (m *recordingMetrics) RuleMatched(matched bool) { m.ruleMatches = append(m.ruleMatches, matched) }
func (m *recordingMetrics) FormRejected(failed int)  { m.rejected = append(m.rejected, failed) }
func (m *recordingMetrics) TicketNumberCollision()   { m.collisions++ }

// world wires every fake repository together
type world struct {
	categories    *fakeCategoryRepo
	subcategories *fakeSubcategoryRepo
	rules         *fakeRuleRepo
	users         *fakeUserRepo
	tickets       *fakeTicketRepo
	history       *fakeHistoryRepo
	comments      *fakeCommentRepo
	attachments   *fakeAttachmentRepo
	notifications *fakeNotificationRepo
	tx            *inlineTx
}

func newWorld() *world {
	return &world{
		categories:    newFakeCategoryRepo(),
		subcategories: newFakeSubcategoryRepo(),
		rules:         newFakeRuleRepo(),
		users:         newFakeUserRepo(),
		tickets:       newFakeTicketRepo(),
		history: &fakeHistoryRepo{newMemRepo[models.TicketHistory, models.TicketHistoryFilter](
			func(h *models.TicketHistory) uint { return h.ID },
			func(h *models.TicketHistory, id uint) { h.ID = id },
			nil,
		)},
		comments: &fakeCommentRepo{newMemRepo[models.TicketComment, models.TicketCommentFilter](
			func(c *models.TicketComment) uint { return c.ID },
			func(c *models.TicketComment, id uint) { c.ID = id },
			nil,
		)},
		attachments: &fakeAttachmentRepo{newMemRepo[models.TicketAttachment, models.TicketAttachmentFilter](
			func(a *models.TicketAttachment) uint { return a.ID },
			func(a *models.TicketAttachment, id uint) { a.ID = id },
			nil,
		)},
		notifications: newFakeNotificationRepo(),
		tx:            &inlineTx{},
	}
}

func (w *world) ticketRepos() TicketRepositories {
	return TicketRepositories{
		Tickets:       w.tickets,
		History:       w.history,
		Comments:      w.comments,
		Attachments:   w.attachments,
		Notifications: w.notifications,
		Users:         w.users,
		Categories:    w.categories,
		Subcategories: w.subcategories,
	}
}

func (w *world) addUser(role models.UserRole) *models.User {
	u := &models.User{AuthID: uuid.New(), Email: string(role) + "@p57.test", Role: role, IsActive: utils.ToPtr(true)}
	_ = w.users.Save(context.Background(), u)
	return u
}

func (w *world) addCategory(name string, dept *models.Department) *models.Category {
	c := &models.Category{Name: name, DefaultDepartment: dept, IsActive: utils.ToPtr(true)}
	_ = w.categories.Save(context.Background(), c)
	return c
}

func (w *world) addSubcategory(categoryID uint, name string, fields ...models.FieldDefinition) *models.Subcategory {
	form, _ := models.NewFormDefinition(fields)
	s := &models.Subcategory{CategoryID: categoryID, Name: name, FormFields: form, IsActive: utils.ToPtr(true)}
	_ = w.subcategories.Save(context.Background(), s)
	return s
}
