package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user with the given role
func (tf *TestFixtures) CreateTestUser(role models.UserRole) (*models.User, error) {
	authID := uuid.New()
	user := &models.User{
		AuthID:   authID,
		Email:    fmt.Sprintf("%s.%s@example.com", role, authID.String()[:8]),
		FullName: "Test " + string(role),
		Role:     role,
		IsActive: utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateTestCategory creates an active category owned by dept
func (tf *TestFixtures) CreateTestCategory(name string, dept *models.Department) (*models.Category, error) {
	category := &models.Category{
		Name:              name,
		DefaultDepartment: dept,
		IsActive:          utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category %s: %w", name, err)
	}
	return category, nil
}

// CreateTestSubcategory creates an active subcategory carrying fields
func (tf *TestFixtures) CreateTestSubcategory(categoryID uint, name string, fields []models.FieldDefinition) (*models.Subcategory, error) {
	form, err := models.NewFormDefinition(fields)
	if err != nil {
		return nil, err
	}
	sub := &models.Subcategory{
		CategoryID: categoryID,
		Name:       name,
		FormFields: form,
		IsActive:   utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subcategory %s: %w", name, err)
	}
	return sub, nil
}

// CreateTestTicket creates an open ticket in the given category
func (tf *TestFixtures) CreateTestTicket(categoryID, reporterID uint, priority models.TicketPriority) (*models.Ticket, error) {
	now := utils.UTCNow()
	ticket := &models.Ticket{
		TicketNumber: fmt.Sprintf("P57-%s-%05d", now.Format("200601"), rand.Intn(90000)+10000),
		CategoryID:   categoryID,
		ReporterID:   reporterID,
		Title:        "Broken treadmill",
		Description:  "Belt slips under load",
		ClientName:   "Jane Member",
		Status:       models.TicketStatusOpen,
		Priority:     priority,
		FormData:     models.JSONData(`{}`),
		ReportedAt:   now,
	}
	if err := tf.DB.DB.Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return ticket, nil
}

// CreateAgedTicket creates a ticket whose created_at lies age in the past
func (tf *TestFixtures) CreateAgedTicket(categoryID, reporterID uint, age time.Duration) (*models.Ticket, error) {
	ticket, err := tf.CreateTestTicket(categoryID, reporterID, models.TicketPriorityLow)
	if err != nil {
		return nil, err
	}
	createdAt := utils.UTCNow().Add(-age)
	if err := tf.DB.DB.Model(ticket).UpdateColumn("created_at", createdAt).Error; err != nil {
		return nil, fmt.Errorf("failed to age ticket: %w", err)
	}
	ticket.CreatedAt = createdAt
	return ticket, nil
}
