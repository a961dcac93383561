package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors a Supabase auth user inside the application database
// Table: users
// AuthID is the Supabase user id (JWT "sub")
type User struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	AuthID     uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null" json:"auth_id"`
	Email      string      `gorm:"size:255;not null;index" json:"email"`
	FullName   string      `gorm:"size:255" json:"full_name"`
	Role       UserRole    `gorm:"size:32;not null;default:'staff'" json:"role"`
	Department *Department `gorm:"size:32" json:"department,omitempty"`
	IsActive   *bool       `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID       *uint
	AuthID   *uuid.UUID
	Email    *string
	Role     *UserRole
	IsActive *bool
}
