// Package businessflow contains the core business logic and use cases of the feedback hub
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Catalog errors
	ErrCategoryNotFound            = errors.New("category not found")
	ErrCategoryNameRequired        = errors.New("category name is required")
	ErrCategoryAlreadyExists       = errors.New("category already exists")
	ErrSubcategoryNotFound         = errors.New("subcategory not found")
	ErrSubcategoryNameRequired     = errors.New("subcategory name is required")
	ErrSubcategoryAlreadyExists    = errors.New("subcategory already exists")
	ErrSubcategoryCategoryMismatch = errors.New("subcategory does not belong to category")
	ErrFieldNotFound               = errors.New("field not found")
	ErrFieldAlreadyExists          = errors.New("field id already exists in form")
	ErrInvalidFieldDefinition      = errors.New("invalid field definition")
	ErrInvalidCatalogFile          = errors.New("invalid catalog file")

	// Assignment rule errors
	ErrAssignmentRuleNotFound     = errors.New("assignment rule not found")
	ErrAssignmentRuleNameRequired = errors.New("assignment rule name is required")

	// Ticket errors
	ErrTicketNotFound           = errors.New("ticket not found")
	ErrInvalidStatus            = errors.New("invalid ticket status")
	ErrInvalidPriority          = errors.New("invalid ticket priority")
	ErrInvalidDepartment        = errors.New("invalid department")
	ErrEscalationReasonRequired = errors.New("escalation reason is required")
	ErrTicketNumberExhausted    = errors.New("could not allocate a unique ticket number")
	ErrClientNameRequired       = errors.New("client name is required")
	ErrTitleRequired            = errors.New("title is required")
	ErrCommentBodyRequired      = errors.New("comment body is required")
	ErrAssigneeNotFound         = errors.New("assignee not found")

	// Access errors
	ErrUserNotFound         = errors.New("user not found")
	ErrUserInactive         = errors.New("user is inactive")
	ErrForbidden            = errors.New("forbidden")
	ErrNotificationNotFound = errors.New("notification not found")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCategoryNotFound(err error) bool {
	return errors.Is(err, ErrCategoryNotFound)
}

func IsCategoryAlreadyExists(err error) bool {
	return errors.Is(err, ErrCategoryAlreadyExists)
}

func IsSubcategoryNotFound(err error) bool {
	return errors.Is(err, ErrSubcategoryNotFound)
}

func IsSubcategoryAlreadyExists(err error) bool {
	return errors.Is(err, ErrSubcategoryAlreadyExists)
}

func IsFieldNotFound(err error) bool {
	return errors.Is(err, ErrFieldNotFound)
}

func IsFieldAlreadyExists(err error) bool {
	return errors.Is(err, ErrFieldAlreadyExists)
}

func IsAssignmentRuleNotFound(err error) bool {
	return errors.Is(err, ErrAssignmentRuleNotFound)
}

func IsTicketNotFound(err error) bool {
	return errors.Is(err, ErrTicketNotFound)
}

func IsTicketNumberExhausted(err error) bool {
	return errors.Is(err, ErrTicketNumberExhausted)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsNotificationNotFound(err error) bool {
	return errors.Is(err, ErrNotificationNotFound)
}

// IsNotFound reports whether err wraps any of the not-found sentinels
func IsNotFound(err error) bool {
	return IsCategoryNotFound(err) ||
		IsSubcategoryNotFound(err) ||
		IsFieldNotFound(err) ||
		IsAssignmentRuleNotFound(err) ||
		IsTicketNotFound(err) ||
		IsUserNotFound(err) ||
		IsNotificationNotFound(err) ||
		errors.Is(err, ErrAssigneeNotFound)
}

// IsInvalidInput reports whether err is a caller-correctable input error
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		ErrCategoryNameRequired,
		ErrSubcategoryNameRequired,
		ErrSubcategoryCategoryMismatch,
		ErrInvalidFieldDefinition,
		ErrInvalidCatalogFile,
		ErrAssignmentRuleNameRequired,
		ErrInvalidStatus,
		ErrInvalidPriority,
		ErrInvalidDepartment,
		ErrEscalationReasonRequired,
		ErrClientNameRequired,
		ErrTitleRequired,
		ErrCommentBodyRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err signals a uniqueness conflict
func IsConflict(err error) bool {
	return IsCategoryAlreadyExists(err) || IsSubcategoryAlreadyExists(err) || IsFieldAlreadyExists(err)
}
