package domain

import (
	"errors"
	"fmt"
)

// Определение бизнес-ошибок
var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("onboarding task not found")
	ErrUserTaskNotFound   = errors.New("user task not found")
	ErrResourceNotFound   = errors.New("resource not found")

	ErrConstraintViolation = errors.New("constraint violation")
	ErrSelfReference       = errors.New("user cannot be their own manager or mentor")
	ErrHierarchyCycle      = errors.New("assignment would create a cycle in the hierarchy")
	ErrHierarchyTooDeep    = errors.New("hierarchy chain exceeds maximum depth")
	ErrInvalidTransition   = errors.New("invalid task status transition")
)

// Правила констрейнтов, нарушение которых сообщается вызывающему
const (
	RuleUniqueEmail          = "unique_email"
	RuleUniqueDepartmentName = "unique_department_name"
	RuleUniqueRoleTitle      = "unique_role_title"
	RuleUniqueUserTask       = "unique_user_task"
	RuleFKDepartment         = "fk_department"
	RuleFKRole               = "fk_role"
	RuleFKUser               = "fk_user"
	RuleFKTask               = "fk_task"
	RuleEnumUserType         = "enum_user_type"
	RuleEnumTaskType         = "enum_task_type"
	RuleEnumStatus           = "enum_status"
)

// ConstraintError - нарушение констрейнта с указанием конкретного правила.
// Разворачивается в ErrConstraintViolation для проверки через errors.Is.
type ConstraintError struct {
	Rule   string
	Detail string
}

func (e *ConstraintError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("constraint violation (%s): %s", e.Rule, e.Detail)
	}
	return fmt.Sprintf("constraint violation (%s)", e.Rule)
}

func (e *ConstraintError) Unwrap() error {
	return ErrConstraintViolation
}

// NewConstraintError создаёт ошибку нарушения констрейнта
func NewConstraintError(rule, detail string) error {
	return &ConstraintError{Rule: rule, Detail: detail}
}
