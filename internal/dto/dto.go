package dto

import (
	"time"
)

// CreateDepartmentRequest - запрос на создание подразделения
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// UpdateDepartmentRequest - запрос на переименование подразделения
type UpdateDepartmentRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=200"`
}

// CreateRoleRequest - запрос на создание должности в подразделении
type CreateRoleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// UpdateRoleRequest - запрос на обновление должности
type UpdateRoleRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,min=1"`
}

// CreateUserRequest - запрос на создание пользователя
type CreateUserRequest struct {
	FullName  string  `json:"full_name" validate:"required,min=1,max=200"`
	Email     string  `json:"email" validate:"required,email,max=200"`
	UserType  string  `json:"user_type" validate:"required,oneof=new_hire hr_specialist manager"`
	RoleID    *int64  `json:"role_id" validate:"omitempty,min=1"`
	ManagerID *int64  `json:"manager_id" validate:"omitempty,min=1"`
	MentorID  *int64  `json:"mentor_id" validate:"omitempty,min=1"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateUserRequest - запрос на обновление пользователя.
// Для manager_id и mentor_id значение 0 снимает назначение.
type UpdateUserRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Email     *string `json:"email" validate:"omitempty,email,max=200"`
	UserType  *string `json:"user_type" validate:"omitempty,oneof=new_hire hr_specialist manager"`
	RoleID    *int64  `json:"role_id" validate:"omitempty,min=0"`
	ManagerID *int64  `json:"manager_id" validate:"omitempty,min=0"`
	MentorID  *int64  `json:"mentor_id" validate:"omitempty,min=0"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateTaskRequest - запрос на создание шаблона задачи онбординга
type CreateTaskRequest struct {
	Title          string `json:"title" validate:"required,min=1,max=200"`
	Description    string `json:"description" validate:"max=5000"`
	TaskType       string `json:"task_type" validate:"required,oneof=learning_module hr_form simulated_project"`
	DefaultDueDays *int   `json:"default_due_days" validate:"omitempty,min=0"`
}

// UpdateTaskRequest - запрос на обновление шаблона задачи
type UpdateTaskRequest struct {
	Title          *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=5000"`
	TaskType       *string `json:"task_type" validate:"omitempty,oneof=learning_module hr_form simulated_project"`
	DefaultDueDays *int    `json:"default_due_days" validate:"omitempty,min=0"`
}

// AssignTaskRequest - запрос на назначение шаблона задачи пользователю.
// Если due_date не передан, срок считается от default_due_days шаблона.
type AssignTaskRequest struct {
	TaskID  int64   `json:"task_id" validate:"required,min=1"`
	DueDate *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateUserTaskRequest - запрос на изменение назначенной задачи
type UpdateUserTaskRequest struct {
	Status        *string `json:"status" validate:"omitempty,oneof=pending in_progress completed overdue"`
	SubmissionURL *string `json:"submission_url" validate:"omitempty,url,max=500"`
	Feedback      *string `json:"feedback" validate:"omitempty,max=5000"`
}

// CreateResourceRequest - запрос на создание ресурса
type CreateResourceRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Category    *string   `json:"category" validate:"omitempty,min=1,max=100"`
	Description string    `json:"description" validate:"max=5000"`
	ResourceURL string    `json:"resource_url" validate:"required,url,max=500"`
	Embedding   []float32 `json:"embedding" validate:"omitempty,min=1"`
}

// UpdateResourceRequest - запрос на обновление ресурса
type UpdateResourceRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Category    *string   `json:"category" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	ResourceURL *string   `json:"resource_url" validate:"omitempty,url,max=500"`
	Embedding   []float32 `json:"embedding" validate:"omitempty,min=1"`
}

// SearchResourcesRequest - гибридный запрос: вектор + реляционный предикат
type SearchResourcesRequest struct {
	Vector     []float32 `json:"vector" validate:"required,min=1"`
	K          int       `json:"k" validate:"required,min=1,max=100"`
	Category   *string   `json:"category" validate:"omitempty,min=1,max=100"`
	TitleQuery *string   `json:"title_query" validate:"omitempty,min=1,max=200"`
}

// DepartmentResponse - ответ с данными подразделения
type DepartmentResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Roles     []RoleResponse `json:"roles,omitempty"`
}

// RoleResponse - ответ с данными должности
type RoleResponse struct {
	ID           int64          `json:"id"`
	DepartmentID int64          `json:"department_id"`
	Title        string         `json:"title"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Tasks        []TaskResponse `json:"tasks,omitempty"`
}

// UserResponse - ответ с данными пользователя
type UserResponse struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	UserType  string    `json:"user_type"`
	RoleID    *int64    `json:"role_id"`
	ManagerID *int64    `json:"manager_id"`
	MentorID  *int64    `json:"mentor_id"`
	StartDate *string   `json:"start_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskResponse - ответ с данными шаблона задачи
type TaskResponse struct {
	ID             int64     `json:"id"`
	RoleID         *int64    `json:"role_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	TaskType       string    `json:"task_type"`
	DefaultDueDays *int      `json:"default_due_days,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserTaskResponse - ответ с данными назначенной задачи.
// Статус выдаётся эффективный: просрочка вычислена на момент чтения.
type UserTaskResponse struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	TaskID        int64      `json:"task_id"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	SubmissionURL *string    `json:"submission_url,omitempty"`
	Feedback      *string    `json:"feedback,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ResourceResponse - ответ с данными ресурса
type ResourceResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    *string   `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ResourceURL string    `json:"resource_url"`
	Embedded    bool      `json:"embedded"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ScoredResourceResponse - ресурс в выдаче гибридного поиска.
// Score - расстояние до запроса, меньше значит ближе.
type ScoredResourceResponse struct {
	Resource ResourceResponse `json:"resource"`
	Score    float32          `json:"score"`
}

// SearchResourcesResponse - ответ гибридного поиска.
// low_confidence означает, что выдача может быть неполной: лимит расширения
// или бюджет латентности исчерпаны.
type SearchResourcesResponse struct {
	Results       []ScoredResourceResponse `json:"results"`
	LowConfidence bool                     `json:"low_confidence"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
