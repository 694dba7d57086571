package domain

import (
	"time"
)

// Department представляет подразделение организации
type Department struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Roles []Role `json:"roles,omitempty" gorm:"foreignKey:DepartmentID"`
}

// TableName задаёт имя таблицы для GORM
func (Department) TableName() string {
	return "departments"
}

// Role представляет должность внутри подразделения
type Role struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	DepartmentID int64     `json:"department_id" gorm:"not null;index"`
	Title        string    `json:"title" gorm:"type:varchar(200);not null;uniqueIndex"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Department *Department      `json:"-" gorm:"foreignKey:DepartmentID"`
	Tasks      []OnboardingTask `json:"tasks,omitempty" gorm:"foreignKey:RoleID"`
}

// TableName задаёт имя таблицы для GORM
func (Role) TableName() string {
	return "roles"
}

// UserType - тип пользователя, определяет возможности без подклассов
type UserType string

const (
	UserTypeNewHire      UserType = "new_hire"
	UserTypeHRSpecialist UserType = "hr_specialist"
	UserTypeManager      UserType = "manager"
)

// Valid проверяет, что тип пользователя входит в перечисление
func (t UserType) Valid() bool {
	switch t {
	case UserTypeNewHire, UserTypeHRSpecialist, UserTypeManager:
		return true
	}
	return false
}

// User представляет пользователя: нового сотрудника, HR-специалиста или руководителя.
// Ссылки manager_id и mentor_id образуют два независимых леса без циклов.
type User struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	FullName  string     `json:"full_name" gorm:"type:varchar(200);not null"`
	Email     string     `json:"email" gorm:"type:varchar(200);not null;uniqueIndex"`
	UserType  UserType   `json:"user_type" gorm:"type:varchar(32);not null"`
	RoleID    *int64     `json:"role_id" gorm:"index"`
	ManagerID *int64     `json:"manager_id" gorm:"index"`
	MentorID  *int64     `json:"mentor_id" gorm:"index"`
	StartDate *time.Time `json:"start_date" gorm:"type:date"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Role    *Role `json:"-" gorm:"foreignKey:RoleID"`
	Manager *User `json:"-" gorm:"foreignKey:ManagerID"`
	Mentor  *User `json:"-" gorm:"foreignKey:MentorID"`
}

// TableName задаёт имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// TaskType - тип задачи онбординга
type TaskType string

const (
	TaskTypeLearningModule   TaskType = "learning_module"
	TaskTypeHRForm           TaskType = "hr_form"
	TaskTypeSimulatedProject TaskType = "simulated_project"
)

// Valid проверяет, что тип задачи входит в перечисление
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeLearningModule, TaskTypeHRForm, TaskTypeSimulatedProject:
		return true
	}
	return false
}

// OnboardingTask представляет шаблон задачи онбординга, не назначение
type OnboardingTask struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RoleID         *int64    `json:"role_id" gorm:"index"`
	Title          string    `json:"title" gorm:"type:varchar(200);not null"`
	Description    string    `json:"description" gorm:"type:text"`
	TaskType       TaskType  `json:"task_type" gorm:"type:varchar(32);not null"`
	DefaultDueDays *int      `json:"default_due_days"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Role *Role `json:"-" gorm:"foreignKey:RoleID"`
}

// TableName задаёт имя таблицы для GORM
func (OnboardingTask) TableName() string {
	return "onboarding_tasks"
}

// UserTask представляет живое назначение задачи пользователю.
// Пара (user_id, task_id) уникальна.
type UserTask struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int64      `json:"user_id" gorm:"not null;index;uniqueIndex:uq_user_tasks_user_task"`
	TaskID        int64      `json:"task_id" gorm:"not null;index;uniqueIndex:uq_user_tasks_user_task"`
	Status        TaskStatus `json:"status" gorm:"type:varchar(32);not null;default:pending;index"`
	DueDate       *time.Time `json:"due_date"`
	CompletedAt   *time.Time `json:"completed_at"`
	SubmissionURL *string    `json:"submission_url" gorm:"type:varchar(500)"`
	Feedback      *string    `json:"feedback" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	User *User           `json:"-" gorm:"foreignKey:UserID"`
	Task *OnboardingTask `json:"-" gorm:"foreignKey:TaskID"`
}

// TableName задаёт имя таблицы для GORM
func (UserTask) TableName() string {
	return "user_tasks"
}

// Resource представляет материал онбординга: документ, ссылку или инструмент.
// Embedding хранит вектор фиксированной размерности для семантического поиска.
type Resource struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	Category    *string   `json:"category" gorm:"type:varchar(100);index"`
	Description string    `json:"description" gorm:"type:text"`
	ResourceURL string    `json:"resource_url" gorm:"type:varchar(500);not null"`
	Embedding   Vector    `json:"embedding,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Resource) TableName() string {
	return "resources"
}

// ResourceFilter - реляционный предикат гибридного поиска.
// Планировщик гарантирует, что результаты удовлетворяют предикату точно,
// даже если ранжирование по близости приближённое.
type ResourceFilter struct {
	Category   *string
	TitleQuery *string
}

// Empty возвращает true, если предикат не ограничивает выборку
func (f ResourceFilter) Empty() bool {
	return f.Category == nil && f.TitleQuery == nil
}
