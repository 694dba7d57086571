package repository

import (
	"context"

	"github.com/onboarding-api/internal/domain"
	"gorm.io/gorm"
)

// TaskTemplateRepository определяет интерфейс для шаблонов задач онбординга
type TaskTemplateRepository interface {
	Create(ctx context.Context, task *domain.OnboardingTask) error
	GetByID(ctx context.Context, id int64) (*domain.OnboardingTask, error)
	GetByRoleID(ctx context.Context, roleID int64) ([]domain.OnboardingTask, error)
	Update(ctx context.Context, task *domain.OnboardingTask) error
	Delete(ctx context.Context, id int64) error
}

type taskTemplateRepository struct {
	db *gorm.DB
}

// NewTaskTemplateRepository создаёт новый экземпляр репозитория
func NewTaskTemplateRepository(db *gorm.DB) TaskTemplateRepository {
	return &taskTemplateRepository{db: db}
}

func (r *taskTemplateRepository) Create(ctx context.Context, task *domain.OnboardingTask) error {
	return dbFrom(ctx, r.db).Create(task).Error
}

func (r *taskTemplateRepository) GetByID(ctx context.Context, id int64) (*domain.OnboardingTask, error) {
	var task domain.OnboardingTask
	err := dbFrom(ctx, r.db).First(&task, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *taskTemplateRepository) GetByRoleID(ctx context.Context, roleID int64) ([]domain.OnboardingTask, error) {
	var tasks []domain.OnboardingTask
	err := dbFrom(ctx, r.db).
		Where("role_id = ?", roleID).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskTemplateRepository) Update(ctx context.Context, task *domain.OnboardingTask) error {
	return dbFrom(ctx, r.db).Save(task).Error
}

func (r *taskTemplateRepository) Delete(ctx context.Context, id int64) error {
	result := dbFrom(ctx, r.db).Delete(&domain.OnboardingTask{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// UserTaskRepository определяет интерфейс для назначенных задач
type UserTaskRepository interface {
	Create(ctx context.Context, ut *domain.UserTask) error
	GetByID(ctx context.Context, id int64) (*domain.UserTask, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.UserTask, error)
	Update(ctx context.Context, ut *domain.UserTask) error
	Delete(ctx context.Context, id int64) error
	ExistsByUserAndTask(ctx context.Context, userID, taskID int64) (bool, error)
}

type userTaskRepository struct {
	db *gorm.DB
}

// NewUserTaskRepository создаёт новый экземпляр репозитория
func NewUserTaskRepository(db *gorm.DB) UserTaskRepository {
	return &userTaskRepository{db: db}
}

func (r *userTaskRepository) Create(ctx context.Context, ut *domain.UserTask) error {
	return dbFrom(ctx, r.db).Create(ut).Error
}

func (r *userTaskRepository) GetByID(ctx context.Context, id int64) (*domain.UserTask, error) {
	var ut domain.UserTask
	err := dbFrom(ctx, r.db).First(&ut, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserTaskNotFound
		}
		return nil, err
	}
	return &ut, nil
}

func (r *userTaskRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.UserTask, error) {
	var tasks []domain.UserTask
	err := dbFrom(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *userTaskRepository) Update(ctx context.Context, ut *domain.UserTask) error {
	return dbFrom(ctx, r.db).Save(ut).Error
}

func (r *userTaskRepository) Delete(ctx context.Context, id int64) error {
	result := dbFrom(ctx, r.db).Delete(&domain.UserTask{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserTaskNotFound
	}
	return nil
}

func (r *userTaskRepository) ExistsByUserAndTask(ctx context.Context, userID, taskID int64) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).
		Model(&domain.UserTask{}).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Count(&count).Error
	return count > 0, err
}
