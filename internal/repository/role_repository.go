package repository

import (
	"context"

	"github.com/onboarding-api/internal/domain"
	"gorm.io/gorm"
)

// RoleRepository определяет интерфейс для работы с должностями
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByDepartmentID(ctx context.Context, departmentID int64) ([]domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id int64) error
	ExistsByTitle(ctx context.Context, title string, excludeID *int64) (bool, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository создаёт новый экземпляр репозитория
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	return dbFrom(ctx, r.db).Create(role).Error
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	var role domain.Role
	err := dbFrom(ctx, r.db).First(&role, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByDepartmentID(ctx context.Context, departmentID int64) ([]domain.Role, error) {
	var roles []domain.Role
	err := dbFrom(ctx, r.db).
		Where("department_id = ?", departmentID).
		Order("created_at ASC").
		Find(&roles).Error
	return roles, err
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	return dbFrom(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	result := dbFrom(ctx, r.db).Delete(&domain.Role{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *roleRepository) ExistsByTitle(ctx context.Context, title string, excludeID *int64) (bool, error) {
	var count int64
	query := dbFrom(ctx, r.db).Model(&domain.Role{}).Where("title = ?", title)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}
