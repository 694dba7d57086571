package repository

import (
	"context"

	"github.com/onboarding-api/internal/domain"
	"gorm.io/gorm"
)

// DepartmentRepository определяет интерфейс для работы с подразделениями
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	GetByIDWithRoles(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id int64) error
	ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error)
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository создаёт новый экземпляр репозитория
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	return dbFrom(ctx, r.db).Create(dept).Error
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	var dept domain.Department
	err := dbFrom(ctx, r.db).First(&dept, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) GetByIDWithRoles(ctx context.Context, id int64) (*domain.Department, error) {
	var dept domain.Department
	err := dbFrom(ctx, r.db).
		Preload("Roles", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&dept, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	var depts []domain.Department
	err := dbFrom(ctx, r.db).Order("created_at ASC").Find(&depts).Error
	return depts, err
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	return dbFrom(ctx, r.db).Save(dept).Error
}

func (r *departmentRepository) Delete(ctx context.Context, id int64) error {
	result := dbFrom(ctx, r.db).Delete(&domain.Department{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDepartmentNotFound
	}
	return nil
}

func (r *departmentRepository) ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error) {
	var count int64
	query := dbFrom(ctx, r.db).Model(&domain.Department{}).Where("name = ?", name)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}
