package repository

import (
	"context"
	"fmt"

	"github.com/onboarding-api/internal/domain"
	"gorm.io/gorm"
)

// HierarchyRelation - связь самоссылки пользователя: руководитель или ментор.
// Каждая связь образует собственный лес, проверяются они независимо.
type HierarchyRelation string

const (
	RelationManager HierarchyRelation = "manager"
	RelationMentor  HierarchyRelation = "mentor"
)

func (rel HierarchyRelation) column() string {
	if rel == RelationMentor {
		return "mentor_id"
	}
	return "manager_id"
}

// UserRepository определяет интерфейс для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	ExistsByEmail(ctx context.Context, email string, excludeID *int64) (bool, error)
	// AncestorChain возвращает цепочку предков startID по заданной связи,
	// не длиннее maxDepth. truncated=true означает, что цепочка не
	// завершилась в пределах лимита (разросшиеся данные).
	AncestorChain(ctx context.Context, rel HierarchyRelation, startID int64, maxDepth int) (chain []int64, truncated bool, err error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository создаёт новый экземпляр репозитория
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return dbFrom(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := dbFrom(ctx, r.db).First(&user, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := dbFrom(ctx, r.db).Order("created_at ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return dbFrom(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result := dbFrom(ctx, r.db).Delete(&domain.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string, excludeID *int64) (bool, error) {
	var count int64
	query := dbFrom(ctx, r.db).Model(&domain.User{}).Where("email = ?", email)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}

func (r *userRepository) AncestorChain(ctx context.Context, rel HierarchyRelation, startID int64, maxDepth int) ([]int64, bool, error) {
	column := rel.column()
	chain := make([]int64, 0, 8)
	current := startID

	for depth := 0; depth < maxDepth; depth++ {
		chain = append(chain, current)

		var next *int64
		row := struct{ Ref *int64 }{}
		err := dbFrom(ctx, r.db).
			Model(&domain.User{}).
			Select(fmt.Sprintf("%s AS ref", column)).
			Where("id = ?", current).
			Take(&row).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, false, domain.ErrUserNotFound
			}
			return nil, false, err
		}
		next = row.Ref

		if next == nil {
			return chain, false, nil
		}
		current = *next
	}

	return chain, true, nil
}
