package repository

import (
	"context"

	"github.com/onboarding-api/internal/domain"
	"gorm.io/gorm"
)

// ResourceRepository определяет интерфейс чтения ресурсов.
// Запись идёт через Coordinator, чтобы реляционная строка и векторный
// индекс менялись в одной транзакции.
type ResourceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, error)
	// CountEmbedded считает ресурсы с embedding-вектором, подходящие под фильтр
	CountEmbedded(ctx context.Context, filter domain.ResourceFilter) (int64, error)
	// EmbeddedIDs возвращает id проиндексированных ресурсов под фильтром
	EmbeddedIDs(ctx context.Context, filter domain.ResourceFilter) ([]int64, error)
	// GetByIDsMatching выбирает ресурсы из ids, удовлетворяющие фильтру.
	// Предикат перепроверяется в SQL, поэтому ложных срабатываний нет.
	GetByIDsMatching(ctx context.Context, ids []int64, filter domain.ResourceFilter) ([]domain.Resource, error)
	AllEmbedded(ctx context.Context) ([]domain.Resource, error)
}

type resourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository создаёт новый экземпляр репозитория
func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	var res domain.Resource
	err := dbFrom(ctx, r.db).First(&res, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrResourceNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepository) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, error) {
	var resources []domain.Resource
	err := applyFilter(dbFrom(ctx, r.db), filter).
		Order("created_at ASC").
		Find(&resources).Error
	return resources, err
}

func (r *resourceRepository) CountEmbedded(ctx context.Context, filter domain.ResourceFilter) (int64, error) {
	var count int64
	err := applyFilter(dbFrom(ctx, r.db).Model(&domain.Resource{}), filter).
		Where("embedding IS NOT NULL").
		Count(&count).Error
	return count, err
}

func (r *resourceRepository) EmbeddedIDs(ctx context.Context, filter domain.ResourceFilter) ([]int64, error) {
	var ids []int64
	err := applyFilter(dbFrom(ctx, r.db).Model(&domain.Resource{}), filter).
		Where("embedding IS NOT NULL").
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *resourceRepository) GetByIDsMatching(ctx context.Context, ids []int64, filter domain.ResourceFilter) ([]domain.Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var resources []domain.Resource
	err := applyFilter(dbFrom(ctx, r.db), filter).
		Where("id IN ?", ids).
		Find(&resources).Error
	return resources, err
}

func (r *resourceRepository) AllEmbedded(ctx context.Context) ([]domain.Resource, error) {
	var resources []domain.Resource
	err := dbFrom(ctx, r.db).
		Where("embedding IS NOT NULL").
		Order("id ASC").
		Find(&resources).Error
	return resources, err
}

// applyFilter накладывает реляционный предикат на запрос
func applyFilter(query *gorm.DB, filter domain.ResourceFilter) *gorm.DB {
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.TitleQuery != nil {
		query = query.Where("title LIKE ?", "%"+*filter.TitleQuery+"%")
	}
	return query
}
