package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/vector"
	"gorm.io/gorm"
)

// ResourceWriter - мутации ресурсов, согласованные с векторным индексом
type ResourceWriter interface {
	CreateResource(ctx context.Context, res *domain.Resource) error
	UpdateResource(ctx context.Context, res *domain.Resource) error
	DeleteResource(ctx context.Context, id int64) error
}

// Coordinator выполняет мутации ресурса и обновление векторного индекса
// в одной транзакции: читатель не увидит строку ресурса без
// проиндексированного embedding и наоборот. Операция над индексом идёт
// последней, её ошибка откатывает реляционную запись.
type Coordinator struct {
	db     *gorm.DB
	index  *vector.Index
	logger *slog.Logger
}

// NewCoordinator создаёт координатор поверх БД и индекса
func NewCoordinator(db *gorm.DB, index *vector.Index, logger *slog.Logger) *Coordinator {
	return &Coordinator{db: db, index: index, logger: logger}
}

func (c *Coordinator) CreateResource(ctx context.Context, res *domain.Resource) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(res).Error; err != nil {
			return err
		}
		if res.Embedding != nil {
			if err := c.index.Insert(res.ID, res.Embedding); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Coordinator) UpdateResource(ctx context.Context, res *domain.Resource) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(res).Error; err != nil {
			return err
		}
		if res.Embedding != nil {
			return c.index.Insert(res.ID, res.Embedding)
		}
		return c.index.Remove(res.ID)
	})
}

func (c *Coordinator) DeleteResource(ctx context.Context, id int64) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Resource{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrResourceNotFound
		}
		return c.index.Remove(id)
	})
}

// Rebuild наполняет индекс всеми проиндексированными ресурсами из БД.
// Вызывается на старте; при ошибке индекс помечается недоступным, и поиск
// переходит на точное сканирование вместо отказа сервиса.
func (c *Coordinator) Rebuild(ctx context.Context) error {
	var resources []domain.Resource
	if err := c.db.WithContext(ctx).Where("embedding IS NOT NULL").Order("id ASC").Find(&resources).Error; err != nil {
		c.index.MarkUnavailable()
		return fmt.Errorf("failed to load resources for index rebuild: %w", err)
	}

	for _, res := range resources {
		if err := c.index.Insert(res.ID, res.Embedding); err != nil {
			c.index.MarkUnavailable()
			return fmt.Errorf("failed to index resource %d: %w", res.ID, err)
		}
	}

	c.logger.Info("vector index rebuilt", slog.Int("resources", len(resources)))
	return nil
}
