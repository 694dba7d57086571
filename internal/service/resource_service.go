package service

import (
	"context"
	"strings"
	"time"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/repository"
	"github.com/onboarding-api/internal/search"
)

// ResourceService определяет интерфейс бизнес-логики для ресурсов
// и гибридного поиска по ним
type ResourceService interface {
	Create(ctx context.Context, req *dto.CreateResourceRequest) (*domain.Resource, error)
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	List(ctx context.Context) ([]domain.Resource, error)
	Update(ctx context.Context, id int64, req *dto.UpdateResourceRequest) (*domain.Resource, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, req *dto.SearchResourcesRequest) (*search.Result, error)
}

type resourceService struct {
	resourceRepo repository.ResourceRepository
	writer       repository.ResourceWriter
	planner      *search.Planner
	searchBudget time.Duration
}

// NewResourceService создаёт новый экземпляр сервиса
func NewResourceService(
	resourceRepo repository.ResourceRepository,
	writer repository.ResourceWriter,
	planner *search.Planner,
	searchBudget time.Duration,
) ResourceService {
	return &resourceService{
		resourceRepo: resourceRepo,
		writer:       writer,
		planner:      planner,
		searchBudget: searchBudget,
	}
}

func (s *resourceService) Create(ctx context.Context, req *dto.CreateResourceRequest) (*domain.Resource, error) {
	res := &domain.Resource{
		Title:       strings.TrimSpace(req.Title),
		Category:    req.Category,
		Description: req.Description,
		ResourceURL: req.ResourceURL,
		Embedding:   req.Embedding,
	}

	// Размерность вектора проверяет индекс внутри транзакции координатора:
	// при несовпадении откатывается и реляционная запись
	if err := s.writer.CreateResource(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (s *resourceService) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	return s.resourceRepo.GetByID(ctx, id)
}

func (s *resourceService) List(ctx context.Context) ([]domain.Resource, error) {
	return s.resourceRepo.List(ctx, domain.ResourceFilter{})
}

func (s *resourceService) Update(ctx context.Context, id int64, req *dto.UpdateResourceRequest) (*domain.Resource, error) {
	res, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		res.Title = strings.TrimSpace(*req.Title)
	}
	if req.Category != nil {
		res.Category = req.Category
	}
	if req.Description != nil {
		res.Description = *req.Description
	}
	if req.ResourceURL != nil {
		res.ResourceURL = *req.ResourceURL
	}
	if req.Embedding != nil {
		res.Embedding = req.Embedding
	}

	if err := s.writer.UpdateResource(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (s *resourceService) Delete(ctx context.Context, id int64) error {
	return s.writer.DeleteResource(ctx, id)
}

// Search выполняет гибридный запрос в пределах бюджета латентности.
// Превышение бюджета даёт частичный результат с флагом low_confidence,
// а не ошибку.
func (s *resourceService) Search(ctx context.Context, req *dto.SearchResourcesRequest) (*search.Result, error) {
	if s.searchBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.searchBudget)
		defer cancel()
	}

	filter := domain.ResourceFilter{
		Category:   req.Category,
		TitleQuery: req.TitleQuery,
	}
	return s.planner.Search(ctx, req.Vector, req.K, filter)
}
