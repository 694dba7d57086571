// Package search реализует гибридные запросы: top-k ресурсов, семантически
// близких к вектору запроса и точно удовлетворяющих реляционному предикату.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/repository"
	"github.com/onboarding-api/internal/vector"
)

const (
	// Порог селективности: предикат, под который попадает не больше
	// половины проиндексированных ресурсов, считается селективным
	selectivityCutoff = 0.5

	// Максимальный размер кандидатного набора для фильтрованного обхода
	maxFilteredSet = 10000

	// Максимум удвоений k при адаптивном расширении поиска
	maxWidenings = 3
)

// ScoredResource - ресурс с расстоянием до запроса: чем меньше, тем ближе
type ScoredResource struct {
	Resource domain.Resource
	Score    float32
}

// Result - результат гибридного запроса. LowConfidence выставляется, когда
// расширение k или бюджет латентности исчерпаны и выдача может быть неполной.
type Result struct {
	Items         []ScoredResource
	LowConfidence bool
}

// Planner выбирает стратегию исполнения гибридного запроса по селективности
// предиката: селективный предикат сначала вычисляется в реляционном
// хранилище и ограничивает обход индекса, неселективный накладывается
// пост-фильтром с адаптивным расширением k.
type Planner struct {
	resources repository.ResourceRepository
	index     *vector.Index
	metric    vector.Metric
	logger    *slog.Logger
}

// NewPlanner создаёт планировщик гибридных запросов
func NewPlanner(resources repository.ResourceRepository, index *vector.Index, metric vector.Metric, logger *slog.Logger) *Planner {
	return &Planner{
		resources: resources,
		index:     index,
		metric:    metric,
		logger:    logger,
	}
}

// Search возвращает до k ресурсов, упорядоченных по близости к q,
// каждый из которых точно удовлетворяет предикату. Ранжирование
// приближённое; вызывающим гарантируется только высокая вероятность
// настоящих top-k.
func (p *Planner) Search(ctx context.Context, q []float32, k int, filter domain.ResourceFilter) (*Result, error) {
	if k <= 0 {
		return &Result{}, nil
	}
	if len(q) != p.index.Dim() {
		return nil, vector.ErrDimensionMismatch
	}

	total, err := p.resources.CountEmbedded(ctx, domain.ResourceFilter{})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Result{LowConfidence: true}, nil
		}
		return nil, err
	}
	if total == 0 {
		return &Result{}, nil
	}

	matching := total
	if !filter.Empty() {
		matching, err = p.resources.CountEmbedded(ctx, filter)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return &Result{LowConfidence: true}, nil
			}
			return nil, err
		}
		if matching == 0 {
			return &Result{}, nil
		}
	}

	selectivity := float64(matching) / float64(total)
	if !filter.Empty() && selectivity <= selectivityCutoff && matching <= maxFilteredSet {
		return p.searchFiltered(ctx, q, k, filter)
	}
	return p.searchWidening(ctx, q, k, filter, total)
}

// searchFiltered - селективный путь: кандидаты из реляционного хранилища
// ограничивают обход индекса, чтобы не сканировать весь граф.
// Истечение бюджета латентности и здесь отдаётся как частичный
// результат с LowConfidence, а не как ошибка.
func (p *Planner) searchFiltered(ctx context.Context, q []float32, k int, filter domain.ResourceFilter) (*Result, error) {
	ids, err := p.resources.EmbeddedIDs(ctx, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Result{LowConfidence: true}, nil
		}
		return nil, err
	}

	candidates := make(map[int64]bool, len(ids))
	for _, id := range ids {
		candidates[id] = true
	}

	hits, err := p.index.Search(q, k, func(id int64) bool { return candidates[id] })
	if err != nil {
		if errors.Is(err, vector.ErrIndexUnavailable) {
			return p.exactScan(ctx, q, k, filter)
		}
		return nil, err
	}

	result, err := p.materialize(ctx, hits, k, filter, false)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Result{LowConfidence: true}, nil
		}
		return nil, err
	}
	return result, nil
}

// searchWidening - неселективный путь: обычный поиск с пост-фильтром и
// адаптивным расширением k, не больше maxWidenings удвоений
func (p *Planner) searchWidening(ctx context.Context, q []float32, k int, filter domain.ResourceFilter, total int64) (*Result, error) {
	curK := k

	for attempt := 0; ; attempt++ {
		hits, err := p.index.Search(q, curK, nil)
		if err != nil {
			if errors.Is(err, vector.ErrIndexUnavailable) {
				return p.exactScan(ctx, q, k, filter)
			}
			return nil, err
		}

		result, err := p.materialize(ctx, hits, k, filter, false)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return &Result{LowConfidence: true}, nil
			}
			return nil, err
		}

		if len(result.Items) >= k || int64(curK) >= total {
			return result, nil
		}
		if attempt >= maxWidenings {
			p.logger.Warn("hybrid search widening exhausted",
				slog.Int("k", k),
				slog.Int("survivors", len(result.Items)),
			)
			result.LowConfidence = true
			return result, nil
		}
		if ctx.Err() != nil {
			result.LowConfidence = true
			return result, nil
		}

		curK *= 2
	}
}

// exactScan - запасной путь при недоступном индексе: точное линейное
// сканирование по реляционному хранилищу, медленнее, но без отказа
func (p *Planner) exactScan(ctx context.Context, q []float32, k int, filter domain.ResourceFilter) (*Result, error) {
	p.logger.Warn("vector index unavailable, falling back to exact scan")

	rows, err := p.resources.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ScoredResource, 0, len(rows))
	for _, res := range rows {
		if res.Embedding == nil {
			continue
		}
		items = append(items, ScoredResource{
			Resource: res,
			Score:    p.metric.Distance(q, res.Embedding),
		})
	}

	sortScored(items)
	if len(items) > k {
		items = items[:k]
	}
	return &Result{Items: items}, nil
}

// materialize загружает строки ресурсов под найденные id, перепроверяя
// предикат в SQL: ложных срабатываний в выдаче не бывает
func (p *Planner) materialize(ctx context.Context, hits []vector.Hit, k int, filter domain.ResourceFilter, lowConfidence bool) (*Result, error) {
	if len(hits) == 0 {
		return &Result{LowConfidence: lowConfidence}, nil
	}

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	rows, err := p.resources.GetByIDsMatching(ctx, ids, filter)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Resource, len(rows))
	for _, res := range rows {
		byID[res.ID] = res
	}

	items := make([]ScoredResource, 0, len(hits))
	for _, h := range hits {
		res, ok := byID[h.ID]
		if !ok {
			continue
		}
		items = append(items, ScoredResource{Resource: res, Score: h.Distance})
	}

	sortScored(items)
	if len(items) > k {
		items = items[:k]
	}
	return &Result{Items: items, LowConfidence: lowConfidence}, nil
}

// sortScored упорядочивает выдачу: расстояние по возрастанию,
// при равенстве - id ресурса по возрастанию
func sortScored(items []ScoredResource) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score < items[j].Score
		}
		return items[i].Resource.ID < items[j].Resource.ID
	})
}
