package search

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResourceRepo - ресурсы в памяти с той же семантикой предиката,
// что и SQL-репозиторий
type fakeResourceRepo struct {
	resources map[int64]domain.Resource
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: make(map[int64]domain.Resource)}
}

func (f *fakeResourceRepo) add(res domain.Resource) {
	f.resources[res.ID] = res
}

func (f *fakeResourceRepo) matches(res domain.Resource, filter domain.ResourceFilter) bool {
	if filter.Category != nil {
		if res.Category == nil || *res.Category != *filter.Category {
			return false
		}
	}
	if filter.TitleQuery != nil && !strings.Contains(res.Title, *filter.TitleQuery) {
		return false
	}
	return true
}

func (f *fakeResourceRepo) GetByID(_ context.Context, id int64) (*domain.Resource, error) {
	res, ok := f.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return &res, nil
}

func (f *fakeResourceRepo) List(_ context.Context, filter domain.ResourceFilter) ([]domain.Resource, error) {
	var out []domain.Resource
	for _, res := range f.resources {
		if f.matches(res, filter) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeResourceRepo) CountEmbedded(ctx context.Context, filter domain.ResourceFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int64
	for _, res := range f.resources {
		if res.Embedding != nil && f.matches(res, filter) {
			count++
		}
	}
	return count, nil
}

func (f *fakeResourceRepo) EmbeddedIDs(ctx context.Context, filter domain.ResourceFilter) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []int64
	for _, res := range f.resources {
		if res.Embedding != nil && f.matches(res, filter) {
			ids = append(ids, res.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeResourceRepo) GetByIDsMatching(ctx context.Context, ids []int64, filter domain.ResourceFilter) ([]domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Resource
	for _, id := range ids {
		res, ok := f.resources[id]
		if ok && f.matches(res, filter) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeResourceRepo) AllEmbedded(_ context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	for _, res := range f.resources {
		if res.Embedding != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strptr(s string) *string { return &s }

// setupPlanner наполняет репозиторий и индекс одинаковым содержимым
func setupPlanner(t *testing.T, dim int, resources []domain.Resource) (*Planner, *fakeResourceRepo, *vector.Index) {
	t.Helper()

	repo := newFakeResourceRepo()
	ix, err := vector.New(vector.Config{Dim: dim, Metric: vector.Cosine, Seed: 1})
	require.NoError(t, err)

	for _, res := range resources {
		repo.add(res)
		if res.Embedding != nil {
			require.NoError(t, ix.Insert(res.ID, res.Embedding))
		}
	}

	return NewPlanner(repo, ix, vector.Cosine, testLogger()), repo, ix
}

func randomUnitVec(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

func TestSearch_SelectivePath_NoFalsePositives(t *testing.T) {
	const dim = 16
	rng := rand.New(rand.NewSource(21))

	// 100 ресурсов, только 10 в категории docs: предикат селективный
	var resources []domain.Resource
	for id := int64(1); id <= 100; id++ {
		category := "misc"
		if id <= 10 {
			category = "docs"
		}
		resources = append(resources, domain.Resource{
			ID:        id,
			Title:     fmt.Sprintf("resource %d", id),
			Category:  strptr(category),
			Embedding: randomUnitVec(rng, dim),
		})
	}

	planner, _, _ := setupPlanner(t, dim, resources)

	result, err := planner.Search(context.Background(), randomUnitVec(rng, dim), 5, domain.ResourceFilter{
		Category: strptr("docs"),
	})
	require.NoError(t, err)
	assert.False(t, result.LowConfidence)
	assert.Len(t, result.Items, 5)

	for _, item := range result.Items {
		require.NotNil(t, item.Resource.Category)
		assert.Equal(t, "docs", *item.Resource.Category)
	}
}

func TestSearch_WideningPath_NoFalsePositives(t *testing.T) {
	const dim = 16
	rng := rand.New(rand.NewSource(22))

	// 60 из 100 в категории guides: предикат неселективный, пост-фильтр
	var resources []domain.Resource
	for id := int64(1); id <= 100; id++ {
		category := "misc"
		if id <= 60 {
			category = "guides"
		}
		resources = append(resources, domain.Resource{
			ID:        id,
			Title:     fmt.Sprintf("resource %d", id),
			Category:  strptr(category),
			Embedding: randomUnitVec(rng, dim),
		})
	}

	planner, _, _ := setupPlanner(t, dim, resources)

	result, err := planner.Search(context.Background(), randomUnitVec(rng, dim), 10, domain.ResourceFilter{
		Category: strptr("guides"),
	})
	require.NoError(t, err)
	assert.Len(t, result.Items, 10)

	for _, item := range result.Items {
		require.NotNil(t, item.Resource.Category)
		assert.Equal(t, "guides", *item.Resource.Category)
	}
}

func TestSearch_WideningExhausted_LowConfidence(t *testing.T) {
	const dim = 4

	// Подходящие под предикат вектора ортогональны запросу, неподходящие
	// лежат рядом с ним: расширение k не успевает набрать top-k
	var resources []domain.Resource
	for id := int64(1); id <= 60; id++ {
		resources = append(resources, domain.Resource{
			ID:        id,
			Title:     fmt.Sprintf("guide %d", id),
			Category:  strptr("guides"),
			Embedding: []float32{0, 1, float32(id) * 0.001, 0},
		})
	}
	for id := int64(61); id <= 100; id++ {
		resources = append(resources, domain.Resource{
			ID:        id,
			Title:     fmt.Sprintf("misc %d", id),
			Category:  strptr("misc"),
			Embedding: []float32{1, 0, float32(id) * 0.001, 0},
		})
	}

	planner, _, _ := setupPlanner(t, dim, resources)

	// Предикат guides неселективный (60 из 100), но ближайшие 40 векторов
	// его не проходят: после трёх удвоений (4 -> 8 -> 16 -> 32) выживших
	// всё ещё нет, планировщик честно сообщает о неполной выдаче
	result, err := planner.Search(context.Background(), []float32{1, 0, 0, 0}, 4, domain.ResourceFilter{
		Category: strptr("guides"),
	})
	require.NoError(t, err)
	assert.True(t, result.LowConfidence)
	for _, item := range result.Items {
		assert.Equal(t, "guides", *item.Resource.Category)
	}
}

// deadlineRepo имитирует материализацию, не уложившуюся в бюджет латентности
type deadlineRepo struct {
	*fakeResourceRepo
}

func (d *deadlineRepo) GetByIDsMatching(context.Context, []int64, domain.ResourceFilter) ([]domain.Resource, error) {
	return nil, context.DeadlineExceeded
}

func TestSearch_ExpiredBudget_LowConfidence(t *testing.T) {
	const dim = 8
	rng := rand.New(rand.NewSource(24))

	var resources []domain.Resource
	for id := int64(1); id <= 20; id++ {
		resources = append(resources, domain.Resource{
			ID:        id,
			Title:     fmt.Sprintf("resource %d", id),
			Category:  strptr("docs"),
			Embedding: randomUnitVec(rng, dim),
		})
	}
	planner, _, _ := setupPlanner(t, dim, resources)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	// Бюджет исчерпан ещё до оценки селективности: частичный результат, не 500
	result, err := planner.Search(ctx, randomUnitVec(rng, dim), 5, domain.ResourceFilter{})
	require.NoError(t, err)
	assert.True(t, result.LowConfidence)
	assert.Empty(t, result.Items)
}

func TestSearch_SelectivePath_BudgetExhausted_LowConfidence(t *testing.T) {
	const dim = 16
	rng := rand.New(rand.NewSource(25))

	// 10 docs из 100: предикат селективный, поиск идёт по фильтрованному пути
	var resources []domain.Resource
	for id := int64(1); id <= 100; id++ {
		category := "misc"
		if id <= 10 {
			category = "docs"
		}
		resources = append(resources, domain.Resource{
			ID:        id,
			Title:     fmt.Sprintf("resource %d", id),
			Category:  strptr(category),
			Embedding: randomUnitVec(rng, dim),
		})
	}
	_, repo, ix := setupPlanner(t, dim, resources)
	planner := NewPlanner(&deadlineRepo{repo}, ix, vector.Cosine, testLogger())

	result, err := planner.Search(context.Background(), randomUnitVec(rng, dim), 5, domain.ResourceFilter{
		Category: strptr("docs"),
	})
	require.NoError(t, err)
	assert.True(t, result.LowConfidence)
	assert.Empty(t, result.Items)
}

func TestSearch_IndexUnavailable_FallsBackToExactScan(t *testing.T) {
	const dim = 8
	rng := rand.New(rand.NewSource(23))

	var resources []domain.Resource
	for id := int64(1); id <= 30; id++ {
		resources = append(resources, domain.Resource{
			ID:        id,
			Title:     fmt.Sprintf("resource %d", id),
			Category:  strptr("docs"),
			Embedding: randomUnitVec(rng, dim),
		})
	}

	planner, _, ix := setupPlanner(t, dim, resources)
	ix.MarkUnavailable()

	q := randomUnitVec(rng, dim)
	result, err := planner.Search(context.Background(), q, 5, domain.ResourceFilter{})
	require.NoError(t, err)
	require.Len(t, result.Items, 5)

	// Точный скан: выдача отсортирована по расстоянию
	for i := 1; i < len(result.Items); i++ {
		assert.LessOrEqual(t, result.Items[i-1].Score, result.Items[i].Score)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	planner, _, _ := setupPlanner(t, 8, []domain.Resource{
		{ID: 1, Title: "a", Embedding: make([]float32, 8)},
	})

	_, err := planner.Search(context.Background(), make([]float32, 4), 5, domain.ResourceFilter{})
	assert.ErrorIs(t, err, vector.ErrDimensionMismatch)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	planner, _, _ := setupPlanner(t, 8, nil)

	result, err := planner.Search(context.Background(), make([]float32, 8), 5, domain.ResourceFilter{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.False(t, result.LowConfidence)
}

func TestSearch_UnembeddedExcluded(t *testing.T) {
	const dim = 8
	rng := rand.New(rand.NewSource(24))

	resources := []domain.Resource{
		{ID: 1, Title: "embedded", Embedding: randomUnitVec(rng, dim)},
		{ID: 2, Title: "plain link"},
	}

	planner, _, _ := setupPlanner(t, dim, resources)

	result, err := planner.Search(context.Background(), randomUnitVec(rng, dim), 5, domain.ResourceFilter{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Items[0].Resource.ID)
}
