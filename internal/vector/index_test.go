package vector

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, dim int) *Index {
	t.Helper()
	ix, err := New(Config{Dim: dim, Metric: Cosine, Seed: 42})
	require.NoError(t, err)
	return ix
}

func randomVec(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

func TestInsert_DimensionMismatch(t *testing.T) {
	ix := newTestIndex(t, 8)

	err := ix.Insert(1, make([]float32, 7))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = ix.Insert(1, make([]float32, 9))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = ix.Search(make([]float32, 3), 5, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix := newTestIndex(t, 8)

	hits, err := ix.Search(make([]float32, 8), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// Вектор, совпадающий с проиндексированным байт в байт, обязан попасть
// в выдачу с нулевым расстоянием независимо от структуры графа.
func TestSearch_ExactSelfMatch(t *testing.T) {
	const (
		dim = 128
		n   = 1000
	)

	ix := newTestIndex(t, dim)
	rng := rand.New(rand.NewSource(7))

	vecs := make(map[int64][]float32, n)
	for id := int64(1); id <= n; id++ {
		v := randomVec(rng, dim)
		vecs[id] = v
		require.NoError(t, ix.Insert(id, v))
	}

	for id, v := range vecs {
		hits, err := ix.Search(v, 1, nil)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, id, hits[0].ID, "query identical to stored vector must return it first")
		assert.InDelta(t, 0.0, float64(hits[0].Distance), 1e-5)
	}
}

func TestSearch_RecallAgainstLinear(t *testing.T) {
	const (
		dim     = 32
		n       = 2000
		queries = 50
		k       = 10
	)

	ix := newTestIndex(t, dim)
	rng := rand.New(rand.NewSource(99))

	for id := int64(1); id <= n; id++ {
		require.NoError(t, ix.Insert(id, randomVec(rng, dim)))
	}

	var found, total int
	for range queries {
		q := randomVec(rng, dim)

		exact, err := ix.Linear(q, k, nil)
		require.NoError(t, err)

		approx, err := ix.Search(q, k, nil)
		require.NoError(t, err)

		approxIDs := make(map[int64]bool, len(approx))
		for _, h := range approx {
			approxIDs[h.ID] = true
		}

		for _, h := range exact {
			total++
			if approxIDs[h.ID] {
				found++
			}
		}
	}

	recall := float64(found) / float64(total)
	assert.GreaterOrEqual(t, recall, 0.95, "recall@%d too low: %.3f", k, recall)
}

func TestSearch_TwoClustersStayConnected(t *testing.T) {
	ix := newTestIndex(t, 4)

	// Два плотных кластера в ортогональных направлениях; вставки второго
	// приходят, когда списки соседей первого уже заполнены.
	for id := int64(1); id <= 60; id++ {
		require.NoError(t, ix.Insert(id, []float32{0, 1, float32(id) * 0.001, 0}))
	}
	for id := int64(61); id <= 100; id++ {
		require.NoError(t, ix.Insert(id, []float32{1, 0, float32(id) * 0.001, 0}))
	}

	hits, err := ix.Search([]float32{1, 0, 0, 0}, 32, nil)
	require.NoError(t, err)
	require.Len(t, hits, 32)

	for _, h := range hits {
		assert.Greater(t, h.ID, int64(60), "hit %d belongs to the far cluster", h.ID)
		assert.Less(t, h.Distance, float32(0.5))
	}
}

func TestInsert_UpsertReplacesVector(t *testing.T) {
	ix := newTestIndex(t, 4)

	require.NoError(t, ix.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, ix.Insert(2, []float32{0, 1, 0, 0}))
	require.NoError(t, ix.Insert(1, []float32{0, 0, 1, 0}))

	assert.Equal(t, 2, ix.Len())

	hits, err := ix.Search([]float32{0, 0, 1, 0}, 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.InDelta(t, 0.0, float64(hits[0].Distance), 1e-5)
}

func TestRemove_TombstoneAndRepair(t *testing.T) {
	const (
		dim = 16
		n   = 300
	)

	ix := newTestIndex(t, dim)
	rng := rand.New(rand.NewSource(3))

	vecs := make(map[int64][]float32, n)
	for id := int64(1); id <= n; id++ {
		v := randomVec(rng, dim)
		vecs[id] = v
		require.NoError(t, ix.Insert(id, v))
	}

	// Удаляем половину, удалённые не должны появляться в выдаче
	for id := int64(1); id <= n/2; id++ {
		require.NoError(t, ix.Remove(id))
	}
	assert.Equal(t, n/2, ix.Len())

	for range 20 {
		q := randomVec(rng, dim)
		hits, err := ix.Search(q, 10, nil)
		require.NoError(t, err)
		for _, h := range hits {
			assert.Greater(t, h.ID, int64(n/2), "removed id %d returned", h.ID)
		}
	}

	// Выжившие вектора всё ещё находимы точным совпадением
	for id := int64(n/2 + 1); id <= n; id += 37 {
		hits, err := ix.Search(vecs[id], 1, nil)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, id, hits[0].ID)
	}
}

func TestRemove_Missing(t *testing.T) {
	ix := newTestIndex(t, 4)
	assert.NoError(t, ix.Remove(42))
}

func TestSearch_Filtered(t *testing.T) {
	const (
		dim = 16
		n   = 500
	)

	ix := newTestIndex(t, dim)
	rng := rand.New(rand.NewSource(11))

	for id := int64(1); id <= n; id++ {
		require.NoError(t, ix.Insert(id, randomVec(rng, dim)))
	}

	// Допускаем только чётные id, нечётные остаются маршрутными узлами
	even := func(id int64) bool { return id%2 == 0 }

	for range 10 {
		q := randomVec(rng, dim)
		hits, err := ix.Search(q, 10, even)
		require.NoError(t, err)
		assert.NotEmpty(t, hits)
		for _, h := range hits {
			assert.Zero(t, h.ID%2, "filter must exclude odd ids, got %d", h.ID)
		}
	}
}

func TestSearch_FilterRejectsAll(t *testing.T) {
	ix := newTestIndex(t, 4)
	rng := rand.New(rand.NewSource(5))

	for id := int64(1); id <= 50; id++ {
		require.NoError(t, ix.Insert(id, randomVec(rng, 4)))
	}

	hits, err := ix.Search(randomVec(rng, 4), 10, func(int64) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestHealthy_MarkUnavailable(t *testing.T) {
	ix := newTestIndex(t, 4)
	assert.True(t, ix.Healthy())

	ix.MarkUnavailable()
	assert.False(t, ix.Healthy())

	_, err := ix.Search(make([]float32, 4), 5, nil)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestDistance_Metrics(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	assert.InDelta(t, 1.0, float64(Cosine.Distance(a, b)), 1e-6)
	assert.InDelta(t, 0.0, float64(Cosine.Distance(a, a)), 1e-6)
	assert.InDelta(t, math.Sqrt2, float64(Euclidean.Distance(a, b)), 1e-6)
}
