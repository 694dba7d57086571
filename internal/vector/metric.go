package vector

import (
	"fmt"
	"math"
)

// Metric - метрика расстояния индекса. Фиксируется при построении,
// смешивать метрики в одном индексе нельзя.
type Metric string

const (
	Cosine    Metric = "cosine"
	Euclidean Metric = "euclidean"
)

// ParseMetric разбирает метрику из конфигурации
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case Cosine:
		return Cosine, nil
	case Euclidean:
		return Euclidean, nil
	}
	return "", fmt.Errorf("unknown vector metric %q", s)
}

// Distance возвращает расстояние между векторами: чем меньше, тем ближе.
// Для косинусной метрики это 1 - cos(a, b), для евклидовой - L2-норма разности.
func (m Metric) Distance(a, b []float32) float32 {
	switch m {
	case Euclidean:
		var sum float64
		for i := range a {
			d := float64(a[i] - b[i])
			sum += d * d
		}
		return float32(math.Sqrt(sum))
	default:
		var dot, normA, normB float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			normA += float64(a[i]) * float64(a[i])
			normB += float64(b[i]) * float64(b[i])
		}
		if normA == 0 || normB == 0 {
			return 1
		}
		return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
	}
}
