package vector

import "sort"

// minQueue - мин-куча кандидатов обхода по расстоянию
type minQueue []Hit

func (q minQueue) Len() int { return len(q) }

func (q minQueue) Less(i, j int) bool {
	if q[i].Distance != q[j].Distance {
		return q[i].Distance < q[j].Distance
	}
	return q[i].ID < q[j].ID
}

func (q minQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *minQueue) Push(x any) { *q = append(*q, x.(Hit)) }

func (q *minQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// maxQueue - макс-куча текущих результатов: вершина - худший из найденных
type maxQueue []Hit

func (q maxQueue) Len() int { return len(q) }

func (q maxQueue) Less(i, j int) bool {
	if q[i].Distance != q[j].Distance {
		return q[i].Distance > q[j].Distance
	}
	return q[i].ID > q[j].ID
}

func (q maxQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *maxQueue) Push(x any) { *q = append(*q, x.(Hit)) }

func (q *maxQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// sortHits упорядочивает результаты: расстояние по возрастанию,
// при равенстве - id по возрастанию для детерминизма
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
}
