// Package vector реализует in-process приближённый поиск ближайших соседей
// над embedding-векторами ресурсов: многослойный граф близости в духе HNSW.
// Поиск приближённый по построению: индекс гарантирует только высокую
// вероятность возврата настоящих top-k, а не точность. Единственное
// исключение - точное самосовпадение: вектор, идентичный проиндексированному,
// всегда находит его.
package vector

import (
	"container/heap"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrIndexUnavailable  = errors.New("vector index unavailable")
)

const (
	defaultM              = 16
	defaultEfConstruction = 200
	defaultEfSearch       = 64

	// Множитель бюджета обхода: на запрос посещается не более
	// ef * exploreFactor узлов, что ограничивает худшую латентность.
	exploreFactor = 8
)

// Config - параметры индекса
type Config struct {
	Dim            int
	Metric         Metric
	M              int // максимум связей узла на слой (на нулевом слое 2*M)
	EfConstruction int
	EfSearch       int
	Seed           int64
}

// Hit - результат поиска: идентификатор ресурса и расстояние до запроса
type Hit struct {
	ID       int64
	Distance float32
}

// FilterFunc исключает кандидатов прямо во время обхода графа.
// Узлы, не прошедшие фильтр, остаются маршрутными, но не попадают в выдачу.
type FilterFunc func(id int64) bool

type node struct {
	id      int64
	vec     []float32
	deleted bool
	links   [][]int64 // соседи по слоям, len = уровень узла + 1
}

// Index - потокобезопасный многослойный граф близости.
// Гранулярность блокировки - весь граф: одна RWMutex без замков на узел,
// чтения идут параллельно, любая мутация останавливает все поиски целиком.
type Index struct {
	mu        sync.RWMutex
	cfg       Config
	nodes     map[int64]*node
	exact     map[uint64][]int64 // хэш байтов вектора -> ids для точного самосовпадения
	entryID   int64
	hasEntry  bool
	maxLevel  int
	levelMult float64
	rng       *rand.Rand
	healthy   bool
}

// New создаёт пустой индекс с фиксированной размерностью и метрикой
func New(cfg Config) (*Index, error) {
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("vector index dimension must be positive, got %d", cfg.Dim)
	}
	if cfg.Metric != Cosine && cfg.Metric != Euclidean {
		return nil, fmt.Errorf("unknown vector metric %q", cfg.Metric)
	}
	if cfg.M <= 0 {
		cfg.M = defaultM
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = defaultEfConstruction
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = defaultEfSearch
	}

	return &Index{
		cfg:       cfg,
		nodes:     make(map[int64]*node),
		exact:     make(map[uint64][]int64),
		levelMult: 1 / math.Log(float64(cfg.M)),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		healthy:   true,
	}, nil
}

// Dim возвращает размерность индекса
func (ix *Index) Dim() int {
	return ix.cfg.Dim
}

// Len возвращает число живых узлов
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	count := 0
	for _, n := range ix.nodes {
		if !n.deleted {
			count++
		}
	}
	return count
}

// Healthy сообщает, доступен ли индекс для поиска
func (ix *Index) Healthy() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.healthy
}

// MarkUnavailable помечает индекс недоступным; поиск по нему возвращает
// ErrIndexUnavailable, и вызывающий переходит на точное линейное сканирование
func (ix *Index) MarkUnavailable() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.healthy = false
}

// Insert добавляет вектор в индекс, связывая его с приближёнными
// ближайшими соседями на каждом слое. Уровень узла выбирается случайно
// с геометрически убывающей вероятностью. Повторная вставка того же id
// заменяет прежний вектор.
func (ix *Index) Insert(id int64, vec []float32) error {
	if len(vec) != ix.cfg.Dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.cfg.Dim)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, ok := ix.nodes[id]; ok {
		if !existing.deleted {
			ix.removeLocked(existing)
		}
		delete(ix.nodes, id)
	}

	stored := make([]float32, len(vec))
	copy(stored, vec)

	level := ix.randomLevel()
	n := &node{
		id:    id,
		vec:   stored,
		links: make([][]int64, level+1),
	}
	ix.nodes[id] = n
	ix.exact[hashVector(stored)] = append(ix.exact[hashVector(stored)], id)

	if !ix.hasEntry {
		ix.entryID = id
		ix.hasEntry = true
		ix.maxLevel = level
		return nil
	}

	// Жадный спуск по верхним слоям до уровня нового узла
	ep := ix.entryID
	for lc := ix.maxLevel; lc > level; lc-- {
		ep = ix.greedyClosest(stored, ep, lc)
	}

	// Связывание на слоях от min(level, maxLevel) до нулевого
	top := level
	if ix.maxLevel < top {
		top = ix.maxLevel
	}
	for lc := top; lc >= 0; lc-- {
		budget := ix.cfg.EfConstruction * exploreFactor
		cands := ix.searchLayer(stored, ep, ix.cfg.EfConstruction, lc, &budget, nil, false)

		limit := ix.cfg.M
		if lc == 0 {
			limit = ix.cfg.M * 2
		}

		neighbors := ix.selectNeighbors(stored, cands, limit)
		n.links[lc] = neighbors

		for _, nbID := range neighbors {
			nb := ix.nodes[nbID]
			nb.links[lc] = append(nb.links[lc], id)
			if len(nb.links[lc]) > limit {
				nb.links[lc] = ix.pruneLinks(nb, lc, limit)
			}
		}

		if len(cands) > 0 {
			ep = cands[0].ID
		}
	}

	if level > ix.maxLevel {
		ix.maxLevel = level
		ix.entryID = id
	}

	return nil
}

// Remove помечает узел удалённым и чинит локальную связность:
// живые соседи удаляемого узла связываются между собой, а ссылка на него
// вычищается из их списков. Полной перестройки индекса не происходит.
func (ix *Index) Remove(id int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n, ok := ix.nodes[id]
	if !ok || n.deleted {
		return nil
	}
	ix.removeLocked(n)
	return nil
}

func (ix *Index) removeLocked(n *node) {
	n.deleted = true

	h := hashVector(n.vec)
	ids := ix.exact[h]
	for i, cand := range ids {
		if cand == n.id {
			ix.exact[h] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ix.exact[h]) == 0 {
		delete(ix.exact, h)
	}

	for lc := range n.links {
		limit := ix.cfg.M
		if lc == 0 {
			limit = ix.cfg.M * 2
		}

		// Живые соседи удаляемого узла
		alive := make([]*node, 0, len(n.links[lc]))
		for _, nbID := range n.links[lc] {
			if nb, ok := ix.nodes[nbID]; ok && !nb.deleted {
				alive = append(alive, nb)
			}
		}

		for _, nb := range alive {
			// Вычищаем ссылку на удаляемый узел
			kept := nb.links[lc][:0]
			for _, lnk := range nb.links[lc] {
				if lnk != n.id {
					kept = append(kept, lnk)
				}
			}
			nb.links[lc] = kept

			// Интерконнект оставшихся соседей между собой
			for _, other := range alive {
				if other.id == nb.id || containsID(nb.links[lc], other.id) {
					continue
				}
				nb.links[lc] = append(nb.links[lc], other.id)
			}
			if len(nb.links[lc]) > limit {
				nb.links[lc] = ix.pruneLinks(nb, lc, limit)
			}
		}
	}

	if ix.entryID == n.id {
		ix.electEntry()
	}
}

// electEntry выбирает новую точку входа среди живых узлов
func (ix *Index) electEntry() {
	ix.hasEntry = false
	ix.maxLevel = 0
	for _, cand := range ix.nodes {
		if cand.deleted {
			continue
		}
		level := len(cand.links) - 1
		if !ix.hasEntry || level > ix.maxLevel {
			ix.hasEntry = true
			ix.entryID = cand.id
			ix.maxLevel = level
		}
	}
}

// Search возвращает до k ближайших живых узлов, прошедших фильтр.
// Обход ограничен бюджетом ef*exploreFactor посещений; отфильтрованные и
// удалённые узлы остаются маршрутными, но в выдачу не попадают. Результат
// упорядочен по возрастанию расстояния, при равенстве - по возрастанию id.
func (ix *Index) Search(q []float32, k int, filter FilterFunc) ([]Hit, error) {
	if len(q) != ix.cfg.Dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(q), ix.cfg.Dim)
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.healthy {
		return nil, ErrIndexUnavailable
	}
	if !ix.hasEntry {
		return nil, nil
	}

	ef := ix.cfg.EfSearch
	if ef < k {
		ef = k
	}

	ep := ix.entryID
	for lc := ix.maxLevel; lc >= 1; lc-- {
		ep = ix.greedyClosest(q, ep, lc)
	}

	budget := ef * exploreFactor
	hits := ix.searchLayer(q, ep, ef, 0, &budget, filter, true)

	// Точное самосовпадение никогда не теряется из-за приближённости:
	// идентичный проиндексированному вектор подмешивается в кандидаты напрямую.
	for _, id := range ix.exact[hashVector(q)] {
		n := ix.nodes[id]
		if n == nil || n.deleted {
			continue
		}
		if filter != nil && !filter(id) {
			continue
		}
		if !containsHit(hits, id) {
			hits = append(hits, Hit{ID: id, Distance: ix.cfg.Metric.Distance(q, n.vec)})
		}
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Linear выполняет точное линейное сканирование всех живых узлов.
// Используется как запасной путь и в проверках recall.
func (ix *Index) Linear(q []float32, k int, filter FilterFunc) ([]Hit, error) {
	if len(q) != ix.cfg.Dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(q), ix.cfg.Dim)
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]Hit, 0, k)
	for _, n := range ix.nodes {
		if n.deleted {
			continue
		}
		if filter != nil && !filter(n.id) {
			continue
		}
		hits = append(hits, Hit{ID: n.id, Distance: ix.cfg.Metric.Distance(q, n.vec)})
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// greedyClosest спускается по слою к локально ближайшему узлу
func (ix *Index) greedyClosest(q []float32, epID int64, layer int) int64 {
	cur := epID
	curDist := ix.cfg.Metric.Distance(q, ix.nodes[cur].vec)

	for {
		improved := false
		n := ix.nodes[cur]
		if layer >= len(n.links) {
			return cur
		}
		for _, nbID := range n.links[layer] {
			nb, ok := ix.nodes[nbID]
			if !ok {
				continue
			}
			if d := ix.cfg.Metric.Distance(q, nb.vec); d < curDist {
				cur = nbID
				curDist = d
				improved = true
			}
		}
		if !improved {
			return cur
		}
	}
}

// searchLayer - поиск лучом на одном слое с ограниченным бюджетом посещений.
// При applyFilter удалённые и отфильтрованные узлы обходятся, но не выдаются.
func (ix *Index) searchLayer(q []float32, epID int64, ef, layer int, budget *int, filter FilterFunc, applyFilter bool) []Hit {
	ep := ix.nodes[epID]
	epDist := ix.cfg.Metric.Distance(q, ep.vec)

	visited := map[int64]bool{epID: true}
	cand := &minQueue{{ID: epID, Distance: epDist}}
	heap.Init(cand)

	res := &maxQueue{}
	heap.Init(res)
	if ix.admissible(ep, filter, applyFilter) {
		heap.Push(res, Hit{ID: epID, Distance: epDist})
	}

	for cand.Len() > 0 {
		c := heap.Pop(cand).(Hit)
		if res.Len() >= ef && c.Distance > (*res)[0].Distance {
			break
		}

		n := ix.nodes[c.ID]
		if layer >= len(n.links) {
			continue
		}
		for _, nbID := range n.links[layer] {
			if visited[nbID] {
				continue
			}
			visited[nbID] = true

			if *budget <= 0 {
				continue
			}
			*budget--

			nb, ok := ix.nodes[nbID]
			if !ok {
				continue
			}
			d := ix.cfg.Metric.Distance(q, nb.vec)
			if res.Len() < ef || d < (*res)[0].Distance {
				heap.Push(cand, Hit{ID: nbID, Distance: d})
				if ix.admissible(nb, filter, applyFilter) {
					heap.Push(res, Hit{ID: nbID, Distance: d})
					if res.Len() > ef {
						heap.Pop(res)
					}
				}
			}
		}
	}

	hits := make([]Hit, res.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(res).(Hit)
	}
	return hits
}

func (ix *Index) admissible(n *node, filter FilterFunc, applyFilter bool) bool {
	if n.deleted {
		return false
	}
	if applyFilter && filter != nil && !filter(n.id) {
		return false
	}
	return true
}

// pruneLinks усечает список соседей узла до limit живых с учётом разнообразия направлений
func (ix *Index) pruneLinks(n *node, layer, limit int) []int64 {
	hits := make([]Hit, 0, len(n.links[layer]))
	for _, nbID := range n.links[layer] {
		nb, ok := ix.nodes[nbID]
		if !ok || nb.deleted {
			continue
		}
		hits = append(hits, Hit{ID: nbID, Distance: ix.cfg.Metric.Distance(n.vec, nb.vec)})
	}
	sortHits(hits)
	return ix.selectNeighbors(n.vec, hits, limit)
}

// selectNeighbors отбирает из отсортированных по возрастанию кандидатов не больше limit.
// Кандидат проходит, если к базе он ближе, чем к любому уже отобранному: так выживают
// рёбра в стороны редких направлений, и усечение не рвёт граф на изолированные кластеры.
// Остаток добирается ближайшими из отброшенных.
func (ix *Index) selectNeighbors(base []float32, cands []Hit, limit int) []int64 {
	if len(cands) <= limit {
		out := make([]int64, len(cands))
		for i, c := range cands {
			out[i] = c.ID
		}
		return out
	}

	kept := make([]Hit, 0, limit)
	skipped := make([]Hit, 0, len(cands))
	for _, c := range cands {
		if len(kept) >= limit {
			break
		}
		diverse := true
		cv := ix.nodes[c.ID].vec
		for _, k := range kept {
			if ix.cfg.Metric.Distance(cv, ix.nodes[k.ID].vec) < c.Distance {
				diverse = false
				break
			}
		}
		if diverse {
			kept = append(kept, c)
		} else {
			skipped = append(skipped, c)
		}
	}
	for _, c := range skipped {
		if len(kept) >= limit {
			break
		}
		kept = append(kept, c)
	}

	out := make([]int64, len(kept))
	for i, h := range kept {
		out[i] = h.ID
	}
	return out
}

// randomLevel выбирает уровень узла с геометрически убывающей вероятностью
func (ix *Index) randomLevel() int {
	u := ix.rng.Float64()
	for u == 0 {
		u = ix.rng.Float64()
	}
	level := int(-math.Log(u) * ix.levelMult)
	const maxAllowedLevel = 32
	if level > maxAllowedLevel {
		level = maxAllowedLevel
	}
	return level
}

func containsID(ids []int64, id int64) bool {
	for _, cand := range ids {
		if cand == id {
			return true
		}
	}
	return false
}

func containsHit(hits []Hit, id int64) bool {
	for _, h := range hits {
		if h.ID == id {
			return true
		}
	}
	return false
}

// hashVector хэширует сырые байты вектора для точного самосовпадения
func hashVector(vec []float32) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, f := range vec {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
		h.Write(buf[:])
	}
	return h.Sum64()
}
