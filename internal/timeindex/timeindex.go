// Package timeindex finds the closest sample to a timestamp in a time-sorted
// slice. It is used to align series that are sampled on different calendars.
package timeindex

import "StockAnalyzerView/internal/model"

// Direction picks the neighbour returned when there is no exact match.
type Direction int

const (
	// Left returns the smallest index whose time is >= target.
	Left Direction = iota
	// Right returns the largest index whose time is <= target.
	Right
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

type cacheKey struct {
	target int64
	dir    Direction
}

// Index is a memoizing binary-search lookup over one backing slice.
// The cache belongs to the slice the Index was built with: when the slice is
// replaced, build a new Index. Not safe for concurrent use.
type Index[T model.Timed] struct {
	items []T
	cache map[cacheKey]int
}

// New builds an Index over items, which must be sorted by ascending time.
func New[T model.Timed](items []T) *Index[T] {
	return &Index[T]{
		items: items,
		cache: make(map[cacheKey]int),
	}
}

// Len returns the number of indexed items.
func (x *Index[T]) Len() int { return len(x.items) }

// FindClosestIndex returns the index of the item closest to target in the
// given direction. Targets before the first item map to 0 and targets after
// the last item map to the last index. Returns -1 for an empty slice.
func (x *Index[T]) FindClosestIndex(target int64, dir Direction) int {
	key := cacheKey{target: target, dir: dir}
	if idx, ok := x.cache[key]; ok {
		return idx
	}
	idx := x.search(target, dir)
	x.cache[key] = idx
	return idx
}

func (x *Index[T]) search(target int64, dir Direction) int {
	if len(x.items) == 0 {
		return -1
	}
	low, high := 0, len(x.items)-1
	if target <= x.items[0].Timestamp() {
		return 0
	}
	if target >= x.items[high].Timestamp() {
		return high
	}

	for low <= high {
		mid := int(uint(low+high) >> 1)
		t := x.items[mid].Timestamp()
		switch {
		case t == target:
			return mid
		case t > target:
			high = mid - 1
		default:
			low = mid + 1
		}
	}

	// low and high have crossed: items[high] < target < items[low]
	if dir == Left {
		return low
	}
	return high
}
