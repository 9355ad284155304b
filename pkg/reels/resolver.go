package reels

import "math"

// Unset is the active index before the first measurement.
const Unset = -1

// ActiveIndex resolves the active item from a snap-scroll offset. One item
// fills one viewport of height. Returns Unset when there is nothing to show.
func ActiveIndex(offset, height float64, count int) int {
	if count <= 0 || height <= 0 {
		return Unset
	}
	idx := int(math.Round(offset / height))
	if idx < 0 {
		return 0
	}
	if idx > count-1 {
		return count - 1
	}
	return idx
}

// Resolver tracks the scroll position and the index derived from it.
// Side effects key off index changes only, never raw scroll events.
type Resolver struct {
	offset float64
	height float64
	active int

	// PrefetchDistance is how many items before the last one the trailing
	// edge begins.
	PrefetchDistance int
}

// NewResolver returns a resolver with no measurement. Until a viewport
// height is reported each item is one unit tall.
func NewResolver(prefetchDistance int) *Resolver {
	if prefetchDistance < 0 {
		prefetchDistance = 0
	}
	return &Resolver{height: 1, active: Unset, PrefetchDistance: prefetchDistance}
}

func (r *Resolver) Active() int     { return r.active }
func (r *Resolver) Offset() float64 { return r.offset }
func (r *Resolver) Height() float64 { return r.height }

// Measure records a scroll sample and reports whether the resolved index
// changed.
func (r *Resolver) Measure(offset, height float64, count int) (int, bool) {
	r.offset = offset
	if height > 0 {
		r.height = height
	}
	idx := ActiveIndex(r.offset, r.height, count)
	if idx == r.active {
		return idx, false
	}
	r.active = idx
	return idx, true
}

// Remeasure resolves again with the last sample, for when count changes.
func (r *Resolver) Remeasure(count int) (int, bool) {
	return r.Measure(r.offset, r.height, count)
}

// Step moves delta items from the active index, skipping indexes for which
// skip returns true, and snaps the offset to the target. It reports false
// when no valid target exists in that direction.
func (r *Resolver) Step(delta, count int, skip func(int) bool) (int, bool) {
	if delta == 0 || count <= 0 {
		return r.active, false
	}
	from := r.active
	if from == Unset {
		from = 0
		if delta > 0 {
			from = -1
		}
	}
	dir := 1
	if delta < 0 {
		dir = -1
	}
	target := from
	for moved := 0; moved != delta; {
		target += dir
		if target < 0 || target >= count {
			return r.active, false
		}
		if skip != nil && skip(target) {
			continue
		}
		moved += dir
	}
	r.active = target
	r.offset = float64(target) * r.height
	return target, true
}

// AtTrailingEdge reports whether the active item is close enough to the
// end that the next page should be requested.
func (r *Resolver) AtTrailingEdge(count int) bool {
	if r.active == Unset || count == 0 {
		return false
	}
	return r.active >= count-1-r.PrefetchDistance
}

// Reset forgets the measurement, keeping the viewport height.
func (r *Resolver) Reset() {
	r.offset = 0
	r.active = Unset
}
