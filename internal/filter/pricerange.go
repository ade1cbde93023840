package filter

import "github.com/and161185/imageshop/internal/model"

// PriceRange is the price slider state. It starts at [0,0], follows the catalog bounds
// while the user has not touched it, and is never overwritten after Set.
type PriceRange struct {
	min, max model.Money
	adjusted bool
}

// Observe follows the catalog bounds unless the user adjusted the range. An empty catalog
// leaves the range unchanged.
func (p *PriceRange) Observe(images []model.Image) {
	if p.adjusted || len(images) == 0 {
		return
	}
	p.min, p.max = Bounds(images)
}

// Set records a user adjustment. Reversed bounds are swapped.
func (p *PriceRange) Set(lo, hi model.Money) {
	if lo > hi {
		lo, hi = hi, lo
	}
	p.min, p.max = lo, hi
	p.adjusted = true
}

// Reset drops the user adjustment and snaps back to images' bounds.
func (p *PriceRange) Reset(images []model.Image) {
	p.adjusted = false
	p.min, p.max = 0, 0
	p.Observe(images)
}

// Bounds returns the current [min,max].
func (p *PriceRange) Bounds() (lo, hi model.Money) { return p.min, p.max }

// Adjusted reports whether the user set the range.
func (p *PriceRange) Adjusted() bool { return p.adjusted }

// ApplyTo copies the range into st.
func (p *PriceRange) ApplyTo(st *model.FilterState) {
	st.PriceMin, st.PriceMax = p.min, p.max
}
