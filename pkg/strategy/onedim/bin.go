// Package onedim implements the 1D First-Fit-Decreasing and
// Best-Fit-Decreasing bar-cutting strategies.
package onedim

import "github.com/cutstock/engine/pkg/models"

// bar tracks one open bar being filled from a stock unit. remaining is
// the usable length left, already accounting for the kerf each placed
// piece consumes on its trailing edge.
type bar struct {
	stockID    string
	width      float64
	remaining  float64
	placements []models.Placement
}

// fits reports whether piece of the given length can still be placed in
// the bar, leaving room for its trailing kerf.
func (b *bar) fits(length, kerf float64) bool {
	return b.remaining >= length+kerf
}

// place appends a placement at the bar's current fill position and
// consumes length+kerf from the remaining budget.
func (b *bar) place(e models.ExpandedPiece, kerf float64) {
	x := b.width - b.remaining
	b.placements = append(b.placements, models.Placement{
		PieceID:     e.ID,
		OrderItemID: e.OrderItemID,
		X:           x,
		Y:           0,
		Width:       e.Width,
		Height:      0,
		Rotated:     false,
	})
	b.remaining -= e.Width + kerf
}

// stockPool tracks the remaining available budget per stock id, in the
// stocks' pre-sorted (area-descending) order.
type stockPool struct {
	stocks    []models.Stock
	available map[string]int
}

func newStockPool(stocks []models.Stock) *stockPool {
	avail := make(map[string]int, len(stocks))
	for _, s := range stocks {
		avail[s.ID] += s.Available
	}
	return &stockPool{stocks: stocks, available: avail}
}

// openBar finds the first stock (in area-descending order) that still
// has budget and is large enough to hold length+kerf, consumes one unit
// of its budget, and returns a fresh bar. Returns nil if none qualifies.
func (p *stockPool) openBar(length, kerf float64) *bar {
	for _, s := range p.stocks {
		if p.available[s.ID] <= 0 {
			continue
		}
		if s.Width < length+kerf {
			continue
		}
		p.available[s.ID]--
		return &bar{stockID: s.ID, width: s.Width, remaining: s.Width}
	}
	return nil
}
