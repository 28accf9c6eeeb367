// Package twodim implements the 2D Bottom-Left-Fill and Guillotine
// placement strategies.
package twodim

import "github.com/cutstock/engine/pkg/models"

// sheetPool tracks the remaining available budget per stock id and
// hands out fresh sheets from the pre-sorted (area-descending) stock
// list as strategies need more capacity.
type sheetPool struct {
	stocks    []models.Stock
	available map[string]int
}

func newSheetPool(stocks []models.Stock) *sheetPool {
	avail := make(map[string]int, len(stocks))
	for _, s := range stocks {
		avail[s.ID] += s.Available
	}
	return &sheetPool{stocks: stocks, available: avail}
}

// openSheet finds the first stock (area descending) with budget large
// enough to hold at least one w x h piece, and consumes one unit.
func (p *sheetPool) openSheet(w, h float64) (models.Stock, bool) {
	for _, s := range p.stocks {
		if p.available[s.ID] <= 0 {
			continue
		}
		if s.Width < w || s.Height < h {
			continue
		}
		p.available[s.ID]--
		return s, true
	}
	return models.Stock{}, false
}
