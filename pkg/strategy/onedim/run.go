package onedim

import (
	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/strategy"

	"context"
)

// selector picks the bar to place a piece of the given length into from
// the set of currently open bars, or nil if none qualifies.
type selector func(bars []*bar, length, kerf float64) *bar

// run drives the shared 1D placement loop: pre-sort, then for each
// piece try the selector over open bars, opening a new bar from the
// stock pool when none qualifies.
func run(ctx context.Context, pieces []models.Piece, stocks []models.Stock, opts strategy.Options, progress strategy.ProgressFunc, pick selector) (models.OptimizationResult, error) {
	expanded, sortedStocks, empty := strategy.Prepare(pieces, stocks)
	if empty {
		return models.EmptyResult(), nil
	}

	pool := newStockPool(sortedStocks)
	var bars []*bar
	unplaced := map[string]int{}
	order := []string{}

	total := len(expanded)
	for i, e := range expanded {
		if strategy.Cancelled(ctx) {
			result := buildResult(bars, unplaced, order, len(expanded))
			result.Success = false
			return result, nil
		}

		b := pick(bars, e.Width, opts.Kerf)
		if b == nil {
			b = pool.openBar(e.Width, opts.Kerf)
			if b != nil {
				bars = append(bars, b)
			}
		}
		if b == nil {
			if _, seen := unplaced[e.OriginalID]; !seen {
				order = append(order, e.OriginalID)
			}
			unplaced[e.OriginalID]++
			continue
		}
		b.place(e, opts.Kerf)

		if progress != nil {
			progress(float64(i+1) / float64(total))
		}
	}

	return buildResult(bars, unplaced, order, len(expanded)), nil
}

func buildResult(bars []*bar, unplaced map[string]int, order []string, totalExpanded int) models.OptimizationResult {
	result := models.OptimizationResult{}
	for _, b := range bars {
		result.Sheets = append(result.Sheets, models.Sheet{
			StockID:    b.stockID,
			Width:      b.width,
			Height:     0,
			Placements: b.placements,
		})
	}
	for _, id := range order {
		result.UnplacedPieces = append(result.UnplacedPieces, models.UnplacedPiece{
			ID:       id,
			Quantity: unplaced[id],
		})
	}
	result.Finalize(totalExpanded)
	return result
}
