package onedim

import (
	"context"

	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/strategy"
)

// BFD implements 1D Best-Fit-Decreasing: pieces are placed into the open
// bar that minimizes remaining-after-placement (tightest fit), ties
// broken by earliest bar.
type BFD struct{}

func (BFD) Run(ctx context.Context, pieces []models.Piece, stocks []models.Stock, opts strategy.Options, progress strategy.ProgressFunc) (models.OptimizationResult, error) {
	return run(ctx, pieces, stocks, opts, progress, bestFit)
}

func bestFit(bars []*bar, length, kerf float64) *bar {
	var chosen *bar
	bestSlack := 0.0
	for _, b := range bars {
		if !b.fits(length, kerf) {
			continue
		}
		slack := b.remaining - length
		if chosen == nil || slack < bestSlack {
			chosen = b
			bestSlack = slack
		}
	}
	return chosen
}
