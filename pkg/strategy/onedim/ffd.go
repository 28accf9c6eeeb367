package onedim

import (
	"context"

	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/strategy"
)

// FFD implements 1D First-Fit-Decreasing: pieces are placed into the
// first open bar (in creation order) that still has room.
type FFD struct{}

func (FFD) Run(ctx context.Context, pieces []models.Piece, stocks []models.Stock, opts strategy.Options, progress strategy.ProgressFunc) (models.OptimizationResult, error) {
	return run(ctx, pieces, stocks, opts, progress, firstFit)
}

func firstFit(bars []*bar, length, kerf float64) *bar {
	for _, b := range bars {
		if b.fits(length, kerf) {
			return b
		}
	}
	return nil
}
