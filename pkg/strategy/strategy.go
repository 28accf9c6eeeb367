// Package strategy defines the shared placement-strategy contract that
// every 1D/2D algorithm implements, plus the common pre-sort step every
// strategy performs before placing pieces.
package strategy

import (
	"context"

	"github.com/cutstock/engine/pkg/geometry"
	"github.com/cutstock/engine/pkg/models"
)

// Options carries the per-run knobs shared by every strategy.
type Options struct {
	Kerf          float64
	AllowRotation bool
}

// ProgressFunc is invoked from within a strategy's outer loop at
// cooperative checkpoints; implementations must be non-blocking.
type ProgressFunc func(fractionDone float64)

// Strategy is the pure, deterministic placement function every
// algorithm implements: pieces + stocks + options -> OptimizationResult.
// Implementations must check ctx at least once per outer (per-piece)
// iteration and return a partial result promptly on cancellation.
type Strategy interface {
	Run(ctx context.Context, pieces []models.Piece, stocks []models.Stock, opts Options, progress ProgressFunc) (models.OptimizationResult, error)
}

// Prepare performs the shared pre-sort step: expand pieces, sort
// expanded units and stocks by area descending (stable). Returns the
// canonical empty result signal when either input is empty.
func Prepare(pieces []models.Piece, stocks []models.Stock) (expanded []models.ExpandedPiece, sortedStocks []models.Stock, empty bool) {
	if len(pieces) == 0 || len(stocks) == 0 {
		return nil, nil, true
	}
	expanded = geometry.Expand(pieces)
	geometry.SortPiecesByAreaDesc(expanded)
	sortedStocks = append([]models.Stock(nil), stocks...)
	geometry.SortStocksByAreaDesc(sortedStocks)
	return expanded, sortedStocks, false
}

// cancelled reports whether ctx has been cancelled or its deadline
// exceeded, the cooperative-cancellation checkpoint every strategy calls
// once per outer iteration.
func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Cancelled is the exported form of the cooperative cancellation check,
// reused by strategy implementations in sibling packages.
func Cancelled(ctx context.Context) bool { return cancelled(ctx) }
