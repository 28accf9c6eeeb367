package twodim

import (
	"context"

	"github.com/cutstock/engine/pkg/geometry"
	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/strategy"
)

// Guillotine implements 2D guillotine cutting: each active sheet tracks
// a set of free rectangles; a piece is placed in the free rectangle
// minimizing the Best-Short-Side-Fit score, then that rectangle is split
// into a right and top remainder along the cut.
type Guillotine struct{}

func (Guillotine) Run(ctx context.Context, pieces []models.Piece, stocks []models.Stock, opts strategy.Options, progress strategy.ProgressFunc) (models.OptimizationResult, error) {
	expanded, sortedStocks, empty := strategy.Prepare(pieces, stocks)
	if empty {
		return models.EmptyResult(), nil
	}

	pool := newSheetPool(sortedStocks)
	var sheets []*models.Sheet
	unplaced := map[string]int{}
	order := []string{}

	total := len(expanded)
	for i, e := range expanded {
		if strategy.Cancelled(ctx) {
			result := buildResult(sheets, unplaced, order, len(expanded))
			result.Success = false
			return result, nil
		}

		if !placeGuillotineOnAnySheet(sheets, e, opts) {
			if !openGuillotineSheet(&sheets, pool, e, opts) {
				if _, seen := unplaced[e.OriginalID]; !seen {
					order = append(order, e.OriginalID)
				}
				unplaced[e.OriginalID]++
			}
		}

		if progress != nil {
			progress(float64(i+1) / float64(total))
		}
	}

	return buildResult(sheets, unplaced, order, len(expanded)), nil
}

func placeGuillotineOnAnySheet(sheets []*models.Sheet, e models.ExpandedPiece, opts strategy.Options) bool {
	for _, s := range sheets {
		if placeInSheet(s, e, opts) {
			return true
		}
	}
	return false
}

func openGuillotineSheet(sheets *[]*models.Sheet, pool *sheetPool, e models.ExpandedPiece, opts strategy.Options) bool {
	for _, o := range geometry.Orientations(e, opts.AllowRotation) {
		if stock, ok := pool.openSheet(o.W, o.H); ok {
			s := &models.Sheet{
				StockID:   stock.ID,
				Width:     stock.Width,
				Height:    stock.Height,
				FreeRects: []models.FreeRect{{X: 0, Y: 0, W: stock.Width, H: stock.Height}},
			}
			place(s, e, 0, o, opts.Kerf)
			*sheets = append(*sheets, s)
			return true
		}
	}
	return false
}

// placeInSheet finds the best-short-side-fit free rectangle for any
// allowed orientation of e and places it there, returning false if no
// free rectangle accommodates any orientation.
func placeInSheet(s *models.Sheet, e models.ExpandedPiece, opts strategy.Options) bool {
	for _, o := range geometry.Orientations(e, opts.AllowRotation) {
		if idx, ok := bestFreeRect(s.FreeRects, o.W, o.H, opts.Kerf); ok {
			place(s, e, idx, o, opts.Kerf)
			return true
		}
	}
	return false
}

// bestFreeRect selects the free rectangle minimizing
// min(freeW-pieceW-kerf, freeH-pieceH-kerf) among rectangles the piece
// fits in, tie-breaking by lower (y,x).
func bestFreeRect(rects []models.FreeRect, w, h, kerf float64) (int, bool) {
	best := -1
	var bestScore, bestY, bestX float64
	for i, r := range rects {
		if r.W < w+kerf || r.H < h+kerf {
			continue
		}
		score := min(r.W-w-kerf, r.H-h-kerf)
		if best == -1 || score < bestScore ||
			(score == bestScore && (r.Y < bestY || (r.Y == bestY && r.X < bestX))) {
			best = i
			bestScore = score
			bestY = r.Y
			bestX = r.X
		}
	}
	return best, best != -1
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// place puts e at freeRects[idx]'s origin, records the placement, and
// replaces that free rectangle with its right/top remainders.
func place(s *models.Sheet, e models.ExpandedPiece, idx int, o geometry.Orientation, kerf float64) {
	r := s.FreeRects[idx]
	x, y := r.X, r.Y

	s.Placements = append(s.Placements, models.Placement{
		PieceID:     e.ID,
		OrderItemID: e.OrderItemID,
		X:           x,
		Y:           y,
		Width:       o.W,
		Height:      o.H,
		Rotated:     o.Rotated,
	})

	remainders := split(r, x, y, o.W, o.H, kerf)

	s.FreeRects = append(s.FreeRects[:idx], s.FreeRects[idx+1:]...)
	s.FreeRects = append(s.FreeRects, remainders...)
}

// split produces the right and top guillotine remainders of a free
// rectangle after placing a piece at its origin, discarding any
// remainder whose width or height is <= kerf.
func split(r models.FreeRect, x, y, pw, ph, kerf float64) []models.FreeRect {
	var out []models.FreeRect

	right := models.FreeRect{X: x + pw + kerf, Y: y, W: r.W - pw - kerf, H: r.H}
	if right.W > kerf && right.H > kerf {
		out = append(out, right)
	}

	top := models.FreeRect{X: x, Y: y + ph + kerf, W: pw + kerf, H: r.H - ph - kerf}
	if top.W > kerf && top.H > kerf {
		out = append(out, top)
	}

	return out
}
