package twodim

import (
	"context"
	"sort"

	"github.com/cutstock/engine/pkg/geometry"
	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/strategy"
)

// BLF implements 2D Bottom-Left-Fill: each piece is placed at the
// lowest, then leftmost feasible corner-candidate position on the first
// sheet that accepts it.
type BLF struct{}

func (BLF) Run(ctx context.Context, pieces []models.Piece, stocks []models.Stock, opts strategy.Options, progress strategy.ProgressFunc) (models.OptimizationResult, error) {
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

		if !placeOnAnySheet(sheets, e, opts) {
			if !openAndPlace(&sheets, pool, e, opts) {
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

// placeOnAnySheet tries every active sheet in creation order and returns
// true once the piece has been placed on one.
func placeOnAnySheet(sheets []*models.Sheet, e models.ExpandedPiece, opts strategy.Options) bool {
	for _, s := range sheets {
		if pos, ok := findPosition(s, e, opts); ok {
			applyPlacement(s, e, pos)
			return true
		}
	}
	return false
}

// openAndPlace opens a new sheet large enough for some orientation of
// the piece and places it there.
func openAndPlace(sheets *[]*models.Sheet, pool *sheetPool, e models.ExpandedPiece, opts strategy.Options) bool {
	for _, o := range geometry.Orientations(e, opts.AllowRotation) {
		if stock, ok := pool.openSheet(o.W, o.H); ok {
			s := &models.Sheet{StockID: stock.ID, Width: stock.Width, Height: stock.Height}
			applyPlacement(s, e, candidatePos{x: 0, y: 0, w: o.W, h: o.H, rotated: o.Rotated})
			*sheets = append(*sheets, s)
			return true
		}
	}
	return false
}

type candidatePos struct {
	x, y, w, h float64
	rotated    bool
}

// findPosition searches every allowed orientation (non-rotated first)
// for the lowest-then-leftmost corner-candidate position that fits
// within the sheet and does not collide with any existing placement.
func findPosition(s *models.Sheet, e models.ExpandedPiece, opts strategy.Options) (candidatePos, bool) {
	for _, o := range geometry.Orientations(e, opts.AllowRotation) {
		candidates := corners(s, opts.Kerf)
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i][1] != candidates[j][1] {
				return candidates[i][1] < candidates[j][1]
			}
			return candidates[i][0] < candidates[j][0]
		})
		for _, c := range candidates {
			x, y := c[0], c[1]
			if !geometry.Fits(x, y, o.W, o.H, s.Width, s.Height) {
				continue
			}
			if collides(s, x, y, o.W, o.H, opts.Kerf) {
				continue
			}
			return candidatePos{x: x, y: y, w: o.W, h: o.H, rotated: o.Rotated}, true
		}
	}
	return candidatePos{}, false
}

// corners builds the corner-candidate set: the origin plus, for every
// existing placement, its kerf-inflated right edge, top edge, and
// top-right corner.
func corners(s *models.Sheet, kerf float64) [][2]float64 {
	points := [][2]float64{{0, 0}}
	for _, p := range s.Placements {
		points = append(points,
			[2]float64{p.Right() + kerf, p.Y},
			[2]float64{p.X, p.Top() + kerf},
			[2]float64{p.Right() + kerf, p.Top() + kerf},
		)
	}
	return points
}

// collides reports whether a candidate rectangle overlaps any existing
// placement once that placement is inflated by kerf on its right/top.
func collides(s *models.Sheet, x, y, w, h, kerf float64) bool {
	cand := geometry.Rect{X: x, Y: y, W: w, H: h}
	for _, p := range s.Placements {
		existing := geometry.Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}.Inflate(kerf)
		if geometry.Overlap(cand, existing) {
			return true
		}
	}
	return false
}

func applyPlacement(s *models.Sheet, e models.ExpandedPiece, pos candidatePos) {
	s.Placements = append(s.Placements, models.Placement{
		PieceID:     e.ID,
		OrderItemID: e.OrderItemID,
		X:           pos.x,
		Y:           pos.y,
		Width:       pos.w,
		Height:      pos.h,
		Rotated:     pos.rotated,
	})
}

func buildResult(sheets []*models.Sheet, unplaced map[string]int, order []string, totalExpanded int) models.OptimizationResult {
	result := models.OptimizationResult{}
	for _, s := range sheets {
		result.Sheets = append(result.Sheets, *s)
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
