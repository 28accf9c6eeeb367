package geometry

import (
	"fmt"

	"github.com/cutstock/engine/pkg/models"
)

// Expand produces one ExpandedPiece per unit of quantity, preserving
// input order and tagging each unit with a composite identity
// "originalId#index".
func Expand(pieces []models.Piece) []models.ExpandedPiece {
	out := make([]models.ExpandedPiece, 0, len(pieces))
	for _, p := range pieces {
		for i := 0; i < p.Quantity; i++ {
			out = append(out, models.ExpandedPiece{
				ID:          fmt.Sprintf("%s#%d", p.ID, i),
				OriginalID:  p.ID,
				OrderItemID: p.OrderItemID,
				Width:       p.Width,
				Height:      p.Height,
				CanRotate:   p.CanRotate,
			})
		}
	}
	return out
}

// Orientation is one candidate (w,h,rotated) pairing for a piece.
type Orientation struct {
	W, H    float64
	Rotated bool
}

// Orientations yields the non-rotated orientation, plus the rotated one
// when allowRotation is set, the piece permits rotation, and the piece
// is not square (rotating a square is a no-op).
func Orientations(e models.ExpandedPiece, allowRotation bool) []Orientation {
	orientations := []Orientation{{W: e.Width, H: e.Height, Rotated: false}}
	if allowRotation && e.CanRotate && e.Width != e.Height {
		orientations = append(orientations, Orientation{W: e.Height, H: e.Width, Rotated: true})
	}
	return orientations
}
