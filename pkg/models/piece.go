package models

import "github.com/cutstock/engine/pkg/cuterr"

// Piece is an immutable demand for cuttable units of one shape.
//
// For 1D scenarios Height is unused and Width carries the piece length.
type Piece struct {
	ID          string
	Width       float64
	Height      float64
	Quantity    int
	OrderItemID string
	CanRotate   bool
}

// Validate checks the invariants from the data model: positive dimensions
// for 2D pieces and at least one unit requested.
func (p Piece) Validate(twoDimensional bool) error {
	if p.Quantity < 1 {
		return cuterr.Newf(cuterr.ErrValidation, "piece %s: quantity must be >= 1", p.ID)
	}
	if p.Width <= 0 {
		return cuterr.Newf(cuterr.ErrValidation, "piece %s: width must be > 0", p.ID)
	}
	if twoDimensional && p.Height <= 0 {
		return cuterr.Newf(cuterr.ErrValidation, "piece %s: height must be > 0", p.ID)
	}
	return nil
}

// ExpandedPiece is one concrete unit produced by expanding a Piece's
// quantity into individually placeable units.
type ExpandedPiece struct {
	ID          string // originalId#index
	OriginalID  string
	OrderItemID string
	Width       float64
	Height      float64
	CanRotate   bool
}

// Area returns the piece's footprint, using Width as length for 1D pieces.
func (e ExpandedPiece) Area() float64 {
	if e.Height == 0 {
		return e.Width
	}
	return e.Width * e.Height
}
