package models

import "github.com/cutstock/engine/pkg/cuterr"

// Stock is an immutable source of material. For 1D scenarios Width
// carries the bar length and Height is unused.
type Stock struct {
	ID        string
	Width     float64
	Height    float64
	Available int
}

// Validate checks the stock's invariants.
func (s Stock) Validate(twoDimensional bool) error {
	if s.Available < 0 {
		return cuterr.Newf(cuterr.ErrValidation, "stock %s: available must be >= 0", s.ID)
	}
	if s.Width <= 0 {
		return cuterr.Newf(cuterr.ErrValidation, "stock %s: width must be > 0", s.ID)
	}
	if twoDimensional && s.Height <= 0 {
		return cuterr.Newf(cuterr.ErrValidation, "stock %s: height must be > 0", s.ID)
	}
	return nil
}

// Area returns the stock sheet's area, or its length for 1D stock.
func (s Stock) Area() float64 {
	if s.Height == 0 {
		return s.Width
	}
	return s.Width * s.Height
}
