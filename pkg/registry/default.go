package registry

import (
	"github.com/cutstock/engine/pkg/strategy/onedim"
	"github.com/cutstock/engine/pkg/strategy/twodim"
)

// NewDefault builds a registry pre-populated with the four built-in
// strategies. The MAXRECTS alias is resolved at lookup time in Get, so
// it is not registered as a separate table entry.
func NewDefault(warn WarningFunc) *Registry {
	r := New(warn)
	r.Register1D(Algorithm1DFFD, onedim.FFD{})
	r.Register1D(Algorithm1DBFD, onedim.BFD{})
	r.Register2D(Algorithm2DBottomLeft, twodim.BLF{})
	r.Register2D(Algorithm2DGuillotine, twodim.Guillotine{})
	return r
}
