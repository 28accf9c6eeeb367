package geometry

import (
	"sort"

	"github.com/cutstock/engine/pkg/models"
)

// SortPiecesByAreaDesc sorts expanded pieces by area descending, using a
// stable sort so equal-area pieces keep their original insertion order.
func SortPiecesByAreaDesc(pieces []models.ExpandedPiece) {
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].Area() > pieces[j].Area()
	})
}

// SortStocksByAreaDesc sorts stocks by area descending, stably.
func SortStocksByAreaDesc(stocks []models.Stock) {
	sort.SliceStable(stocks, func(i, j int) bool {
		return stocks[i].Area() > stocks[j].Area()
	})
}
