package models

// UnplacedPiece records how many units of a given original piece could
// not be placed on any sheet.
type UnplacedPiece struct {
	ID       string
	Quantity int
}

// Statistics summarizes the aggregate area accounting for a result.
type Statistics struct {
	TotalPieces   int
	TotalStockArea float64
	TotalUsedArea  float64
	Efficiency     float64
}

// OptimizationResult is the canonical output of a strategy run.
type OptimizationResult struct {
	Success              bool
	Sheets               []Sheet
	TotalWasteArea       float64
	TotalWastePercentage float64
	StockUsedCount       int
	UnplacedPieces       []UnplacedPiece
	Statistics           Statistics
}

// EmptyResult returns the canonical empty result for degenerate inputs
// (no pieces, or no stock): success=false, zero totals.
func EmptyResult() OptimizationResult {
	return OptimizationResult{
		Success:        false,
		Sheets:         nil,
		UnplacedPieces: nil,
	}
}

// Finalize computes the aggregate fields (waste area/percentage,
// statistics) from the sheets and unplaced pieces already assembled by a
// strategy, and sets Success accordingly.
func (r *OptimizationResult) Finalize(totalExpanded int) {
	var usedArea, stockArea float64
	for _, s := range r.Sheets {
		usedArea += s.UsedArea()
		stockArea += s.StockArea()
	}
	r.TotalWasteArea = stockArea - usedArea
	if r.TotalWasteArea < 0 {
		r.TotalWasteArea = 0
	}
	if stockArea > 0 {
		r.TotalWastePercentage = r.TotalWasteArea / stockArea * 100
	}
	r.StockUsedCount = len(r.Sheets)

	unplacedTotal := 0
	for _, u := range r.UnplacedPieces {
		unplacedTotal += u.Quantity
	}

	efficiency := 0.0
	if stockArea > 0 {
		efficiency = usedArea / stockArea * 100
	}

	r.Statistics = Statistics{
		TotalPieces:    totalExpanded - unplacedTotal,
		TotalStockArea: stockArea,
		TotalUsedArea:  usedArea,
		Efficiency:     efficiency,
	}
	r.Success = len(r.Sheets) > 0 && unplacedTotal == 0
}
