package models

import "time"

// CuttingPlan is the artifact produced by a successful scenario run: the
// chosen algorithm's layout plus its waste/efficiency statistics.
type CuttingPlan struct {
	ID         string
	ScenarioID string
	Algorithm  string
	Result     OptimizationResult
	CreatedAt  time.Time
}

// PlanSummary is the coordinator's return value for RunScenario.
type PlanSummary struct {
	ScenarioID string
	Status     ScenarioStatus
	Plan       *CuttingPlan
	Error      error
}
