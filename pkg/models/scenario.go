package models

// ScenarioStatus is the coordinator-level lifecycle status of a scenario.
type ScenarioStatus string

const (
	ScenarioPending   ScenarioStatus = "PENDING"
	ScenarioRunning   ScenarioStatus = "RUNNING"
	ScenarioCompleted ScenarioStatus = "COMPLETED"
	ScenarioFailed    ScenarioStatus = "FAILED"
	ScenarioCancelled ScenarioStatus = "CANCELLED"
)

// ScenarioOptions carries the per-run knobs a caller may set.
type ScenarioOptions struct {
	Kerf          float64
	AllowRotation bool
}

// Scenario is a coordinator-level optimization request.
type Scenario struct {
	ID        string
	JobID     string
	Algorithm string
	Options   ScenarioOptions
	Status    ScenarioStatus
	Pieces    []Piece
	Stocks    []Stock
}
