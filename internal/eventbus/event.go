// Package eventbus implements the in-process, non-blocking publish/
// subscribe dispatcher used to decouple side effects from the job
// coordinator.
package eventbus

import "time"

// Event-type constants, lowercase dotted per the external interface.
const (
	EventOptimizationStarted   = "optimization.started"
	EventOptimizationProgress  = "optimization.progress"
	EventOptimizationCompleted = "optimization.completed"
	EventOptimizationFailed    = "optimization.failed"
	EventPlanCreated           = "plan.created"
	EventPlanApproved          = "plan.approved"
	EventPlanRejected          = "plan.rejected"
	EventProductionStarted     = "production.started"
	EventProductionCompleted   = "production.completed"
	EventStockConsumed         = "stock.consumed"
	EventStockLowAlert         = "stock.low-alert"
)

// Event is the envelope every publication carries.
type Event struct {
	EventID       string
	EventType     string
	Timestamp     time.Time
	AggregateType string
	AggregateID   string
	Payload       any
}
