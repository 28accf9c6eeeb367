// Package coordinator orchestrates a scenario end to end: resolves the
// algorithm (optionally consulting the ML selector), submits the task to
// the worker pool, persists status transitions, and publishes domain
// events — grounded in the teacher's engine.ExecutionManager.Execute.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cutstock/engine/internal/eventbus"
	"github.com/cutstock/engine/internal/ml"
	"github.com/cutstock/engine/internal/platform/logger"
	"github.com/cutstock/engine/internal/pool"
	"github.com/cutstock/engine/pkg/cuterr"
	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/registry"
	"github.com/cutstock/engine/pkg/strategy"
)

// Config configures the coordinator's optional behaviors.
type Config struct {
	UseML           bool
	ShadowAlgorithm string
	TaskTimeout     time.Duration
}

// DefaultConfig disables ML consultation and shadow execution.
func DefaultConfig() Config {
	return Config{TaskTimeout: 5 * time.Minute}
}

// Coordinator runs scenarios: the single orchestration point between the
// registry, the worker pool, the ML selector, and the event bus.
type Coordinator struct {
	cfg       Config
	pool      *pool.Pool
	registry  *registry.Registry
	bus       *eventbus.Bus
	predictor ml.Predictor
	scenarios ScenarioRepository
	plans     PlanRepository
	logger    *logger.Logger
}

// New builds a Coordinator. predictor may be ml.NullPredictor{} when ML
// selection is disabled.
func New(cfg Config, p *pool.Pool, reg *registry.Registry, bus *eventbus.Bus, predictor ml.Predictor, scenarios ScenarioRepository, plans PlanRepository, log *logger.Logger) *Coordinator {
	return &Coordinator{cfg: cfg, pool: p, registry: reg, bus: bus, predictor: predictor, scenarios: scenarios, plans: plans, logger: log}
}

// RunScenario runs the scenario identified by scenarioID to completion.
// Precondition: the scenario exists and is PENDING. On success, a
// CuttingPlan is saved and the scenario moves to COMPLETED; on failure,
// the scenario moves to FAILED.
func (c *Coordinator) RunScenario(ctx context.Context, scenarioID string) (models.PlanSummary, error) {
	scenario, err := c.scenarios.Get(ctx, scenarioID)
	if err != nil {
		return models.PlanSummary{}, fmt.Errorf("load scenario: %w", err)
	}
	if scenario == nil {
		return models.PlanSummary{}, cuterr.Newf(cuterr.ErrScenarioNotFound, "scenario %q not found", scenarioID)
	}
	if scenario.Status != models.ScenarioPending {
		return models.PlanSummary{}, cuterr.Newf(cuterr.ErrValidation, "scenario %q is not PENDING (status=%s)", scenarioID, scenario.Status)
	}

	_ = c.scenarios.UpdateStatus(ctx, scenarioID, models.ScenarioRunning)
	startedAt := time.Now()
	c.publish(ctx, eventbus.EventOptimizationStarted, scenarioID, map[string]any{"algorithm": scenario.Algorithm})

	algorithm := c.resolveAlgorithm(ctx, *scenario)

	strat, err := c.registry.Get(algorithm)
	if err != nil {
		_ = c.scenarios.UpdateStatus(ctx, scenarioID, models.ScenarioFailed)
		c.publish(ctx, eventbus.EventOptimizationFailed, scenarioID, map[string]any{"error": err.Error()})
		return models.PlanSummary{Status: models.ScenarioFailed, Error: err}, err
	}

	if c.cfg.ShadowAlgorithm != "" && c.cfg.ShadowAlgorithm != algorithm {
		c.runShadow(ctx, *scenario, c.cfg.ShadowAlgorithm)
	}

	opts := strategy.Options{Kerf: scenario.Options.Kerf, AllowRotation: scenario.Options.AllowRotation}
	result, err := c.execute(ctx, scenarioID, strat, *scenario, opts)
	if err != nil {
		_ = c.scenarios.UpdateStatus(ctx, scenarioID, models.ScenarioFailed)
		c.publish(ctx, eventbus.EventOptimizationFailed, scenarioID, map[string]any{"error": err.Error()})
		return models.PlanSummary{Status: models.ScenarioFailed, Error: err}, err
	}

	plan := &models.CuttingPlan{
		ID:         uuid.NewString(),
		ScenarioID: scenarioID,
		Algorithm:  algorithm,
		Result:     result,
		CreatedAt:  time.Now(),
	}
	if err := c.plans.Save(ctx, plan); err != nil {
		_ = c.scenarios.UpdateStatus(ctx, scenarioID, models.ScenarioFailed)
		return models.PlanSummary{Status: models.ScenarioFailed, Error: err}, err
	}

	_ = c.scenarios.UpdateStatus(ctx, scenarioID, models.ScenarioCompleted)
	c.publish(ctx, eventbus.EventOptimizationCompleted, scenarioID, map[string]any{
		"algorithm":    algorithm,
		"duration_ms":  time.Since(startedAt).Milliseconds(),
		"efficiency":   result.Statistics.Efficiency,
		"unplaced":     len(result.UnplacedPieces),
	})
	c.publish(ctx, eventbus.EventPlanCreated, scenarioID, map[string]any{"plan_id": plan.ID})

	return models.PlanSummary{ScenarioID: scenarioID, Status: models.ScenarioCompleted, Plan: plan}, nil
}

// resolveAlgorithm returns scenario.Algorithm unless ML consultation is
// enabled and the predictor succeeds in naming an alternative.
func (c *Coordinator) resolveAlgorithm(ctx context.Context, scenario models.Scenario) string {
	if !c.cfg.UseML || c.predictor == nil {
		return scenario.Algorithm
	}
	features := featuresFor(scenario)
	pred, err := c.predictor.SelectAlgorithm(ctx, features)
	if err != nil || !pred.Success {
		return scenario.Algorithm
	}
	return pred.Algorithm
}

func featuresFor(scenario models.Scenario) ml.Features {
	return ml.Features{
		"piece_count": float64(len(scenario.Pieces)),
		"stock_count": float64(len(scenario.Stocks)),
		"kerf":        scenario.Options.Kerf,
	}
}

func taskTypeFor(algorithm string) models.TaskType {
	switch algorithm {
	case registry.Algorithm1DFFD, registry.Algorithm1DBFD:
		return models.TaskType1D
	default:
		return models.TaskType2D
	}
}

// execute submits the resolved strategy to the worker pool, streaming
// progress as optimization.progress events, and waits for its result.
func (c *Coordinator) execute(ctx context.Context, scenarioID string, strat strategy.Strategy, scenario models.Scenario, opts strategy.Options) (models.OptimizationResult, error) {
	onProgress := func(p models.TaskProgress) {
		c.publish(ctx, eventbus.EventOptimizationProgress, scenarioID, map[string]any{
			"phase":    string(p.Phase),
			"progress": p.Progress,
		})
	}

	handle, err := c.pool.Submit(taskTypeFor(scenario.Algorithm), c.cfg.TaskTimeout, func(taskCtx context.Context, report func(float64)) (any, error) {
		return strat.Run(taskCtx, scenario.Pieces, scenario.Stocks, opts, strategy.ProgressFunc(report))
	}, onProgress)
	if err != nil {
		return models.OptimizationResult{}, err
	}

	raw, err := handle.Result(ctx)
	if err != nil {
		return models.OptimizationResult{}, err
	}
	result, ok := raw.(models.OptimizationResult)
	if !ok {
		return models.OptimizationResult{}, cuterr.New(cuterr.ErrStrategyFailed, "strategy returned an unexpected result type")
	}
	return result, nil
}

// runShadow submits a second task against shadowAlgorithm with the same
// input. Its result is not returned to the caller; it is logged for
// later shadow comparison (§4.8) and never fails the primary run.
func (c *Coordinator) runShadow(ctx context.Context, scenario models.Scenario, shadowAlgorithm string) {
	strat, err := c.registry.Get(shadowAlgorithm)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("shadow algorithm not registered", "algorithm", shadowAlgorithm, "error", err)
		}
		return
	}
	opts := strategy.Options{Kerf: scenario.Options.Kerf, AllowRotation: scenario.Options.AllowRotation}
	_, err = c.pool.Submit(taskTypeFor(shadowAlgorithm), c.cfg.TaskTimeout, func(taskCtx context.Context, report func(float64)) (any, error) {
		return strat.Run(taskCtx, scenario.Pieces, scenario.Stocks, opts, strategy.ProgressFunc(report))
	}, nil)
	if err != nil && c.logger != nil {
		c.logger.Warn("shadow task submission failed", "algorithm", shadowAlgorithm, "error", err)
	}
}

func (c *Coordinator) publish(ctx context.Context, eventType, scenarioID string, payload map[string]any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(ctx, eventbus.Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Timestamp:     time.Now(),
		AggregateType: "scenario",
		AggregateID:   scenarioID,
		Payload:       payload,
	})
}
