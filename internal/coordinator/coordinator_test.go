package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cutstock/engine/internal/eventbus"
	"github.com/cutstock/engine/internal/ml"
	"github.com/cutstock/engine/internal/pool"
	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/registry"
)

func newTestScenario(algorithm string) models.Scenario {
	return models.Scenario{
		ID:        "s1",
		Algorithm: algorithm,
		Options:   models.ScenarioOptions{Kerf: 0},
		Status:    models.ScenarioPending,
		Pieces:    []models.Piece{{ID: "p", Width: 300, Quantity: 3, CanRotate: false}},
		Stocks:    []models.Stock{{ID: "b", Width: 1000, Available: 5}},
	}
}

func newTestCoordinator(t *testing.T, cfg Config, predictor ml.Predictor, scenario models.Scenario) (*Coordinator, *pool.Pool, *eventbus.Bus, *MemoryPlanRepository) {
	t.Helper()
	p := pool.New(pool.Config{MinThreads: 1, MaxThreads: 2, MaxQueue: 8}, nil)
	t.Cleanup(func() { p.Shutdown(time.Second) })
	bus := eventbus.New()
	reg := registry.NewDefault(nil)
	scenarios := NewMemoryScenarioRepository(scenario)
	plans := NewMemoryPlanRepository()
	if cfg.TaskTimeout == 0 {
		cfg.TaskTimeout = 5 * time.Second
	}
	c := New(cfg, p, reg, bus, predictor, scenarios, plans, nil)
	return c, p, bus, plans
}

func TestCoordinator_RunScenario_SuccessPath(t *testing.T) {
	scenario := newTestScenario(registry.Algorithm1DFFD)
	c, _, bus, plans := newTestCoordinator(t, Config{}, ml.NullPredictor{}, scenario)

	var events []string
	require.NoError(t, bus.Subscribe(eventbus.EventOptimizationCompleted, "test", func(ctx context.Context, e eventbus.Event) error {
		events = append(events, e.EventType)
		return nil
	}))
	require.NoError(t, bus.Subscribe(eventbus.EventPlanCreated, "test", func(ctx context.Context, e eventbus.Event) error {
		events = append(events, e.EventType)
		return nil
	}))

	summary, err := c.RunScenario(context.Background(), scenario.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScenarioCompleted, summary.Status)
	require.NotNil(t, summary.Plan)
	require.True(t, summary.Plan.Result.Success)

	saved, ok := plans.Get(scenario.ID)
	require.True(t, ok)
	require.Equal(t, summary.Plan.ID, saved.ID)
}

func TestCoordinator_RunScenario_UnknownAlgorithmFails(t *testing.T) {
	scenario := newTestScenario("NOT_REGISTERED")
	c, _, _, _ := newTestCoordinator(t, Config{}, ml.NullPredictor{}, scenario)

	summary, err := c.RunScenario(context.Background(), scenario.ID)
	require.Error(t, err)
	require.Equal(t, models.ScenarioFailed, summary.Status)
}

func TestCoordinator_RunScenario_NotFound(t *testing.T) {
	scenario := newTestScenario(registry.Algorithm1DFFD)
	c, _, _, _ := newTestCoordinator(t, Config{}, ml.NullPredictor{}, scenario)

	_, err := c.RunScenario(context.Background(), "missing-id")
	require.Error(t, err)
}

func TestCoordinator_RunScenario_RejectsNonPendingScenario(t *testing.T) {
	scenario := newTestScenario(registry.Algorithm1DFFD)
	scenario.Status = models.ScenarioRunning
	c, _, _, _ := newTestCoordinator(t, Config{}, ml.NullPredictor{}, scenario)

	_, err := c.RunScenario(context.Background(), scenario.ID)
	require.Error(t, err)
}

type stubPredictor struct {
	algorithm string
}

func (s stubPredictor) PredictWaste(context.Context, ml.Features) (ml.Prediction, error) {
	return ml.Prediction{Success: false}, nil
}
func (s stubPredictor) PredictTime(context.Context, ml.Features) (ml.Prediction, error) {
	return ml.Prediction{Success: false}, nil
}
func (s stubPredictor) SelectAlgorithm(context.Context, ml.Features) (ml.Prediction, error) {
	return ml.Prediction{Success: true, Algorithm: s.algorithm, Confidence: 0.9}, nil
}

func TestCoordinator_RunScenario_MLOverridesAlgorithmWhenEnabled(t *testing.T) {
	scenario := newTestScenario(registry.Algorithm1DFFD)
	c, _, _, plans := newTestCoordinator(t, Config{UseML: true}, stubPredictor{algorithm: registry.Algorithm1DBFD}, scenario)

	summary, err := c.RunScenario(context.Background(), scenario.ID)
	require.NoError(t, err)
	require.Equal(t, registry.Algorithm1DBFD, summary.Plan.Algorithm)

	saved, ok := plans.Get(scenario.ID)
	require.True(t, ok)
	require.Equal(t, registry.Algorithm1DBFD, saved.Algorithm)
}

func TestCoordinator_RunScenario_ShadowFailureDoesNotFailPrimary(t *testing.T) {
	scenario := newTestScenario(registry.Algorithm1DFFD)
	c, _, _, _ := newTestCoordinator(t, Config{ShadowAlgorithm: "NOT_REGISTERED"}, ml.NullPredictor{}, scenario)

	summary, err := c.RunScenario(context.Background(), scenario.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScenarioCompleted, summary.Status)
}
