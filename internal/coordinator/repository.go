package coordinator

import (
	"context"

	"github.com/cutstock/engine/pkg/models"
)

// ScenarioRepository is the injected persistence boundary for scenario
// status. Persistence is out of scope for this engine; callers supply
// whatever backing store fits (in-memory for cmd/cutstock, a real store
// in a hosting application).
type ScenarioRepository interface {
	Get(ctx context.Context, scenarioID string) (*models.Scenario, error)
	UpdateStatus(ctx context.Context, scenarioID string, status models.ScenarioStatus) error
}

// PlanRepository is the injected persistence boundary for the produced
// CuttingPlan.
type PlanRepository interface {
	Save(ctx context.Context, plan *models.CuttingPlan) error
}

// MemoryScenarioRepository is an in-process ScenarioRepository, the
// reference implementation for the CLI runner.
type MemoryScenarioRepository struct {
	scenarios map[string]*models.Scenario
}

// NewMemoryScenarioRepository seeds the repository with the given
// scenarios, keyed by ID.
func NewMemoryScenarioRepository(scenarios ...models.Scenario) *MemoryScenarioRepository {
	r := &MemoryScenarioRepository{scenarios: make(map[string]*models.Scenario)}
	for i := range scenarios {
		s := scenarios[i]
		r.scenarios[s.ID] = &s
	}
	return r
}

func (r *MemoryScenarioRepository) Get(_ context.Context, scenarioID string) (*models.Scenario, error) {
	s, ok := r.scenarios[scenarioID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryScenarioRepository) UpdateStatus(_ context.Context, scenarioID string, status models.ScenarioStatus) error {
	if s, ok := r.scenarios[scenarioID]; ok {
		s.Status = status
	}
	return nil
}

// MemoryPlanRepository is an in-process PlanRepository.
type MemoryPlanRepository struct {
	plans map[string]*models.CuttingPlan
}

// NewMemoryPlanRepository creates an empty plan store.
func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{plans: make(map[string]*models.CuttingPlan)}
}

func (r *MemoryPlanRepository) Save(_ context.Context, plan *models.CuttingPlan) error {
	r.plans[plan.ScenarioID] = plan
	return nil
}

// Get returns the saved plan for scenarioID, if any.
func (r *MemoryPlanRepository) Get(scenarioID string) (*models.CuttingPlan, bool) {
	p, ok := r.plans[scenarioID]
	return p, ok
}
