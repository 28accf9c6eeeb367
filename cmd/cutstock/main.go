// Command cutstock drives one cutting-stock optimization scenario end to
// end against in-process dependencies and prints a report. There is no
// embedded HTTP listener: HTTP/WS framing and persistence are out of
// scope for this engine (see SPEC_FULL.md §1).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/cutstock/engine/internal/cache"
	"github.com/cutstock/engine/internal/coordinator"
	"github.com/cutstock/engine/internal/eventbus"
	"github.com/cutstock/engine/internal/ml"
	"github.com/cutstock/engine/internal/platform/config"
	"github.com/cutstock/engine/internal/platform/logger"
	"github.com/cutstock/engine/internal/pool"
	"github.com/cutstock/engine/pkg/cuterr"
	"github.com/cutstock/engine/pkg/models"
	"github.com/cutstock/engine/pkg/registry"
)

// Exit codes per the engine's external interface.
const (
	exitSuccess      = 0
	exitGenericError = 1
	exitInvalidInput = 2
	exitTimeout      = 3
	exitCancelled    = 4
)

// scenarioFile is the on-disk shape accepted by -scenario, mirroring the
// scenario-inputs wire shape from the external interface.
type scenarioFile struct {
	Algorithm     string         `json:"algorithm"`
	Kerf          float64        `json:"kerf"`
	AllowRotation bool           `json:"allowRotation"`
	Pieces        []models.Piece `json:"pieces"`
	Stocks        []models.Stock `json:"stocks"`
}

func main() {
	os.Exit(run())
}

func run() int {
	scenarioPath := flag.String("scenario", "", "path to a scenario JSON file")
	useML := flag.Bool("ml", false, "consult the ML selector for algorithm choice")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		return exitGenericError
	}

	log := logger.New(cfg.Logging)
	logger.SetDefault(log)

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: cutstock -scenario <file.json> [-ml]")
		return exitInvalidInput
	}

	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		log.Error("invalid scenario input", "error", err)
		return exitInvalidInput
	}

	reg := registry.NewDefault(func(table, name string) {
		log.Warn("algorithm registration overwritten", "table", table, "name", name)
	})

	workerPool := pool.New(pool.Config(cfg.Pool), log)
	bus := eventbus.New(eventbus.WithLogger(log))
	bus.Subscribe(eventbus.EventOptimizationProgress, "cli-progress", func(_ context.Context, e eventbus.Event) error {
		log.Info("progress", "payload", e.Payload)
		return nil
	})

	memCache := cache.NewMemory(60 * time.Second)
	defer memCache.Disconnect(context.Background())
	log.Info("cache backend ready", "backend", "memory", "connected", memCache.Connected())

	var predictor ml.Predictor = ml.NullPredictor{}

	scenarios := coordinator.NewMemoryScenarioRepository(*scenario)
	plans := coordinator.NewMemoryPlanRepository()

	coord := coordinator.New(
		coordinator.Config{UseML: *useML, TaskTimeout: 5 * time.Minute},
		workerPool, reg, bus, predictor, scenarios, plans, log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := coord.RunScenario(ctx, scenario.ID)
	workerPool.Shutdown(10 * time.Second)

	if err != nil {
		return exitCodeFor(err, log)
	}

	report, _ := json.MarshalIndent(summary.Plan.Result, "", "  ")
	fmt.Println(string(report))
	return exitSuccess
}

func loadScenario(path string) (*models.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var sf scenarioFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}

	twoDimensional := sf.Algorithm == registry.Algorithm2DBottomLeft ||
		sf.Algorithm == registry.Algorithm2DGuillotine ||
		sf.Algorithm == registry.AlgorithmMaxRects

	for _, p := range sf.Pieces {
		if err := p.Validate(twoDimensional); err != nil {
			return nil, err
		}
	}
	for _, s := range sf.Stocks {
		if err := s.Validate(twoDimensional); err != nil {
			return nil, err
		}
	}

	return &models.Scenario{
		ID:        uuid.NewString(),
		Algorithm: sf.Algorithm,
		Options:   models.ScenarioOptions{Kerf: sf.Kerf, AllowRotation: sf.AllowRotation},
		Status:    models.ScenarioPending,
		Pieces:    sf.Pieces,
		Stocks:    sf.Stocks,
	}, nil
}

func exitCodeFor(err error, log *logger.Logger) int {
	kind, ok := cuterr.KindOf(err)
	if !ok {
		log.Error("scenario run failed", "error", err)
		return exitGenericError
	}
	log.Error("scenario run failed", "kind", kind, "error", err)
	switch kind {
	case cuterr.ErrValidation, cuterr.ErrUnknownAlgorithm, cuterr.ErrScenarioNotFound:
		return exitInvalidInput
	case cuterr.ErrTimeout:
		return exitTimeout
	case cuterr.ErrCancelled:
		return exitCancelled
	default:
		return exitGenericError
	}
}
