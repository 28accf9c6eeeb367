// Package predictionlog implements the append-only ML prediction log,
// feedback attachment, and nightly per-model aggregation.
package predictionlog

import (
	"context"
	"sync"
	"time"

	"github.com/cutstock/engine/pkg/models"
)

// Log is an append-only, in-memory prediction log. A real deployment
// would back this with a durable store; persistence is out of scope
// here, so the in-process implementation is the reference.
type Log struct {
	mu          sync.RWMutex
	predictions map[string]*models.Prediction
	order       []string
}

// New creates an empty prediction log.
func New() *Log {
	return &Log{predictions: make(map[string]*models.Prediction)}
}

// Append records a new prediction.
func (l *Log) Append(_ context.Context, p models.Prediction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := p
	l.predictions[p.ID] = &cp
	l.order = append(l.order, p.ID)
	return nil
}

// SubmitFeedback attaches ground truth to a previously logged
// prediction.
func (l *Log) SubmitFeedback(_ context.Context, predictionID string, actualValue float64, score *float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.predictions[predictionID]
	if !ok {
		return nil
	}
	now := time.Now()
	actual := actualValue
	p.ActualValue = &actual
	p.FeedbackScore = score
	p.FeedbackAt = &now
	return nil
}

// ForModel returns every logged prediction for modelType within
// [since, until).
func (l *Log) ForModel(modelType string, since, until time.Time) []models.Prediction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Prediction
	for _, id := range l.order {
		p := l.predictions[id]
		if p.ModelType != modelType {
			continue
		}
		if p.CreatedAt.Before(since) || !p.CreatedAt.Before(until) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// ModelTypes returns the distinct model types currently logged.
func (l *Log) ModelTypes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, id := range l.order {
		mt := l.predictions[id].ModelType
		if !seen[mt] {
			seen[mt] = true
			out = append(out, mt)
		}
	}
	return out
}
