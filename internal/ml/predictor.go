// Package ml implements the pluggable ML selector: waste/time prediction,
// algorithm selection, experiment bucketing, shadow comparison, and
// confidence calibration.
package ml

import "context"

// Features is the opaque input feature map passed to a Predictor.
type Features map[string]float64

// Prediction is the result of one predictor call.
type Prediction struct {
	Success      bool
	Value        float64
	Algorithm    string
	Confidence   float64
	PredictionID string
}

// Predictor is the pluggable ML selection contract. Every method must
// degrade gracefully: a predictor that cannot answer returns
// Success=false rather than an error, so callers fall back to the
// caller-supplied algorithm.
type Predictor interface {
	PredictWaste(ctx context.Context, features Features) (Prediction, error)
	SelectAlgorithm(ctx context.Context, features Features) (Prediction, error)
	PredictTime(ctx context.Context, features Features) (Prediction, error)
}

// NullPredictor is the ML-off implementation: every call reports
// Success=false without error.
type NullPredictor struct{}

func (NullPredictor) PredictWaste(context.Context, Features) (Prediction, error) {
	return Prediction{Success: false}, nil
}

func (NullPredictor) SelectAlgorithm(context.Context, Features) (Prediction, error) {
	return Prediction{Success: false}, nil
}

func (NullPredictor) PredictTime(context.Context, Features) (Prediction, error) {
	return Prediction{Success: false}, nil
}
