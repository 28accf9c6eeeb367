package predictionlog

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cutstock/engine/internal/platform/logger"
)

// DailySummary is the per-model nightly aggregation record.
type DailySummary struct {
	ModelType         string
	Date              time.Time
	PredictionCount   int
	FallbackCount     int
	AvgLatency        time.Duration
	MaxLatency        time.Duration
	AvgConfidence     float64
	MinConfidence     float64
	FeedbackCount     int
	AvgFeedbackScore  float64
}

// Aggregator computes daily per-model summaries and can schedule itself
// to run nightly via github.com/robfig/cron/v3.
type Aggregator struct {
	log    *Log
	logger *logger.Logger
	cron   *cron.Cron

	Summary func(DailySummary)
}

// NewAggregator builds an aggregator over log, reporting with log.
func NewAggregator(log *Log, lg *logger.Logger) *Aggregator {
	return &Aggregator{log: log, logger: lg}
}

// Aggregate computes the daily summary for every model type present in
// the log for the 24h window starting at day (truncated to midnight).
func (a *Aggregator) Aggregate(_ context.Context, day time.Time) []DailySummary {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var summaries []DailySummary
	for _, modelType := range a.log.ModelTypes() {
		preds := a.log.ForModel(modelType, start, end)
		if len(preds) == 0 {
			continue
		}

		summary := DailySummary{ModelType: modelType, Date: start, MinConfidence: 1.0}
		var confSum, feedbackSum float64
		var latencySum time.Duration
		for _, p := range preds {
			summary.PredictionCount++
			if p.ExecutionType == "fallback" {
				summary.FallbackCount++
			}
			confSum += p.Confidence
			if p.Confidence < summary.MinConfidence {
				summary.MinConfidence = p.Confidence
			}
			latencySum += p.Latency
			if p.Latency > summary.MaxLatency {
				summary.MaxLatency = p.Latency
			}
			if p.FeedbackScore != nil {
				summary.FeedbackCount++
				feedbackSum += *p.FeedbackScore
			}
		}
		summary.AvgConfidence = confSum / float64(summary.PredictionCount)
		summary.AvgLatency = latencySum / time.Duration(summary.PredictionCount)
		if summary.FeedbackCount > 0 {
			summary.AvgFeedbackScore = feedbackSum / float64(summary.FeedbackCount)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Schedule registers a cron job (default "0 2 * * *", 02:00 nightly)
// that aggregates yesterday's predictions and reports each summary via
// Aggregator.Summary, if set. Schedule must be called before Start.
func (a *Aggregator) Schedule(spec string) error {
	if spec == "" {
		spec = "0 2 * * *"
	}
	a.cron = cron.New()
	_, err := a.cron.AddFunc(spec, func() {
		yesterday := time.Now().AddDate(0, 0, -1)
		summaries := a.Aggregate(context.Background(), yesterday)
		for _, s := range summaries {
			if a.Summary != nil {
				a.Summary(s)
			}
			if a.logger != nil {
				a.logger.Info("prediction log daily summary",
					"model_type", s.ModelType, "predictions", s.PredictionCount)
			}
		}
	})
	return err
}

// Start begins running scheduled jobs in the background.
func (a *Aggregator) Start() {
	if a.cron != nil {
		a.cron.Start()
	}
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (a *Aggregator) Stop() {
	if a.cron != nil {
		a.cron.Stop()
	}
}
