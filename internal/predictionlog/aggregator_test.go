package predictionlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cutstock/engine/pkg/models"
)

func TestAggregator_AggregateComputesPerModelSummary(t *testing.T) {
	l := New()
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	score1, score2 := 0.9, 0.6
	require.NoError(t, l.Append(context.Background(), models.Prediction{
		ID: "p1", ModelType: "waste", Confidence: 0.8, CreatedAt: day.Add(time.Hour),
		ExecutionType: models.ExecutionPrimary, FeedbackScore: &score1, Latency: 10 * time.Millisecond,
	}))
	require.NoError(t, l.Append(context.Background(), models.Prediction{
		ID: "p2", ModelType: "waste", Confidence: 0.4, CreatedAt: day.Add(2 * time.Hour),
		ExecutionType: models.ExecutionFallback, FeedbackScore: &score2, Latency: 30 * time.Millisecond,
	}))

	agg := NewAggregator(l, nil)
	summaries := agg.Aggregate(context.Background(), day)
	require.Len(t, summaries, 1)

	s := summaries[0]
	require.Equal(t, "waste", s.ModelType)
	require.Equal(t, 2, s.PredictionCount)
	require.Equal(t, 1, s.FallbackCount)
	require.InDelta(t, 0.6, s.AvgConfidence, 0.0001)
	require.InDelta(t, 0.4, s.MinConfidence, 0.0001)
	require.Equal(t, 2, s.FeedbackCount)
	require.InDelta(t, 0.75, s.AvgFeedbackScore, 0.0001)
	require.Equal(t, 20*time.Millisecond, s.AvgLatency)
	require.Equal(t, 30*time.Millisecond, s.MaxLatency)
}

func TestAggregator_AggregateSkipsModelsWithNoPredictionsThatDay(t *testing.T) {
	l := New()
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, l.Append(context.Background(), models.Prediction{
		ID: "p1", ModelType: "waste", CreatedAt: day.AddDate(0, 0, -5),
	}))

	agg := NewAggregator(l, nil)
	summaries := agg.Aggregate(context.Background(), day)
	require.Empty(t, summaries)
}

func TestAggregator_ScheduleRejectsInvalidSpec(t *testing.T) {
	agg := NewAggregator(New(), nil)
	err := agg.Schedule("not a cron spec")
	require.Error(t, err)
}

func TestAggregator_ScheduleDefaultsWhenEmpty(t *testing.T) {
	agg := NewAggregator(New(), nil)
	require.NoError(t, agg.Schedule(""))
	agg.Start()
	agg.Stop()
}
