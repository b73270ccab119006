package services

import (
	"testing"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankScores(t *testing.T) {
	t.Run("낮은 raw 일수록 높은 점수", func(t *testing.T) {
		scores := RankScores([]float64{0.3, -0.2, 0.1})
		assert.InDeltaSlice(t, []float64{0, 2.0 / 3, 1.0 / 3}, scores, 1e-12)
	})

	t.Run("동점은 평균 순위", func(t *testing.T) {
		scores := RankScores([]float64{0.1, 0.1, 0.5, 0.1})
		assert.InDeltaSlice(t, []float64{0.5, 0.5, 0, 0.5}, scores, 1e-12)
	})

	t.Run("단일 행", func(t *testing.T) {
		assert.Equal(t, []float64{0}, RankScores([]float64{-3}))
	})

	t.Run("빈 입력", func(t *testing.T) {
		assert.Empty(t, RankScores(nil))
	})

	t.Run("범위와 순서", func(t *testing.T) {
		raw := []float64{0.05, -0.4, 0.2, 0.2, 0.01, -0.01, 0.3}
		scores := RankScores(raw)
		for i := range raw {
			assert.GreaterOrEqual(t, scores[i], 0.0)
			assert.Less(t, scores[i], 1.0)
			for j := range raw {
				if raw[i] < raw[j] {
					assert.Greater(t, scores[i], scores[j])
				}
			}
		}
	})
}

func TestNormalizeScores(t *testing.T) {
	n := 100
	raw := make([]float64, n)
	events := make([]models.EnrichedEvent, n)
	for i := range raw {
		raw[i] = float64(i)
		events[i].Username = "u"
	}

	out := NormalizeScores(events, raw, ScoreConfig{Threshold: DefaultAnomalyThreshold})
	require.Len(t, out, n)

	// 상위 1..4 순위만 0.95 초과, 5순위(0.95)는 경계값이라 제외
	var anomalies []int
	for i, ev := range out {
		if ev.IsAnomaly {
			anomalies = append(anomalies, i)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3}, anomalies)
	assert.InDelta(t, 0.99, out[0].AnomalyScore, 1e-12)
	assert.InDelta(t, 0.95, out[4].AnomalyScore, 1e-12)
	assert.Equal(t, 0.0, out[n-1].AnomalyScore)
	assert.Equal(t, 3.0, out[3].RawScore)
}
