package services

import (
	"sort"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
)

// DefaultAnomalyThreshold: anomaly_score 가 이 값을 초과하면 is_anomaly
const DefaultAnomalyThreshold = 0.95

type ScoreConfig struct {
	Threshold float64
}

// RankScores converts raw model signal (higher = more normal) into 1 - percentile rank.
// Ties share their average rank. The result is batch-relative: the same raw value can map to a
// different score in another batch. A single-row batch always gets rank 1.0 and therefore score 0.
func RankScores(raw []float64) []float64 {
	n := len(raw)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return raw[order[a]] < raw[order[b]] })

	scores := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && raw[order[j+1]] == raw[order[i]] {
			j++
		}
		// 1-based 순위 i+1..j+1 의 평균
		rank := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			scores[order[k]] = 1 - rank/float64(n)
		}
		i = j + 1
	}
	return scores
}

// NormalizeScores: raw signal → anomaly_score / is_anomaly
func NormalizeScores(events []models.EnrichedEvent, raw []float64, cfg ScoreConfig) []models.ScoredEvent {
	scores := RankScores(raw)
	out := make([]models.ScoredEvent, len(events))
	for i := range events {
		out[i] = models.ScoredEvent{
			EnrichedEvent: events[i],
			RawScore:      raw[i],
			AnomalyScore:  scores[i],
			IsAnomaly:     scores[i] > cfg.Threshold,
		}
	}
	return out
}
