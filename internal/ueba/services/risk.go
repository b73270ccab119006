package services

import (
	"math"
	"sort"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
)

type RiskConfig struct {
	ScoreWeight     float64
	FrequencyWeight float64
	MediumThreshold float64
	HighThreshold   float64
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{ScoreWeight: 0.7, FrequencyWeight: 0.3, MediumThreshold: 0.5, HighThreshold: 0.8}
}

func classifyRisk(score float64, cfg RiskConfig) models.RiskLevel {
	if score >= cfg.HighThreshold {
		return models.RiskHigh
	} else if score >= cfg.MediumThreshold {
		return models.RiskMedium
	}
	return models.RiskLow
}

// AggregateRisk: username별 위험도.
// risk_score = w1*avg_anomaly_score + w2*(anomaly_count / max(total_events, 1))
// 그룹은 username 오름차순으로 만든 뒤 risk_score 내림차순 stable 정렬 (동점은 그룹 순서 유지)
func AggregateRisk(events []models.ScoredEvent, cfg RiskConfig) []models.UserRisk {
	type acc struct {
		sum       float64
		anomalies int
		total     int
	}
	groups := make(map[string]*acc)
	for i := range events {
		a, ok := groups[events[i].Username]
		if !ok {
			a = &acc{}
			groups[events[i].Username] = a
		}
		a.sum += events[i].AnomalyScore
		a.total++
		if events[i].IsAnomaly {
			a.anomalies++
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.UserRisk, 0, len(names))
	for _, name := range names {
		a := groups[name]
		avg := a.sum / float64(a.total)
		freq := float64(a.anomalies) / math.Max(float64(a.total), 1)
		score := cfg.ScoreWeight*avg + cfg.FrequencyWeight*freq
		out = append(out, models.UserRisk{
			Username:        name,
			AvgAnomalyScore: avg,
			AnomalyCount:    a.anomalies,
			TotalEvents:     a.total,
			RiskScore:       score,
			RiskLevel:       classifyRisk(score, cfg),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RiskScore > out[j].RiskScore })
	return out
}
