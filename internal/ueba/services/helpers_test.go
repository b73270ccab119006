package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(NormalizerConfig{Location: time.UTC}, zap.NewNop())
}

func newTestPipeline() *Pipeline {
	cfg := PipelineConfig{
		Forest: ForestConfig{Trees: 50, MaxSamples: 256, Contamination: 0.01, Seed: 42, Workers: 4},
		Score:  ScoreConfig{Threshold: DefaultAnomalyThreshold},
		Risk:   DefaultRiskConfig(),
	}
	enricher := NewEnricher(nil, nil, EnricherConfig{}, zap.NewNop())
	return NewPipeline(newTestNormalizer(), enricher, cfg, zap.NewNop())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// trainingCSV: 업무 시간대 로그인 위주의 정상 이력
func trainingCSV(userCol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "timestamp,src_ip,%s,event_type,status\n", userCol)
	users := []string{"alice", "bob", "carol", "dave"}
	for day := 1; day <= 20; day++ {
		for i, u := range users {
			hour := 9 + (day+i)%8
			fmt.Fprintf(&b, "2024-03-%02d %02d:%02d:00,10.0.0.%d,%s,login,success\n", day, hour, i*7, i+1, u)
		}
	}
	return b.String()
}

func event(ts, ip, user, eventType, status string) models.Event {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	return models.Event{Timestamp: t, SrcIP: ip, Username: user, EventType: eventType, Status: status}
}

func scored(user string, score float64, anomaly bool) models.ScoredEvent {
	return models.ScoredEvent{
		EnrichedEvent: models.EnrichedEvent{Event: models.Event{Username: user}},
		AnomalyScore:  score,
		IsAnomaly:     anomaly,
	}
}

var mixedUsers = []string{"alice", "bob", "carol", "dave", "erin"}

// mixedTrainingCSV: login/logout 이 섞이고 유저별 실패 횟수(0..4)가 다른 이력
func mixedTrainingCSV() string {
	var b strings.Builder
	b.WriteString("timestamp,src_ip,username,event_type,status\n")
	for day := 1; day <= 30; day++ {
		for i, u := range mixedUsers {
			eventType := "logout"
			if day%2 == 0 {
				eventType = "login"
			}
			status := "success"
			if day <= i {
				status = "failure"
			}
			fmt.Fprintf(&b, "2024-03-%02d %02d:00:00,10.0.0.%d,%s,%s,%s\n", day, 9+(day+i)%8, i+1, u, eventType, status)
		}
	}
	return b.String()
}

func newMixedPipeline(t *testing.T) (*Pipeline, *Bundle) {
	t.Helper()
	p := newTestPipeline()
	p.cfg.Forest.Trees = 200
	bundle, err := p.Train(context.Background(), writeFile(t, t.TempDir(), "train.csv", mixedTrainingCSV()))
	require.NoError(t, err)
	return p, bundle
}
