package services

import (
	"context"
	"io"
	"time"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type PipelineConfig struct {
	Forest ForestConfig
	Score  ScoreConfig
	Risk   RiskConfig
}

// Pipeline: 정규화 → enrichment → 피처 → 인코딩 → 모델 → 점수 정규화 → 유저 위험도
type Pipeline struct {
	normalizer *Normalizer
	enricher   *Enricher
	cfg        PipelineConfig
	logger     *zap.Logger
}

func NewPipeline(normalizer *Normalizer, enricher *Enricher, cfg PipelineConfig, logger *zap.Logger) *Pipeline {
	return &Pipeline{normalizer: normalizer, enricher: enricher, cfg: cfg, logger: logger}
}

// Result: 스코어링 1회 결과
type Result struct {
	Columns []string             `json:"columns"`
	Events  []models.ScoredEvent `json:"events"`
	Users   []models.UserRisk    `json:"users"`
	Summary models.Summary       `json:"summary"`
}

func (p *Pipeline) Normalizer() *Normalizer { return p.normalizer }

func (p *Pipeline) Config() PipelineConfig { return p.cfg }

func (p *Pipeline) prepare(ctx context.Context, batch *models.Batch) []models.EnrichedEvent {
	p.enricher.Enrich(ctx, batch.Events)
	return BuildFeatures(batch.Events)
}

// Train: 참조 데이터셋으로 새 번들 생성 (저장은 호출자가 담당)
func (p *Pipeline) Train(ctx context.Context, path string) (*Bundle, error) {
	p.logger.Info("[TRAIN] 학습 데이터 로드", zap.String("path", path))
	batch, err := p.normalizer.LoadLogs(path)
	if err != nil {
		return nil, err
	}
	return p.TrainBatch(ctx, batch)
}

func (p *Pipeline) TrainBatch(ctx context.Context, batch *models.Batch) (*Bundle, error) {
	started := time.Now()
	events := p.prepare(ctx, batch)

	enc, err := FitEncoder(events, CategoricalColumns, NumericColumns)
	if err != nil {
		return nil, errors.Wrap(err, "fit encoder")
	}
	X, err := enc.Transform(events)
	if err != nil {
		return nil, err
	}

	p.logger.Info("[TRAIN] Isolation Forest 학습 시작",
		zap.Int("rows", len(X)),
		zap.Int("features", enc.Width()),
		zap.Int("trees", p.cfg.Forest.Trees),
		zap.Float64("contamination", p.cfg.Forest.Contamination),
	)
	model, err := FitIsolationForest(ctx, X, p.cfg.Forest)
	if err != nil {
		return nil, errors.Wrap(err, "fit isolation forest")
	}

	bundle := NewBundle(batch.Source, len(events), enc, model)
	p.logger.Info("[TRAIN] 학습 완료",
		zap.String("bundle", bundle.ID),
		zap.Duration("elapsed", time.Since(started)),
	)
	return bundle, nil
}

func (p *Pipeline) Score(ctx context.Context, bundle *Bundle, path string) (*Result, error) {
	p.logger.Info("[SCORE] 로그 로드", zap.String("path", path))
	batch, err := p.normalizer.LoadLogs(path)
	if err != nil {
		return nil, err
	}
	return p.ScoreBatch(ctx, bundle, batch)
}

func (p *Pipeline) ScoreReader(ctx context.Context, bundle *Bundle, name string, r io.Reader) (*Result, error) {
	batch, err := p.normalizer.Normalize(name, r)
	if err != nil {
		return nil, err
	}
	return p.ScoreBatch(ctx, bundle, batch)
}

// ScoreBatch: 번들은 읽기 전용으로만 사용
func (p *Pipeline) ScoreBatch(ctx context.Context, bundle *Bundle, batch *models.Batch) (*Result, error) {
	if bundle == nil {
		return nil, errors.Wrap(ErrModelNotTrained, "no bundle loaded, run `train` first")
	}
	events := p.prepare(ctx, batch)

	X, err := bundle.Encoder.Transform(events)
	if err != nil {
		return nil, err
	}
	raw, err := bundle.Model.Decision(X)
	if err != nil {
		return nil, err
	}

	scored := NormalizeScores(events, raw, p.cfg.Score)
	users := AggregateRisk(scored, p.cfg.Risk)

	summary := models.Summary{
		Source:      batch.Source,
		BundleID:    bundle.ID,
		TotalEvents: len(scored),
		DroppedRows: batch.Dropped,
		Users:       len(users),
		ScoredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	for i := range scored {
		if scored[i].IsAnomaly {
			summary.Anomalies++
		}
	}
	for _, u := range users {
		if u.RiskScore >= p.cfg.Risk.HighThreshold {
			summary.HighRiskUsers++
		}
	}

	p.logger.Info("[SCORE] 스코어링 완료",
		zap.String("source", batch.Source),
		zap.String("bundle", bundle.ID),
		zap.Int("events", summary.TotalEvents),
		zap.Int("anomalies", summary.Anomalies),
		zap.Int("users", summary.Users),
		zap.Int("high_risk_users", summary.HighRiskUsers),
	)
	return &Result{Columns: batch.Columns, Events: scored, Users: users, Summary: summary}, nil
}
