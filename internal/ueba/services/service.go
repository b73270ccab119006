package services

import (
	"context"
	"io"
	"sync"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"go.uber.org/zap"
)

// Service: CLI/HTTP 공용 진입점. 학습은 한 번에 하나만 수행
type Service struct {
	pipeline     *Pipeline
	store        *BundleStore
	indexer      *ResultIndexer
	alerts       *AlertPublisher
	trainingPath string
	trainMu      sync.Mutex
	logger       *zap.Logger
}

type ServiceOption func(*Service)

// WithIndexer: 스코어링 결과 OpenSearch 저장
func WithIndexer(x *ResultIndexer) ServiceOption {
	return func(s *Service) { s.indexer = x }
}

// WithAlerts: 고위험 유저 Kafka 알림
func WithAlerts(p *AlertPublisher) ServiceOption {
	return func(s *Service) { s.alerts = p }
}

func NewService(pipeline *Pipeline, store *BundleStore, trainingPath string, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{pipeline: pipeline, store: store, trainingPath: trainingPath, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Pipeline() *Pipeline { return s.pipeline }

func (s *Service) Store() *BundleStore { return s.store }

func (s *Service) Indexer() *ResultIndexer { return s.indexer }

// Train: 설정된 학습 데이터로 재학습 후 번들 교체 (파일 쓰기 성공 후에만)
func (s *Service) Train(ctx context.Context) (*Bundle, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	bundle, err := s.pipeline.Train(ctx, s.trainingPath)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(bundle); err != nil {
		return nil, err
	}
	s.logger.Info("[TRAIN] 번들 저장", zap.String("path", s.store.Path()), zap.String("id", bundle.ID))
	return bundle, nil
}

// ScoreFile: 입력 검증(파일 없음/빈 파일/timestamp 없음) 후 번들 확인
func (s *Service) ScoreFile(ctx context.Context, path string) (*Result, error) {
	batch, err := s.pipeline.Normalizer().LoadLogs(path)
	if err != nil {
		return nil, err
	}
	return s.scoreBatch(ctx, batch)
}

func (s *Service) ScoreReader(ctx context.Context, name string, r io.Reader) (*Result, error) {
	batch, err := s.pipeline.Normalizer().Normalize(name, r)
	if err != nil {
		return nil, err
	}
	return s.scoreBatch(ctx, batch)
}

func (s *Service) scoreBatch(ctx context.Context, batch *models.Batch) (*Result, error) {
	bundle, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.ScoreBatch(ctx, bundle, batch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, res)
	return res, nil
}

// publish: 저장/알림 실패는 스코어링 결과에 영향 없음
func (s *Service) publish(ctx context.Context, res *Result) {
	if s.indexer != nil {
		if err := s.indexer.Index(ctx, res); err != nil {
			s.logger.Warn("[SAVE] OpenSearch 저장 실패", zap.Error(err))
		}
	}
	if s.alerts != nil {
		if _, err := s.alerts.Publish(res); err != nil {
			s.logger.Warn("[ALERT] 알림 발행 실패", zap.Error(err))
		}
	}
}
