package cmd

import (
	"time"

	"github.com/markany/safepc-anomaly/config"
	"github.com/markany/safepc-anomaly/internal/common"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
	"go.uber.org/zap"
)

// app: 서브커맨드 공용 구성요소
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	loc     *time.Location
	service *services.Service
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("[APP] 종료 실패", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return common.NewLogger(cfg.Log.Level, cfg.Log.Format)
}

func pipelineConfig(cfg *config.Config) services.PipelineConfig {
	return services.PipelineConfig{
		Forest: services.ForestConfig{
			Trees:         cfg.Model.Trees,
			MaxSamples:    cfg.Model.MaxSamples,
			Contamination: cfg.Model.Contamination,
			Seed:          cfg.Model.Seed,
			Workers:       cfg.Model.Workers,
		},
		Score: services.ScoreConfig{Threshold: cfg.Scoring.AnomalyThreshold},
		Risk: services.RiskConfig{
			ScoreWeight:     cfg.Scoring.ScoreWeight,
			FrequencyWeight: cfg.Scoring.FrequencyWeight,
			MediumThreshold: cfg.Scoring.MediumRiskThreshold,
			HighThreshold:   cfg.Scoring.HighRiskThreshold,
		},
	}
}

// newApp: publish=true 이면 OpenSearch/Kafka 가 설정된 경우 결과 저장/알림 연결
func newApp(service string, publish bool) (*app, error) {
	cfg := config.LoadFromEnv(service)
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, loc: common.LoadTimezone(cfg.Timezone, logger)}

	var lookup services.GeoLookup
	if cfg.Enrich.IPInfoToken != "" {
		lookup = services.NewIPInfoClient(services.IPInfoConfig{
			Token:   cfg.Enrich.IPInfoToken,
			BaseURL: cfg.Enrich.IPInfoURL,
			Timeout: cfg.Enrich.Timeout,
		})
	}
	var cache services.GeoCache = services.NewMemoryGeoCache()
	if cfg.Enrich.RedisAddr != "" {
		rc := services.NewRedisGeoCache(cfg.Enrich.RedisAddr, cfg.Enrich.CacheTTL, logger)
		a.closers = append(a.closers, rc.Close)
		cache = rc
	}
	enricher := services.NewEnricher(lookup, cache, services.EnricherConfig{Concurrency: cfg.Enrich.Concurrency}, logger)
	normalizer := services.NewNormalizer(services.NormalizerConfig{Location: a.loc}, logger)
	pipeline := services.NewPipeline(normalizer, enricher, pipelineConfig(cfg), logger)
	store := services.NewBundleStore(cfg.Model.Path, logger)

	var opts []services.ServiceOption
	if publish && cfg.OpenSearch.URL != "" {
		osClient := common.NewOSClient(cfg.OpenSearch.URL)
		opts = append(opts, services.WithIndexer(services.NewResultIndexer(osClient, cfg.IndexPrefix, logger)))
	}
	if publish && cfg.Kafka.Bootstrap != "" {
		alerts, err := services.NewKafkaAlertPublisher(cfg.Kafka.Bootstrap, cfg.Kafka.AlertTopic, cfg.Scoring.HighRiskThreshold, logger)
		if err != nil {
			logger.Warn("[ALERT] Kafka producer 생성 실패, 알림 비활성화", zap.Error(err))
		} else {
			a.closers = append(a.closers, alerts.Close)
			opts = append(opts, services.WithAlerts(alerts))
		}
	}

	a.service = services.NewService(pipeline, store, cfg.Data.TrainingDataPath, logger, opts...)
	return a, nil
}
