package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Data        DataConfig
	Model       ModelConfig
	Scoring     ScoringConfig
	Enrich      EnrichConfig
	OpenSearch  OpenSearchConfig
	Kafka       KafkaConfig
	Log         LogConfig
	Timezone    string
	IndexPrefix string
}

type ServerConfig struct {
	Port      string
	MemWarnMB float64
	MemCritMB float64
}

type DataConfig struct {
	TrainingDataPath string
	RawDataDir       string
}

// ModelConfig: Isolation Forest 학습 파라미터
type ModelConfig struct {
	Path          string
	Trees         int
	MaxSamples    int
	Contamination float64
	Seed          int64
	Workers       int
}

// ScoringConfig: rank 기반 이상 점수 임계값 + 유저 위험도 가중치
type ScoringConfig struct {
	AnomalyThreshold    float64
	HighRiskThreshold   float64
	MediumRiskThreshold float64
	ScoreWeight         float64
	FrequencyWeight     float64
}

type EnrichConfig struct {
	IPInfoToken string
	IPInfoURL   string
	Timeout     time.Duration
	Concurrency int
	RedisAddr   string
	CacheTTL    time.Duration
}

type OpenSearchConfig struct {
	URL string
}

type KafkaConfig struct {
	Bootstrap   string
	GroupID     string
	EventTopics string
	AlertTopic  string
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadFromEnv(service string) *Config {
	// .env 파일은 있으면 로드, 없으면 무시
	_ = godotenv.Load()
	viper.AutomaticEnv()

	// 기본값 설정
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("INDEX_PREFIX", "safepc")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")

	viper.SetDefault("HEALTH_MEM_WARN_MB", 512)
	viper.SetDefault("HEALTH_MEM_CRIT_MB", 1024)

	viper.SetDefault("TRAINING_DATA_PATH", "data/processed/historical_logs.csv")
	viper.SetDefault("RAW_DATA_DIR", "data/raw")

	viper.SetDefault("MODEL_PATH", "models/isolation_forest.json")
	viper.SetDefault("MODEL_TREES", 200)
	viper.SetDefault("MODEL_MAX_SAMPLES", 256)
	viper.SetDefault("MODEL_CONTAMINATION", 0.01)
	viper.SetDefault("MODEL_SEED", 42)
	viper.SetDefault("MODEL_WORKERS", 0)

	viper.SetDefault("ANOMALY_SCORE_THRESHOLD", 0.95)
	viper.SetDefault("HIGH_RISK_THRESHOLD", 0.8)
	viper.SetDefault("MEDIUM_RISK_THRESHOLD", 0.5)
	viper.SetDefault("RISK_SCORE_WEIGHT", 0.7)
	viper.SetDefault("RISK_FREQUENCY_WEIGHT", 0.3)

	viper.SetDefault("IPINFO_TOKEN", "")
	viper.SetDefault("IPINFO_URL", "https://ipinfo.io")
	viper.SetDefault("ENRICH_TIMEOUT", "3s")
	viper.SetDefault("ENRICH_CONCURRENCY", 4)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("ENRICH_CACHE_TTL", "24h")

	viper.SetDefault("OPENSEARCH_URL", "")
	viper.SetDefault("KAFKA_BOOTSTRAP_SERVERS", "")
	viper.SetDefault("KAFKA_CONSUMER_GROUP_PREFIX", "siem")
	viper.SetDefault("KAFKA_ALERT_TOPIC", "ueba-risk-alerts")
	viper.SetDefault("KAFKA_EVENT_TOPICS", "MESSAGE_AUTH,MESSAGE_ACCESS")

	cfg := &Config{
		Timezone:    viper.GetString("TIMEZONE"),
		IndexPrefix: viper.GetString("INDEX_PREFIX"),
		Server: ServerConfig{
			MemWarnMB: viper.GetFloat64("HEALTH_MEM_WARN_MB"),
			MemCritMB: viper.GetFloat64("HEALTH_MEM_CRIT_MB"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Data: DataConfig{
			TrainingDataPath: viper.GetString("TRAINING_DATA_PATH"),
			RawDataDir:       viper.GetString("RAW_DATA_DIR"),
		},
		Model: ModelConfig{
			Path:          viper.GetString("MODEL_PATH"),
			Trees:         viper.GetInt("MODEL_TREES"),
			MaxSamples:    viper.GetInt("MODEL_MAX_SAMPLES"),
			Contamination: viper.GetFloat64("MODEL_CONTAMINATION"),
			Seed:          viper.GetInt64("MODEL_SEED"),
			Workers:       viper.GetInt("MODEL_WORKERS"),
		},
		Scoring: ScoringConfig{
			AnomalyThreshold:    viper.GetFloat64("ANOMALY_SCORE_THRESHOLD"),
			HighRiskThreshold:   viper.GetFloat64("HIGH_RISK_THRESHOLD"),
			MediumRiskThreshold: viper.GetFloat64("MEDIUM_RISK_THRESHOLD"),
			ScoreWeight:         viper.GetFloat64("RISK_SCORE_WEIGHT"),
			FrequencyWeight:     viper.GetFloat64("RISK_FREQUENCY_WEIGHT"),
		},
		Enrich: EnrichConfig{
			IPInfoToken: viper.GetString("IPINFO_TOKEN"),
			IPInfoURL:   viper.GetString("IPINFO_URL"),
			Timeout:     viper.GetDuration("ENRICH_TIMEOUT"),
			Concurrency: viper.GetInt("ENRICH_CONCURRENCY"),
			RedisAddr:   viper.GetString("REDIS_ADDR"),
			CacheTTL:    viper.GetDuration("ENRICH_CACHE_TTL"),
		},
		OpenSearch: OpenSearchConfig{
			URL: viper.GetString("OPENSEARCH_URL"),
		},
		Kafka: KafkaConfig{
			Bootstrap:   viper.GetString("KAFKA_BOOTSTRAP_SERVERS"),
			EventTopics: viper.GetString("KAFKA_EVENT_TOPICS"),
			AlertTopic:  viper.GetString("KAFKA_ALERT_TOPIC"),
		},
	}

	switch service {
	case "serve":
		viper.SetDefault("UEBA_PORT", ":48082")
		cfg.Server.Port = viper.GetString("UEBA_PORT")
	case "logsink":
		cfg.Kafka.GroupID = viper.GetString("KAFKA_CONSUMER_GROUP_PREFIX") + "-ueba-logsink"
	}

	return cfg
}
