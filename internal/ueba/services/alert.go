package services

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AlertPublisher: risk_score 가 임계값 이상인 유저를 Kafka 토픽으로 발행
type AlertPublisher struct {
	producer  sarama.SyncProducer
	topic     string
	threshold float64
	logger    *zap.Logger
}

func NewAlertPublisher(producer sarama.SyncProducer, topic string, threshold float64, logger *zap.Logger) *AlertPublisher {
	return &AlertPublisher{producer: producer, topic: topic, threshold: threshold, logger: logger}
}

// NewKafkaAlertPublisher: bootstrap 서버로 SyncProducer 생성
func NewKafkaAlertPublisher(bootstrap, topic string, threshold float64, logger *zap.Logger) (*AlertPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	producer, err := sarama.NewSyncProducer([]string{bootstrap}, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "connect kafka %s", bootstrap)
	}
	return NewAlertPublisher(producer, topic, threshold, logger), nil
}

// Publish: 발행한 알림 수 반환. 유저 목록은 risk_score 내림차순이라고 가정하지 않는다
func (p *AlertPublisher) Publish(res *Result) (int, error) {
	now := time.Now().UTC()
	var msgs []*sarama.ProducerMessage
	for _, u := range res.Users {
		if u.RiskScore < p.threshold {
			continue
		}
		value, err := json.Marshal(models.RiskAlert{
			UserRisk:  u,
			BundleID:  res.Summary.BundleID,
			Source:    res.Summary.Source,
			Threshold: p.threshold,
			Timestamp: now,
		})
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(u.Username),
			Value: sarama.ByteEncoder(value),
		})
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		return 0, errors.Wrapf(err, "publish %d alerts to %s", len(msgs), p.topic)
	}
	p.logger.Info("[ALERT] 고위험 유저 알림 발행", zap.Int("count", len(msgs)), zap.String("topic", p.topic))
	return len(msgs), nil
}

func (p *AlertPublisher) Close() error { return p.producer.Close() }
