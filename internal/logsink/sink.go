package logsink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/markany/safepc-anomaly/config"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Columns: 원본 CSV 헤더 (표준 컬럼 순서)
func Columns() []string {
	cols := make([]string, len(services.ColumnAliases))
	for i, ca := range services.ColumnAliases {
		cols[i] = ca.Canonical
	}
	return cols
}

// ToRow: JSON 이벤트 → 표준 컬럼 순서의 CSV 행.
// 키는 대소문자 무시로 alias 매칭, timestamp 가 없으면 수신 시각 사용
func ToRow(data []byte, received time.Time) ([]string, error) {
	var event map[string]interface{}
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, errors.Wrap(err, "decode event")
	}
	lower := make(map[string]interface{}, len(event))
	for k, v := range event {
		lower[strings.ToLower(k)] = v
	}

	row := make([]string, len(services.ColumnAliases))
	for i, ca := range services.ColumnAliases {
		row[i] = ca.Default
		for _, alias := range ca.Aliases {
			if v, ok := lower[alias]; ok && v != nil {
				row[i] = cast.ToString(v)
				break
			}
		}
	}
	if row[0] == "" {
		if v, ok := lower["@timestamp"]; ok && v != nil {
			row[0] = cast.ToString(v)
		} else {
			row[0] = received.Format(time.RFC3339Nano)
		}
	}
	return row, nil
}

// Sink: 일별 CSV 파일에 행 추가 (RAW_DATA_DIR/logs_2006-01-02.csv)
type Sink struct {
	dir    string
	loc    *time.Location
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

func NewSink(dir string, loc *time.Location, logger *zap.Logger) *Sink {
	return &Sink{dir: dir, loc: loc, logger: logger, now: time.Now}
}

func (s *Sink) FilePath(t time.Time) string {
	return filepath.Join(s.dir, "logs_"+t.In(s.loc).Format("2006-01-02")+".csv")
}

func (s *Sink) Append(row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.FilePath(s.now())
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", s.dir)
	}
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(Columns()); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// processMessage: 변환 실패 메시지는 로그만 남기고 건너뜀
func (s *Sink) processMessage(data []byte) bool {
	row, err := ToRow(data, s.now())
	if err != nil {
		s.logger.Debug("[LogSink] 잘못된 메시지", zap.Error(err))
		return false
	}
	if err := s.Append(row); err != nil {
		s.logger.Warn("[LogSink] 저장 실패", zap.Error(err))
		return false
	}
	return true
}

// groupHandler: sarama.ConsumerGroupHandler. 저장 여부와 관계없이 처리한 메시지는 커밋 대상으로 표시
type groupHandler struct {
	sink *Sink
}

func (h groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.sink.processMessage(msg.Value)
			sess.MarkMessage(msg, "")
		}
	}
}

func Start(ctx context.Context, cfg *config.Config, loc *time.Location, logger *zap.Logger) error {
	topics := strings.Split(cfg.Kafka.EventTopics, ",")
	for i := range topics {
		topics[i] = strings.TrimSpace(topics[i])
	}

	consCfg := sarama.NewConfig()
	consCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	group, err := sarama.NewConsumerGroup([]string{cfg.Kafka.Bootstrap}, cfg.Kafka.GroupID, consCfg)
	if err != nil {
		return errors.Wrap(err, "create kafka consumer group")
	}
	defer group.Close()

	handler := groupHandler{sink: NewSink(cfg.Data.RawDataDir, loc, logger)}
	logger.Info("[LogSink] 시작",
		zap.Strings("topics", topics),
		zap.String("group", cfg.Kafka.GroupID),
		zap.String("dir", cfg.Data.RawDataDir),
	)

	// 리밸런스마다 Consume 이 반환되므로 ctx 종료까지 재진입
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				break
			}
			logger.Warn("[LogSink] 컨슈머 그룹 오류", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	logger.Info("[LogSink] 종료")
	return nil
}
