package services

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ColumnAlias: 표준 컬럼명과 허용되는 대체 이름 (우선순위 순)
type ColumnAlias struct {
	Canonical string
	Aliases   []string
	Default   string
}

// ColumnAliases: 실제 로그 데이터셋의 다양한 컬럼명 → 표준 컬럼명
// timestamp만 필수, 나머지는 없으면 Default 값으로 생성
var ColumnAliases = []ColumnAlias{
	{Canonical: models.ColTimestamp, Aliases: []string{"timestamp", "time", "date", "datetime", "event_time"}},
	{Canonical: models.ColSrcIP, Aliases: []string{"src_ip", "source_ip", "ip", "client_ip", "src"}, Default: models.DefaultSrcIP},
	{Canonical: models.ColUsername, Aliases: []string{"username", "user", "account", "user_name", "principal"}, Default: models.Unknown},
	{Canonical: models.ColEventType, Aliases: []string{"event_type", "event", "action", "activity"}, Default: models.Unknown},
	{Canonical: models.ColStatus, Aliases: []string{"status", "result", "outcome", "success", "failure_flag"}, Default: models.Unknown},
}

// Resolution: 표준 컬럼 하나의 alias 해석 결과. Index < 0 이면 미해결
type Resolution struct {
	Canonical string `json:"canonical"`
	Source    string `json:"source,omitempty"`
	Index     int    `json:"index"`
	Default   string `json:"default,omitempty"`
}

func (r Resolution) Resolved() bool { return r.Index >= 0 }

// ResolveColumns: 헤더에서 표준 컬럼별로 첫 번째로 일치하는 alias를 찾는다 (대소문자 무시).
// 표준 컬럼 하나당 헤더 컬럼 하나만 사용하며, 이미 다른 표준 컬럼에 쓰인 헤더는 건너뛴다.
func ResolveColumns(header []string) []Resolution {
	lower := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := lower[key]; !exists {
			lower[key] = i
		}
	}

	used := make(map[int]bool)
	out := make([]Resolution, 0, len(ColumnAliases))
	for _, ca := range ColumnAliases {
		res := Resolution{Canonical: ca.Canonical, Index: -1, Default: ca.Default}
		for _, alias := range ca.Aliases {
			if idx, ok := lower[alias]; ok && !used[idx] {
				res.Index = idx
				res.Source = header[idx]
				used[idx] = true
				break
			}
		}
		out = append(out, res)
	}
	return out
}

type NormalizerConfig struct {
	// 타임존 정보가 없는 timestamp 해석 기준
	Location *time.Location
}

type Normalizer struct {
	cfg    NormalizerConfig
	logger *zap.Logger
}

func NewNormalizer(cfg NormalizerConfig, logger *zap.Logger) *Normalizer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// LoadLogs: CSV 파일을 읽어 표준 스키마 배치로 변환
func (n *Normalizer) LoadLogs(path string) (*models.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrFileNotFound, "open %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return n.Normalize(path, f)
}

// Normalize: 임의 CSV → 표준 컬럼 {timestamp, src_ip, username, event_type, status} 보장.
//   - timestamp 컬럼이 없으면 ErrNoTimestamp
//   - timestamp 파싱 실패 행은 조용히 제거 (입력 순서 유지)
//   - 나머지 컬럼이 없으면 기본값으로 생성 + 경고 로그
//   - 표준 범주형 컬럼의 빈 값은 "unknown"
func (n *Normalizer) Normalize(name string, r io.Reader) (*models.Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(ErrEmptyData, "read %s", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", name)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read rows of %s", name)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(ErrEmptyData, "read %s", name)
	}

	resolutions := ResolveColumns(header)
	if !resolutions[0].Resolved() {
		return nil, errors.Wrapf(ErrNoTimestamp, "in %s, tried aliases %v", name, ColumnAliases[0].Aliases)
	}

	columns := make([]string, len(header))
	copy(columns, header)
	batch := &models.Batch{Source: name}

	// 표준 컬럼 → Values 내 위치
	slots := make(map[string]int, len(resolutions))
	for _, res := range resolutions {
		if res.Resolved() {
			columns[res.Index] = res.Canonical
			slots[res.Canonical] = res.Index
			continue
		}
		n.logger.Warn("[NORMALIZE] 컬럼 없음, 기본값으로 생성",
			zap.String("column", res.Canonical),
			zap.String("source", name),
			zap.String("default", res.Default),
		)
		slots[res.Canonical] = len(columns)
		columns = append(columns, res.Canonical)
		batch.Defaulted = append(batch.Defaulted, res.Canonical)
	}
	batch.Columns = columns

	batch.Events = make([]models.Event, 0, len(rows))
	for _, row := range rows {
		values := make([]string, len(columns))
		copy(values, row)

		ts, err := ParseTimestamp(values[slots[models.ColTimestamp]], n.cfg.Location)
		if err != nil {
			batch.Dropped++
			continue
		}
		values[slots[models.ColTimestamp]] = ts.Format(time.RFC3339Nano)

		for _, res := range resolutions[1:] {
			idx := slots[res.Canonical]
			switch {
			case !res.Resolved():
				values[idx] = res.Default
			case values[idx] == "":
				values[idx] = models.Unknown
			}
		}

		batch.Events = append(batch.Events, models.Event{
			Timestamp: ts,
			SrcIP:     values[slots[models.ColSrcIP]],
			Username:  values[slots[models.ColUsername]],
			EventType: values[slots[models.ColEventType]],
			Status:    values[slots[models.ColStatus]],
			Values:    values,
		})
	}

	if len(batch.Events) == 0 {
		return nil, errors.Wrapf(ErrEmptyData, "no row of %s has a parseable timestamp", name)
	}
	if batch.Dropped > 0 {
		n.logger.Debug("[NORMALIZE] timestamp 파싱 실패 행 제거",
			zap.String("source", name), zap.Int("dropped", batch.Dropped))
	}
	return batch, nil
}
