package models

import "time"

// 정규화 후 모든 배치가 갖는 표준 컬럼
const (
	ColTimestamp = "timestamp"
	ColSrcIP     = "src_ip"
	ColUsername  = "username"
	ColEventType = "event_type"
	ColStatus    = "status"
)

// 파생/인코딩 컬럼
const (
	ColCountry         = "country"
	ColRegion          = "region"
	ColCity            = "city"
	ColHour            = "hour"
	ColDayOfWeek       = "dayofweek"
	ColUserEventCount  = "user_event_count"
	ColUserFailedCount = "user_failed_count"
	ColUserUniqueIPs   = "user_unique_ips"
	ColAnomalyScore    = "anomaly_score"
	ColIsAnomaly       = "is_anomaly"
)

const (
	Unknown       = "unknown"
	DefaultSrcIP  = "0.0.0.0"
	FailureStatus = "failure"
)

// Geo: IP enrichment 결과. 조회 실패 시 빈 문자열(null)
type Geo struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// Event is one normalized log line. Values holds the original cells aligned with Batch.Columns.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SrcIP     string    `json:"src_ip"`
	Username  string    `json:"username"`
	EventType string    `json:"event_type"`
	Status    string    `json:"status"`
	Geo       Geo       `json:"geo"`
	Values    []string  `json:"-"`
}

// Features: Feature Builder가 추가하는 파생값
type Features struct {
	Hour            int    `json:"hour"`
	DayOfWeek       int    `json:"dayofweek"`
	Country         string `json:"country"`
	UserEventCount  int    `json:"user_event_count"`
	UserFailedCount int    `json:"user_failed_count"`
	UserUniqueIPs   int    `json:"user_unique_ips"`
}

type EnrichedEvent struct {
	Event
	Features Features `json:"features"`
}

type ScoredEvent struct {
	EnrichedEvent
	RawScore     float64 `json:"raw_score"`
	AnomalyScore float64 `json:"anomaly_score"`
	IsAnomaly    bool    `json:"is_anomaly"`
}

// Batch: 정규화된 입력 테이블. Columns는 rename 이후 헤더 (기본값으로 생성된 컬럼 포함)
type Batch struct {
	Source    string   `json:"source"`
	Columns   []string `json:"columns"`
	Events    []Event  `json:"-"`
	Dropped   int      `json:"dropped"`
	Defaulted []string `json:"defaulted"`
}
