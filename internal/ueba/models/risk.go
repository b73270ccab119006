package models

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// UserRisk: username 단위 위험도 집계. 매 스코어링마다 새로 계산됨
type UserRisk struct {
	Username        string    `json:"username"`
	AvgAnomalyScore float64   `json:"avg_anomaly_score"`
	AnomalyCount    int       `json:"anomaly_count"`
	TotalEvents     int       `json:"total_events"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
}

// RiskAlert: 고위험 유저 Kafka 알림 메시지
type RiskAlert struct {
	UserRisk
	BundleID  string    `json:"bundle_id"`
	Source    string    `json:"source"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"@timestamp"`
}

type Summary struct {
	Source        string `json:"source"`
	BundleID      string `json:"bundle_id"`
	TotalEvents   int    `json:"total_events"`
	DroppedRows   int    `json:"dropped_rows"`
	Anomalies     int    `json:"anomalies"`
	Users         int    `json:"users"`
	HighRiskUsers int    `json:"high_risk_users"`
	ScoredAt      string `json:"scored_at"`
}
