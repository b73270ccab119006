package services

import (
	"context"
	"fmt"
	"time"

	"github.com/markany/safepc-anomaly/internal/common"
	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type eventDoc struct {
	Timestamp       string  `json:"@timestamp"`
	SrcIP           string  `json:"src_ip"`
	Username        string  `json:"username"`
	EventType       string  `json:"event_type"`
	Status          string  `json:"status"`
	Country         string  `json:"country"`
	Region          string  `json:"region,omitempty"`
	City            string  `json:"city,omitempty"`
	Hour            int     `json:"hour"`
	DayOfWeek       int     `json:"dayofweek"`
	UserEventCount  int     `json:"user_event_count"`
	UserFailedCount int     `json:"user_failed_count"`
	UserUniqueIPs   int     `json:"user_unique_ips"`
	AnomalyScore    float64 `json:"anomaly_score"`
	IsAnomaly       bool    `json:"is_anomaly"`
	BundleID        string  `json:"bundle_id"`
	Source          string  `json:"source"`
}

type riskDoc struct {
	models.UserRisk
	BundleID  string `json:"bundle_id"`
	Source    string `json:"source"`
	Timestamp string `json:"@timestamp"`
}

// ResultIndexer: 스코어링 결과를 OpenSearch 일별 인덱스에 저장
type ResultIndexer struct {
	os     *common.OSClient
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

func NewResultIndexer(os *common.OSClient, prefix string, logger *zap.Logger) *ResultIndexer {
	return &ResultIndexer{os: os, prefix: prefix, logger: logger, now: time.Now}
}

func (x *ResultIndexer) Index(ctx context.Context, res *Result) error {
	now := x.now().UTC()
	day := common.DayStamp(now)
	ts := now.Format(time.RFC3339)
	bundleID := res.Summary.BundleID

	docs := make([]common.BulkDoc, 0, len(res.Events)+len(res.Users))
	eventsIndex := common.DailyEventsIndex(x.prefix, day)
	for i := range res.Events {
		ev := &res.Events[i]
		docs = append(docs, common.BulkDoc{Index: eventsIndex, Doc: eventDoc{
			Timestamp:       ev.Timestamp.Format(time.RFC3339Nano),
			SrcIP:           ev.SrcIP,
			Username:        ev.Username,
			EventType:       ev.EventType,
			Status:          ev.Status,
			Country:         ev.Features.Country,
			Region:          ev.Geo.Region,
			City:            ev.Geo.City,
			Hour:            ev.Features.Hour,
			DayOfWeek:       ev.Features.DayOfWeek,
			UserEventCount:  ev.Features.UserEventCount,
			UserFailedCount: ev.Features.UserFailedCount,
			UserUniqueIPs:   ev.Features.UserUniqueIPs,
			AnomalyScore:    ev.AnomalyScore,
			IsAnomaly:       ev.IsAnomaly,
			BundleID:        bundleID,
			Source:          res.Summary.Source,
		}})
	}
	riskIndex := common.DailyRiskIndex(x.prefix, day)
	for _, u := range res.Users {
		docs = append(docs, common.BulkDoc{
			Index: riskIndex,
			ID:    fmt.Sprintf("%s_%s", u.Username, now.Format("15")),
			Doc:   riskDoc{UserRisk: u, BundleID: bundleID, Source: res.Summary.Source, Timestamp: ts},
		})
	}

	result, err := x.os.Bulk(ctx, docs)
	if err != nil {
		return errors.Wrap(err, "index scoring result")
	}
	if err := x.os.Put(ctx, common.RunsIndex(x.prefix), fmt.Sprintf("%d", now.UnixNano()), res.Summary); err != nil {
		x.logger.Warn("[SAVE] 실행 요약 저장 실패", zap.Error(err))
	}
	x.logger.Info("[SAVE] OpenSearch 저장",
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", result.Failed),
		zap.String("events_index", eventsIndex),
		zap.String("risk_index", riskIndex),
	)
	return nil
}

// CountToday: 오늘 인덱스에 저장된 이벤트 수 (상태 API용)
func (x *ResultIndexer) CountToday(ctx context.Context) (int, error) {
	index := common.DailyEventsIndex(x.prefix, common.DayStamp(x.now().UTC()))
	return x.os.Count(ctx, index, map[string]interface{}{"match_all": map[string]interface{}{}})
}
