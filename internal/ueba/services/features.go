package services

import (
	"strings"
	"time"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
)

// 인코딩 대상 컬럼. 학습/스코어링 모두 이 순서를 사용
var (
	CategoricalColumns = []string{models.ColEventType, models.ColStatus, models.ColCountry}
	NumericColumns     = []string{models.ColHour, models.ColUserEventCount, models.ColUserFailedCount, models.ColUserUniqueIPs}
)

// FeatureColumns returns the ordered categorical + numeric column list.
func FeatureColumns() []string {
	cols := make([]string, 0, len(CategoricalColumns)+len(NumericColumns))
	cols = append(cols, CategoricalColumns...)
	return append(cols, NumericColumns...)
}

// dayOfWeek: 월요일=0 ... 일요일=6
func dayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

type userAgg struct {
	events int
	failed int
	ips    map[string]struct{}
}

// BuildFeatures: 시간 피처 + username별 배치 전체 집계 피처를 추가한다.
// 집계는 현재 배치 기준(스냅샷)이므로 같은 유저도 배치가 다르면 값이 달라진다.
func BuildFeatures(events []models.Event) []models.EnrichedEvent {
	aggs := make(map[string]*userAgg)
	for _, ev := range events {
		a, ok := aggs[ev.Username]
		if !ok {
			a = &userAgg{ips: make(map[string]struct{})}
			aggs[ev.Username] = a
		}
		a.events++
		if strings.EqualFold(ev.Status, models.FailureStatus) {
			a.failed++
		}
		a.ips[ev.SrcIP] = struct{}{}
	}

	out := make([]models.EnrichedEvent, len(events))
	for i, ev := range events {
		a := aggs[ev.Username]
		country := ev.Geo.Country
		if country == "" {
			country = models.Unknown
		}
		out[i] = models.EnrichedEvent{
			Event: ev,
			Features: models.Features{
				Hour:            ev.Timestamp.Hour(),
				DayOfWeek:       dayOfWeek(ev.Timestamp),
				Country:         country,
				UserEventCount:  a.events,
				UserFailedCount: a.failed,
				UserUniqueIPs:   len(a.ips),
			},
		}
	}
	return out
}

// categoricalValue / numericValue: 인코더가 컬럼명으로 값을 꺼내는 유일한 경로
func categoricalValue(ev *models.EnrichedEvent, col string) (string, bool) {
	switch col {
	case models.ColEventType:
		return ev.EventType, true
	case models.ColStatus:
		return ev.Status, true
	case models.ColCountry:
		return ev.Features.Country, true
	case models.ColUsername:
		return ev.Username, true
	case models.ColSrcIP:
		return ev.SrcIP, true
	}
	return "", false
}

func numericValue(ev *models.EnrichedEvent, col string) (float64, bool) {
	switch col {
	case models.ColHour:
		return float64(ev.Features.Hour), true
	case models.ColDayOfWeek:
		return float64(ev.Features.DayOfWeek), true
	case models.ColUserEventCount:
		return float64(ev.Features.UserEventCount), true
	case models.ColUserFailedCount:
		return float64(ev.Features.UserFailedCount), true
	case models.ColUserUniqueIPs:
		return float64(ev.Features.UserUniqueIPs), true
	}
	return 0, false
}
