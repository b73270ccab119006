package common

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const solution = "siem"

// LoadTimezone: 설정된 타임존 로드, 실패 시 UTC 사용
func LoadTimezone(tz string, logger *zap.Logger) *time.Location {
	l, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("[common] 타임존 로드 실패, UTC 사용", zap.String("timezone", tz), zap.Error(err))
		return time.UTC
	}
	return l
}

func DailyEventsIndex(prefix, day string) string {
	return fmt.Sprintf("%s-%s-ueba-events-%s", prefix, solution, day)
}

func DailyRiskIndex(prefix, day string) string {
	return fmt.Sprintf("%s-%s-ueba-risk-%s", prefix, solution, day)
}

// DayStamp: 일별 인덱스 접미사 (2006.01.02)
func DayStamp(t time.Time) string {
	return t.Format("2006.01.02")
}

func RunsIndex(prefix string) string {
	return fmt.Sprintf("%s-%s-ueba-runs", prefix, solution)
}
