package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// timestampLayouts: cast/dateparse 가 처리하지 못하는 로그 포맷 (순서대로 시도)
var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006 15:04",
	"02-Jan-2006",
	"02/Jan/2006:15:04:05 -0700",
}

// ParseTimestamp: 로그 timestamp 문자열 → time.Time.
// epoch(초/밀리/마이크로/나노 자릿수), cast 레이아웃, dateparse, 추가 레이아웃 순으로 시도.
// 슬래시 날짜는 월/일 순서로 해석. 타임존 없는 값은 loc 기준
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, ok := parseEpoch(s); ok {
		return t, nil
	}
	if t, err := cast.ToTimeInDefaultLocationE(s, loc); err == nil {
		return t, nil
	}
	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unparseable timestamp %q", s)
}

// parseEpoch: 10/13/16/19 자리 정수만 epoch 로 본다 (20240401 같은 날짜 숫자는 제외). 결과는 UTC
func parseEpoch(s string) (time.Time, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	switch len(s) {
	case 10:
		return time.Unix(n, 0).UTC(), true
	case 13:
		return time.UnixMilli(n).UTC(), true
	case 16:
		return time.UnixMicro(n).UTC(), true
	case 19:
		return time.Unix(0, n).UTC(), true
	}
	return time.Time{}, false
}
