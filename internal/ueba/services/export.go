package services

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
)

var eventDerivedColumns = []string{
	models.ColCountry, models.ColRegion, models.ColCity,
	models.ColHour, models.ColDayOfWeek,
	models.ColUserEventCount, models.ColUserFailedCount, models.ColUserUniqueIPs,
	models.ColAnomalyScore, models.ColIsAnomaly,
}

var userRiskColumns = []string{"username", "avg_anomaly_score", "anomaly_count", "total_events", "risk_score"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func derivedValues(ev *models.ScoredEvent) []string {
	return []string{
		ev.Features.Country, ev.Geo.Region, ev.Geo.City,
		strconv.Itoa(ev.Features.Hour), strconv.Itoa(ev.Features.DayOfWeek),
		strconv.Itoa(ev.Features.UserEventCount),
		strconv.Itoa(ev.Features.UserFailedCount),
		strconv.Itoa(ev.Features.UserUniqueIPs),
		formatFloat(ev.AnomalyScore), strconv.FormatBool(ev.IsAnomaly),
	}
}

// WriteEventsCSV: 원본(정규화) 컬럼 + 파생 컬럼 + anomaly_score/is_anomaly.
// 입력에 같은 이름의 컬럼이 있으면 그 자리를 파생값으로 덮어쓴다 (헤더 중복 없음)
func WriteEventsCSV(w io.Writer, res *Result) error {
	header := append([]string(nil), res.Columns...)
	existing := make(map[string]int, len(header))
	for i, col := range header {
		if _, ok := existing[col]; !ok {
			existing[col] = i
		}
	}
	slots := make([]int, len(eventDerivedColumns))
	for i, col := range eventDerivedColumns {
		if idx, ok := existing[col]; ok {
			slots[i] = idx
			continue
		}
		slots[i] = len(header)
		header = append(header, col)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range res.Events {
		ev := &res.Events[i]
		row := make([]string, len(header))
		copy(row, ev.Values)
		for j, v := range derivedValues(ev) {
			row[slots[j]] = v
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteUsersCSV(w io.Writer, users []models.UserRisk) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(userRiskColumns); err != nil {
		return err
	}
	for _, u := range users {
		row := []string{
			u.Username,
			formatFloat(u.AvgAnomalyScore),
			strconv.Itoa(u.AnomalyCount),
			strconv.Itoa(u.TotalEvents),
			formatFloat(u.RiskScore),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile: 디렉터리 생성 후 파일로 저장
func WriteCSVFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}

// TopEvents: anomaly_score 내림차순 상위 n개 (n <= 0 이면 전체)
func TopEvents(events []models.ScoredEvent, n int) []models.ScoredEvent {
	out := append([]models.ScoredEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnomalyScore > out[j].AnomalyScore })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
