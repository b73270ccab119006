package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
	"github.com/spf13/cobra"
)

var (
	scoreInput     string
	scoreEventsOut string
	scoreUsersOut  string
	scoreTop       int
	scorePublish   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "로그 CSV 스코어링 후 이벤트/유저 위험도 CSV 출력",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("score", scorePublish)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.service.ScoreFile(cmd.Context(), scoreInput)
		if err != nil {
			return err
		}
		if err := services.WriteCSVFile(scoreEventsOut, func(w io.Writer) error {
			return services.WriteEventsCSV(w, res)
		}); err != nil {
			return err
		}
		if err := services.WriteCSVFile(scoreUsersOut, func(w io.Writer) error {
			return services.WriteUsersCSV(w, res.Users)
		}); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printSummary(out, res.Summary)
		printTopEvents(out, services.TopEvents(res.Events, scoreTop))
		printUsers(out, res.Users, scoreTop)
		fmt.Fprintf(out, "\nevents → %s\nusers  → %s\n", scoreEventsOut, scoreUsersOut)
		return nil
	},
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreInput, "input", "data/raw/new_logs.csv", "스코어링할 로그 CSV")
	f.StringVar(&scoreEventsOut, "events-out", "data/output/scored_events.csv", "이벤트 결과 CSV")
	f.StringVar(&scoreUsersOut, "users-out", "data/output/user_risk.csv", "유저 위험도 CSV")
	f.IntVar(&scoreTop, "top", 10, "콘솔에 출력할 상위 건수")
	f.BoolVar(&scorePublish, "publish", false, "OpenSearch 저장 / Kafka 알림 (설정된 경우)")
}

func printSummary(w io.Writer, s models.Summary) {
	fmt.Fprintf(w, "source=%s bundle=%s events=%d dropped=%d anomalies=%d users=%d high_risk=%d\n",
		s.Source, s.BundleID, s.TotalEvents, s.DroppedRows, s.Anomalies, s.Users, s.HighRiskUsers)
}

func printTopEvents(w io.Writer, events []models.ScoredEvent) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nTIMESTAMP\tUSERNAME\tSRC_IP\tEVENT_TYPE\tSTATUS\tCOUNTRY\tANOMALY_SCORE")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.4f\n",
			ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Username, ev.SrcIP,
			ev.EventType, ev.Status, ev.Features.Country, ev.AnomalyScore)
	}
	tw.Flush()
}

func printUsers(w io.Writer, users []models.UserRisk, n int) {
	if n > 0 && n < len(users) {
		users = users[:n]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nUSERNAME\tAVG_SCORE\tANOMALIES\tEVENTS\tRISK_SCORE\tLEVEL")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%.4f\t%d\t%d\t%.4f\t%s\n",
			u.Username, u.AvgAnomalyScore, u.AnomalyCount, u.TotalEvents, u.RiskScore, u.RiskLevel)
	}
	tw.Flush()
}
