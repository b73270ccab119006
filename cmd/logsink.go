package cmd

import (
	"os/signal"
	"syscall"

	"github.com/markany/safepc-anomaly/config"
	"github.com/markany/safepc-anomaly/internal/common"
	"github.com/markany/safepc-anomaly/internal/logsink"
	"github.com/spf13/cobra"
)

var logsinkCmd = &cobra.Command{
	Use:   "logsink",
	Short: "Kafka 이벤트 → RAW_DATA_DIR 일별 CSV 적재",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadFromEnv("logsink")
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return logsink.Start(ctx, cfg, common.LoadTimezone(cfg.Timezone, logger), logger)
	},
}
