package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "ueba-anomaly",
	Short:        "SafePC UEBA 이상 탐지",
	Long:         "보안 로그 CSV 정규화, Isolation Forest 학습/스코어링, 유저 위험도 집계",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(logsinkCmd)
}
