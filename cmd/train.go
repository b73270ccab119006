package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "TRAINING_DATA_PATH 로 Isolation Forest 학습 후 번들 저장",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("train", false)
		if err != nil {
			return err
		}
		defer a.Close()

		bundle, err := a.service.Train(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bundle %s saved to %s (%d rows, %d features)\n",
			bundle.ID, a.service.Store().Path(), bundle.TrainingRows, bundle.Encoder.Width())
		return nil
	},
}
