package cmd

import (
	"context"
	"fmt"

	"wedding/config"
	"wedding/db"
	"wedding/models"
	"wedding/processing"
	"wedding/storage"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Match the faces in all new wedding photos against the enrolled guests",
	Long: `Runs one face matching pass over the wedding photos that were not processed yet
and exits. Photos that cannot be read are marked as failed and skipped next time.

Examples:
  # Use the configured threshold
  wedding process

  # Be stricter
  wedding process --threshold 0.5`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().Float64("threshold", 0, "Match threshold, overrides FACE_MATCH_THRESHOLD")
}

func runProcess(cmd *cobra.Command, args []string) error {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold <= 0 {
		threshold = config.FACE_MATCH_THRESHOLD
	}
	db.Init()
	models.Init()
	storage.Init()

	recognizer := newRecognizer()
	defer recognizer.Close()
	processor := processing.NewProcessor(recognizer, threshold)

	var bar *progressbar.ProgressBar
	processor.OnProgress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Matching faces"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(done)
	}

	summary, err := processor.ProcessPending(context.Background())
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("face matching failed: %w", err)
	}
	if summary.Photos == 0 {
		fmt.Println("No new wedding photos to process.")
		return nil
	}
	fmt.Printf("Processed %d of %d photos: %d faces, %d matched\n",
		summary.Processed, summary.Photos, summary.Faces, summary.Matched)
	return nil
}
