package cmd

import (
	"fmt"
	"os"

	"wedding/config"
	"wedding/faces"
	"wedding/faces/dlib"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "wedding",
	Short: "Wedding guest service with face matching",
	Long: `Serves the wedding API: guest invitations, RSVPs, selfie enrollment and
wedding photos. Every guest gets the photos their face was matched in.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Load settings from this .env file")
}

func initConfig() {
	if envFile == "" {
		return
	}
	if err := godotenv.Overload(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "cannot load %s: %v\n", envFile, err)
		os.Exit(1)
	}
	config.Load()
}

func errFaceDetectDisabled(string) (faces.Engine, error) {
	return nil, fmt.Errorf("face detection is disabled (FACE_DETECT=false)")
}

// newRecognizer returns a recognizer that loads the dlib models on first use
func newRecognizer() *faces.Recognizer {
	open := dlib.Open
	if config.FACE_DETECT_CNN {
		open = dlib.OpenCNN
	}
	if !config.FACE_DETECT {
		open = errFaceDetectDisabled
	}
	recognizer := faces.NewRecognizer(config.FACE_MODELS_DIR, open)
	if config.FACE_MAX_IMAGE_SIZE > 0 {
		recognizer.MaxImageSize = uint(config.FACE_MAX_IMAGE_SIZE)
	}
	return recognizer
}
