package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/markreel/internal/logging"
)

var (
	verbose     bool
	projectPath string
	logger      *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "markreel",
	Short: "Render narrated videos from annotated transcripts",
	Long: `Markreel renders a video from an audio recording and its transcript.

Overlay markers embedded in the transcript are timed against the spoken
words by a forced aligner, composited onto frames and muxed with the
audio by ffmpeg.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&projectPath, "project", "p", "", "Project file (default markreel.toml or spec.json)")
}
