package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/markreel/internal/marker"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [transcript]",
	Short: "Print a transcript with its markers removed",
	Long: `Print the transcript with every marker stripped and whitespace collapsed,
exactly as it is sent to the aligner.

Without an argument the project's transcript is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadProject(logger)
		if err != nil {
			return err
		}
		path = cfg.Transcript
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), marker.Clean(string(data)))
	return err
}
