package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Align the transcript and print the overlay timeline",
	Long: `Parse and align the project's transcript, then print every overlay
event with its resolved time. Nothing is rendered.`,
	Args: cobra.NoArgs,
	RunE: runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(logger)
	if err != nil {
		return err
	}
	p, err := buildPlan(cmd.Context(), cfg, newAligner(cfg, logger), logger)
	if err != nil {
		return err
	}

	tl := p.result.Timeline
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, timelineTable(tl.Events))
	fmt.Fprintf(out, "duration %.3fs, %d frames at %d fps\n", tl.Duration, tl.Frames(), tl.FrameRate)
	for _, m := range p.result.Unresolved {
		fmt.Fprintf(out, "unresolved: %s %s at position %d\n", m.UUID, m.Directive.Kind(), m.Position)
	}
	return nil
}
