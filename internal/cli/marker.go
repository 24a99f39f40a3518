package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mgpai22/markreel/internal/marker"
)

var markerCmd = &cobra.Command{
	Use:   "marker <slug> <x> <y> <w> <h>",
	Short: "Print a start/end marker pair for an image overlay",
	Long: `Print an image start marker and its matching end marker, sharing a
fresh uuid, ready to paste into a transcript.

Examples:
  markreel marker logo 40 40 320 180
  markreel marker chart 0 0 1920 1080 --absolute 12.5`,
	Args: cobra.ExactArgs(5),
	RunE: runMarker,
}

func init() {
	rootCmd.AddCommand(markerCmd)

	markerCmd.Flags().
		Float64("absolute", 0, "Pin the start marker to this time in seconds")
	markerCmd.Flags().
		Float64("relative", 0, "Shift the start marker by this many seconds")
}

func runMarker(cmd *cobra.Command, args []string) error {
	rect, err := parseRect(args[1:])
	if err != nil {
		return err
	}

	id := uuid.NewString()
	start := marker.Marker{
		UUID:      id,
		Directive: marker.ImageStart{Slug: args[0], Rect: rect},
	}
	if cmd.Flags().Changed("absolute") {
		abs, _ := cmd.Flags().GetFloat64("absolute")
		start.Absolute = &abs
	}
	if cmd.Flags().Changed("relative") {
		rel, _ := cmd.Flags().GetFloat64("relative")
		start.Relative = &rel
	}

	startText, err := marker.Encode(start)
	if err != nil {
		return fmt.Errorf("failed to encode marker: %w", err)
	}
	endText, err := marker.Encode(marker.Marker{UUID: id, Directive: marker.ImageEnd{}})
	if err != nil {
		return fmt.Errorf("failed to encode marker: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, startText)
	fmt.Fprintln(out, endText)
	return nil
}

func parseRect(args []string) (marker.Rect, error) {
	var vals [4]int
	names := [4]string{"x", "y", "w", "h"}
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return marker.Rect{}, fmt.Errorf("%s must be a non-negative integer, got %q", names[i], arg)
		}
		vals[i] = n
	}
	return marker.Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}
