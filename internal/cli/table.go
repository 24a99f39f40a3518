package cli

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mgpai22/markreel/internal/marker"
	"github.com/mgpai22/markreel/internal/timeline"
)

// timelineTable renders one row per event, time right-aligned, headers as written.
func timelineTable(events []timeline.Event) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	tw.AppendHeader(table.Row{"Time", "Event", "UUID", "Detail"})
	for _, ev := range events {
		tw.AppendRow(table.Row{
			strconv.FormatFloat(ev.Timestamp, 'f', 3, 64),
			string(ev.Directive.Kind()),
			ev.UUID,
			directiveDetail(ev.Directive),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func directiveDetail(d marker.Directive) string {
	switch v := d.(type) {
	case marker.ImageStart:
		return fmt.Sprintf("%s at %d,%d size %dx%d", v.Slug, v.Rect.X, v.Rect.Y, v.Rect.W, v.Rect.H)
	case marker.ScriptStart:
		return string(v.Args)
	default:
		return ""
	}
}
