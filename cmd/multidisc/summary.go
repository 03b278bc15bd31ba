package main

import (
	"strconv"

	"github.com/backmassage/multidisc/internal/display"
	"github.com/backmassage/multidisc/internal/pipeline"
)

func summaryTable(stats pipeline.RunStats) string {
	headers := []string{"Title", "Discs", "Moved", "Data files", "Missing", "Playlist"}
	aligns := []display.Alignment{
		display.AlignLeft,
		display.AlignRight,
		display.AlignRight,
		display.AlignRight,
		display.AlignRight,
		display.AlignLeft,
	}

	rows := make([][]string, 0, len(stats.Reports))
	for _, r := range stats.Reports {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		rows = append(rows, []string{
			title,
			strconv.Itoa(r.Discs),
			strconv.Itoa(r.Moved),
			strconv.Itoa(r.RefsMoved),
			strconv.Itoa(r.RefsMissing),
			r.Playlist,
		})
	}
	return display.RenderTable(headers, rows, aligns)
}
