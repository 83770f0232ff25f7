package sync

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Clean1ines/sp2ytm/pkg/api"
)

const (
	unknownAlbum    = "Unknown Album"
	unknownDuration = "Unknown"
)

// RenderCandidates рисует таблицу кандидатов в порядке выдачи.
func RenderCandidates(results api.RankedResults) string {
	if len(results) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Artists", "Album", "Duration", "Type"})
	for i, c := range results {
		tw.AppendRow(table.Row{
			strconv.Itoa(i),
			c.Title,
			strings.Join(c.ArtistNames(), ", "),
			c.AlbumName(unknownAlbum),
			c.DurationText(unknownDuration),
			string(c.Kind),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
