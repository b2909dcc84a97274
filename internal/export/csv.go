package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var csvHeader = table.Row{
	"course_id", "id", "parentId", "title", "handler_id", "type",
	"availability", "position", "depth", "path", "web_url",
	"embedded_file_count", "embedded_files", "embedded_content_links",
}

// WriteCSV renders the flattened rows as CSV.
func WriteCSV(w io.Writer, rows []Row) error {
	tw := table.NewWriter()
	// Column names are a wire contract; keep their exact case.
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(csvHeader)
	for _, r := range rows {
		tw.AppendRow(table.Row{
			r.CourseID, r.ID, r.ParentID, r.Title, r.HandlerID, r.Type,
			r.Availability, r.Position, r.Depth, r.Path, r.WebURL,
			r.EmbeddedFileCount, r.EmbeddedFiles, r.EmbeddedContentLinks,
		})
	}
	if _, err := fmt.Fprintln(w, tw.RenderCSV()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
