// Package export turns a finished course tree into its output renderings:
// flat rows for tabular output, a box-drawing text tree, a Markdown
// outline, and the self-contained interactive HTML document.
package export

import (
	"fmt"
	"strings"

	"github.com/campusops/coursemap/internal/coursetree"
	"github.com/campusops/coursemap/internal/extract"
)

// Row is one flattened record, one per final (post-merge) node.
type Row struct {
	CourseID             string
	ID                   string
	ParentID             string
	Title                string
	HandlerID            string
	Type                 string
	Availability         string
	Position             string
	Depth                int
	Path                 string
	WebURL               string
	EmbeddedFileCount    int
	EmbeddedFiles        string
	EmbeddedContentLinks string
}

// FlattenRows walks the tree pre-order into rows, the synthetic course
// root included as the depth-0 record.
func FlattenRows(t *coursetree.Tree) []Row {
	rows := make([]Row, 0, t.Len())
	t.Walk(func(n *coursetree.Node) {
		rows = append(rows, Row{
			CourseID:             t.CourseKey,
			ID:                   n.ID,
			ParentID:             n.ParentID,
			Title:                n.Title,
			HandlerID:            n.HandlerID,
			Type:                 n.Type,
			Availability:         n.Availability,
			Position:             positionString(n.Position),
			Depth:                n.Depth,
			Path:                 n.Path,
			WebURL:               n.WebURL,
			EmbeddedFileCount:    len(n.Files),
			EmbeddedFiles:        filesField(n.Files),
			EmbeddedContentLinks: linksField(n.Links),
		})
	})
	return rows
}

func positionString(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}

// filesField serializes file refs as name|mime|render entries joined by
// "; ".
func filesField(files []extract.FileRef) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, f.Name+"|"+f.Mime+"|"+f.RenderMode)
	}
	return strings.Join(parts, "; ")
}

// linksField serializes content links as contentId|linkType entries
// joined by "; ".
func linksField(links []extract.ContentLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		parts = append(parts, l.ContentID+"|"+l.LinkType)
	}
	return strings.Join(parts, "; ")
}

// visibleLinks drops knowledgecheck links from tree renderings; tabular
// output keeps everything.
func visibleLinks(links []extract.ContentLink) []extract.ContentLink {
	out := make([]extract.ContentLink, 0, len(links))
	for _, l := range links {
		if strings.EqualFold(l.LinkType, "knowledgecheck") {
			continue
		}
		out = append(out, l)
	}
	return out
}
