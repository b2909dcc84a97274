package export

import (
	"fmt"
	"strings"

	"github.com/campusops/coursemap/internal/coursetree"
	"github.com/campusops/coursemap/internal/extract"
)

// Options controls tree renderings (TXT/Markdown/HTML).
type Options struct {
	// FileLimit caps the embedded file names shown per node; the rest
	// collapse into a "(+N more)" suffix. Ignored when NoTruncate.
	FileLimit  int
	NoTruncate bool
}

// DefaultOptions matches the CLI defaults.
func DefaultOptions() Options {
	return Options{FileLimit: 10}
}

func (o Options) limitNames(names []string) []string {
	if o.NoTruncate || o.FileLimit <= 0 || len(names) <= o.FileLimit {
		return names
	}
	extra := len(names) - o.FileLimit
	out := append([]string{}, names[:o.FileLimit]...)
	return append(out, fmt.Sprintf("… (+%d more)", extra))
}

// RenderText draws the course tree with box-drawing branches.
func RenderText(t *coursetree.Tree, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course %s\n\n", t.Label)

	root := t.Root()
	for i, cid := range root.Children {
		writeTextNode(&b, t, t.Node(cid), "", i == len(root.Children)-1, opts)
	}
	return b.String()
}

func writeTextNode(b *strings.Builder, t *coursetree.Tree, n *coursetree.Node, prefix string, isLast bool, opts Options) {
	branch := "├─ "
	childPrefix := prefix + "│  "
	if isLast {
		branch = "└─ "
		childPrefix = prefix + "   "
	}

	if n.Type == coursetree.TypeError {
		fmt.Fprintf(b, "%s%s[%s] %s  (id=%s, reason=%s)\n", prefix, branch, n.Type, n.Title, n.ID, n.ErrorReason)
		return
	}

	suffix := ""
	if n.WebURL != "" {
		suffix = fmt.Sprintf("  [URL: %s]", n.WebURL)
	}
	fmt.Fprintf(b, "%s%s[%s] %s  (id=%s, pos=%s, avail=%s)%s\n",
		prefix, branch, n.Type, n.Title, n.ID, positionString(n.Position), n.Availability, suffix)

	if line := fileListLine(n.Files, opts); line != "" {
		fmt.Fprintf(b, "%s[%s]\n", childPrefix, line)
	}
	if links := visibleLinks(n.Links); len(links) > 0 {
		fmt.Fprintf(b, "%s[Embedded content links: %s]\n", childPrefix, linkListLine(links))
	}

	for i, cid := range n.Children {
		writeTextNode(b, t, t.Node(cid), childPrefix, i == len(n.Children)-1, opts)
	}
}

// fileListLine formats "Files: name (render, kind); …" with truncation.
func fileListLine(files []extract.FileRef, opts Options) string {
	if len(files) == 0 {
		return ""
	}
	parts := make([]string, 0, len(files))
	for _, f := range files {
		render := strings.ToLower(f.RenderMode)
		if render == "" {
			render = "inline"
		}
		parts = append(parts, fmt.Sprintf("%s (%s, %s)", f.Name, render, extract.MimeFamily(f.Mime)))
	}
	return "Files: " + strings.Join(opts.limitNames(parts), "; ")
}

func linkListLine(links []extract.ContentLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		lt := l.LinkType
		if lt == "" {
			lt = "link"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", l.ContentID, lt))
	}
	return strings.Join(parts, "; ")
}
