package export

import (
	"fmt"
	"strings"

	"github.com/campusops/coursemap/internal/coursetree"
)

// RenderMarkdown writes the tree as a nested Markdown outline, one list
// item per node. The serve mode's printable document view is this
// rendering converted to HTML.
func RenderMarkdown(t *coursetree.Tree, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Course %s\n\n", t.Label)

	root := t.Root()
	for _, cid := range root.Children {
		writeMarkdownNode(&b, t, t.Node(cid), 0, opts)
	}
	return b.String()
}

func writeMarkdownNode(b *strings.Builder, t *coursetree.Tree, n *coursetree.Node, indent int, opts Options) {
	pad := strings.Repeat("  ", indent)

	if n.Type == coursetree.TypeError {
		fmt.Fprintf(b, "%s- **[%s]** %s *(%s)*\n", pad, n.Type, n.Title, n.ErrorReason)
		return
	}

	line := fmt.Sprintf("%s- **[%s]** %s", pad, n.Type, mdEscape(n.Title))
	if n.WebURL != "" {
		line += fmt.Sprintf(" (<%s>)", n.WebURL)
	}
	b.WriteString(line + "\n")

	if len(n.Files) > 0 {
		names := make([]string, 0, len(n.Files))
		for _, f := range n.Files {
			names = append(names, "`"+f.Name+"`")
		}
		fmt.Fprintf(b, "%s  - Files: %s\n", pad, strings.Join(opts.limitNames(names), ", "))
	}
	if links := visibleLinks(n.Links); len(links) > 0 {
		fmt.Fprintf(b, "%s  - Links: %s\n", pad, linkListLine(links))
	}

	for _, cid := range n.Children {
		writeMarkdownNode(b, t, t.Node(cid), indent+1, opts)
	}
}

func mdEscape(s string) string {
	r := strings.NewReplacer("*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "'")
	return r.Replace(s)
}
