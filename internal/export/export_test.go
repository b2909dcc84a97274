package export

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/campusops/coursemap/internal/coursetree"
)

type stubFetcher struct {
	children map[string][]coursetree.Record
}

func (s *stubFetcher) FetchChildren(_ context.Context, _ string, parentID string) ([]coursetree.Record, error) {
	return s.children[parentID], nil
}

func intp(n int) *int { return &n }

const docBody = `<p>Week one.</p>` +
	`<a data-bbfile="{&quot;linkName&quot;:&quot;Syllabus.pdf&quot;,&quot;mimeType&quot;:&quot;application/pdf&quot;,&quot;render&quot;:&quot;INLINE&quot;}"></a>` +
	`<a data-bbfile="{&quot;linkName&quot;:&quot;Schedule.docx&quot;,&quot;mimeType&quot;:&quot;application/vnd.openxmlformats-officedocument.wordprocessingml.document&quot;,&quot;render&quot;:&quot;ATTACHMENT&quot;}"></a>` +
	`<a data-content-link="_55_1" data-content-link-type="knowledgecheck">check</a>` +
	`<a data-content-link="_56_1" data-content-link-type="document">see also</a>`

// fixtureTree builds:
//
//	TEST-101 Intro
//	├─ FolderA
//	│  └─ [_P,_D] merged ultra doc with two files and two links
//	└─ Catalog <link>
func fixtureTree(t *testing.T) *coursetree.Tree {
	t.Helper()
	f := &stubFetcher{children: map[string][]coursetree.Record{
		"": {
			{ID: "_A", Title: "FolderA", HandlerID: "resource/x-bb-folder", Position: intp(0), Available: "Yes"},
			{ID: "_L", Title: "Catalog", HandlerID: "resource/x-bb-externallink", HandlerURL: "https://example.org/catalog", Position: intp(1), Available: "Yes"},
		},
		"_A": {
			{ID: "_P", Title: "Week 1, part A", HandlerID: "resource/x-bb-folder", IsPage: true, Position: intp(0), Available: "Yes"},
		},
		"_P": {
			{ID: "_D", Title: "ultradocumentbody", HandlerID: "resource/x-bb-document", Body: docBody},
		},
	}}
	return coursetree.NewBuilder(f, nil).Build(context.Background(), "_111_1", "TEST-101 Intro")
}

func findRow(rows []Row, id string) (Row, bool) {
	for _, r := range rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

func TestFlattenRows(t *testing.T) {
	rows := FlattenRows(fixtureTree(t))

	if rows[0].ID != "_111_1" || rows[0].Depth != 0 {
		t.Fatalf("first row = %+v, want the depth-0 course root", rows[0])
	}
	for _, r := range rows {
		if r.CourseID != "_111_1" {
			t.Errorf("row %s: course id %q", r.ID, r.CourseID)
		}
	}

	merged, ok := findRow(rows, "[_P,_D]")
	if !ok {
		t.Fatalf("no merged row in %d rows", len(rows))
	}
	if merged.EmbeddedFileCount != 2 {
		t.Errorf("embedded file count = %d, want 2", merged.EmbeddedFileCount)
	}
	wantFiles := "Syllabus.pdf|application/pdf|INLINE; Schedule.docx|application/vnd.openxmlformats-officedocument.wordprocessingml.document|ATTACHMENT"
	if merged.EmbeddedFiles != wantFiles {
		t.Errorf("embedded files = %q", merged.EmbeddedFiles)
	}
	// Tabular output keeps knowledgecheck links.
	if !strings.Contains(merged.EmbeddedContentLinks, "_55_1|knowledgecheck") {
		t.Errorf("links = %q, want knowledgecheck retained", merged.EmbeddedContentLinks)
	}
	if !strings.Contains(merged.EmbeddedContentLinks, "_56_1|document") {
		t.Errorf("links = %q, want document link", merged.EmbeddedContentLinks)
	}
	if merged.Path != "TEST-101 Intro / FolderA / Week 1, part A" {
		t.Errorf("merged path = %q", merged.Path)
	}

	link, _ := findRow(rows, "_L")
	if link.WebURL != "https://example.org/catalog" {
		t.Errorf("link web url = %q", link.WebURL)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, FlattenRows(fixtureTree(t))); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	wantHeader := "course_id,id,parentId,title,handler_id,type,availability,position,depth,path,web_url,embedded_file_count,embedded_files,embedded_content_links"
	if lines[0] != wantHeader {
		t.Fatalf("header = %q", lines[0])
	}
	// Root + FolderA + merged + Catalog.
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	// The merged title contains a comma and must survive quoting.
	if !strings.Contains(out, `"Week 1, part A"`) {
		t.Errorf("comma title not quoted:\n%s", out)
	}
	if !strings.Contains(out, `"[_P,_D]"`) {
		t.Errorf("merged id not quoted:\n%s", out)
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(fixtureTree(t), DefaultOptions())

	for _, want := range []string{
		"Course TEST-101 Intro\n",
		"├─ [Folder] FolderA  (id=_A, pos=0, avail=Yes)",
		"└─ [Link] Catalog",
		"[URL: https://example.org/catalog]",
		"[ULTRA DOC] Week 1, part A  (id=[_P,_D]",
		"[Files: Syllabus.pdf (inline, pdf); Schedule.docx (attachment, docx)]",
		"[Embedded content links: _56_1 (document)]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Tree renderings hide knowledgecheck links.
	if strings.Contains(out, "knowledgecheck") {
		t.Errorf("knowledgecheck link leaked into text tree:\n%s", out)
	}
}

func TestRenderText_Truncation(t *testing.T) {
	body := pageBodyN(12)
	f := &stubFetcher{children: map[string][]coursetree.Record{
		"": {{ID: "_d1", Title: "Handout", HandlerID: "resource/x-bb-document", Body: body}},
	}}
	tree := coursetree.NewBuilder(f, nil).Build(context.Background(), "_5_1", "X")

	out := RenderText(tree, Options{FileLimit: 10})
	if !strings.Contains(out, "(+2 more)") {
		t.Errorf("want truncation suffix:\n%s", out)
	}

	full := RenderText(tree, Options{FileLimit: 10, NoTruncate: true})
	if strings.Contains(full, "more)") {
		t.Errorf("NoTruncate still truncated:\n%s", full)
	}
	if !strings.Contains(full, "f12.pdf") {
		t.Errorf("NoTruncate dropped names:\n%s", full)
	}
}

func pageBodyN(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<a data-bbfile="{&quot;linkName&quot;:&quot;f%d.pdf&quot;,&quot;mimeType&quot;:&quot;application/pdf&quot;}"></a>`, i)
	}
	return b.String()
}

func TestRenderText_ErrorBranch(t *testing.T) {
	tree := coursetree.NewBuilder(&failingFetcher{}, nil).Build(context.Background(), "_7_1", "Y")

	out := RenderText(tree, DefaultOptions())
	if !strings.Contains(out, "[error] (unavailable)") {
		t.Errorf("missing error marker:\n%s", out)
	}
	if !strings.Contains(out, "reason=") {
		t.Errorf("missing failure reason:\n%s", out)
	}
}

type failingFetcher struct{}

func (f *failingFetcher) FetchChildren(_ context.Context, _ string, _ string) ([]coursetree.Record, error) {
	return nil, context.DeadlineExceeded
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(fixtureTree(t), DefaultOptions())

	for _, want := range []string{
		"# Course TEST-101 Intro\n",
		"- **[Folder]** FolderA",
		"  - **[ULTRA DOC]** Week 1, part A",
		"- Files: `Syllabus.pdf`, `Schedule.docx`",
		"(<https://example.org/catalog>)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTreeHTML(t *testing.T) {
	out := TreeHTML(fixtureTree(t))

	for _, want := range []string{
		`<ul id="tree">`,
		`data-id="_A"`,
		`data-id="[_P,_D]"`,
		`class="chip chip-ultra-doc"`,
		`<span class="file-badge ext-pdf">Syllabus.pdf</span>`,
		`<span class="file-badge ext-docx">Schedule.docx</span>`,
		`href="https://example.org/catalog"`,
		`_56_1 (document)`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markup missing %q", want)
		}
	}
	if strings.Contains(out, "knowledgecheck") {
		t.Error("knowledgecheck link leaked into viewer markup")
	}
}

func TestTreeHTML_EscapesMarkup(t *testing.T) {
	f := &stubFetcher{children: map[string][]coursetree.Record{
		"": {{ID: "_x", Title: `<script>alert("hi")</script>`, HandlerID: "resource/x-bb-folder"}},
	}}
	tree := coursetree.NewBuilder(f, nil).Build(context.Background(), "_3_1", "Z")

	out := TreeHTML(tree)
	if strings.Contains(out, `<script>alert`) {
		t.Fatalf("title not escaped: %s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("escaped title missing: %s", out)
	}
}

func TestRenderHTML(t *testing.T) {
	out := RenderHTML(fixtureTree(t))

	for _, want := range []string{
		"<!doctype html>",
		"Course Map - TEST-101 Intro",
		`<input id="q"`,
		`id="expand"`,
		`id="collapse"`,
		"<script>",
		"data-search-open",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("document missing %q", want)
		}
	}
}
