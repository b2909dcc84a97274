package view

import (
	"context"
	"testing"

	"github.com/campusops/coursemap/internal/coursetree"
)

type stubFetcher struct {
	children map[string][]coursetree.Record
}

func (f *stubFetcher) FetchChildren(_ context.Context, _ string, parentID string) ([]coursetree.Record, error) {
	return f.children[parentID], nil
}

func TestUnitsFromTree(t *testing.T) {
	body := `<a data-bbfile="{&quot;linkName&quot;:&quot;a.pdf&quot;,&quot;mimeType&quot;:&quot;application/pdf&quot;}"></a>` +
		`<a data-bbfile="{&quot;linkName&quot;:&quot;b.pdf&quot;,&quot;mimeType&quot;:&quot;application/pdf&quot;}"></a>`
	f := &stubFetcher{children: map[string][]coursetree.Record{
		"": {
			{ID: "_A", Title: "FolderA", HandlerID: "resource/x-bb-folder"},
		},
		"_A": {
			{ID: "_P", Title: "Page P", HandlerID: "resource/x-bb-folder", IsPage: true},
		},
		"_P": {
			{ID: "_D", Title: "ultradocumentbody", HandlerID: "resource/x-bb-document", Body: body},
		},
	}}
	tree := coursetree.NewBuilder(f, nil).Build(context.Background(), "_1_1", "TEST-101")

	root := UnitsFromTree(tree)
	if root.Title != "TEST-101" || len(root.Children) != 1 {
		t.Fatalf("root unit = %+v", root)
	}
	folder := root.Children[0]
	if folder.ID != "_A" || len(folder.Children) != 1 {
		t.Fatalf("folder unit = %+v", folder)
	}
	merged := folder.Children[0]
	if merged.ID != "[_P,_D]" {
		t.Errorf("merged unit id = %q", merged.ID)
	}
	if len(merged.Badges) != 2 || merged.Badges[0] != "a.pdf" || merged.Badges[1] != "b.pdf" {
		t.Errorf("badges = %v, want file names in order", merged.Badges)
	}
}
