package coursetree

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeFetcher serves canned children per parent id ("" is the top level)
// and can fail specific parents.
type fakeFetcher struct {
	children map[string][]Record
	fail     map[string]error
}

func (f *fakeFetcher) FetchChildren(_ context.Context, _ string, parentID string) ([]Record, error) {
	if err, ok := f.fail[parentID]; ok {
		return nil, err
	}
	return f.children[parentID], nil
}

func intp(n int) *int { return &n }

func pageBody(names ...string) string {
	body := ""
	for _, n := range names {
		body += fmt.Sprintf(`<a data-bbfile="{&quot;linkName&quot;:&quot;%s&quot;,&quot;mimeType&quot;:&quot;application/pdf&quot;}"></a>`, n)
	}
	return body
}

// mergeFixture builds root -> FolderA -> (Page P wrapping Document D
// with two embedded PDFs).
func mergeFixture() *fakeFetcher {
	return &fakeFetcher{children: map[string][]Record{
		"": {
			{ID: "_A", Title: "FolderA", HandlerID: "resource/x-bb-folder", Position: intp(0), Available: "Yes"},
		},
		"_A": {
			{ID: "_P", Title: "Page P", HandlerID: "resource/x-bb-folder", IsPage: true, Position: intp(0), Available: "Yes"},
		},
		"_P": {
			{ID: "_D", Title: "ultradocumentbody", HandlerID: "resource/x-bb-document", Body: pageBody("one.pdf", "two.pdf")},
		},
	}}
}

func TestBuild_DepthAndPathInvariants(t *testing.T) {
	f := &fakeFetcher{children: map[string][]Record{
		"":   {{ID: "_1", Title: "Top", HandlerID: "resource/x-bb-folder"}},
		"_1": {{ID: "_2", Title: "Mid", HandlerID: "resource/x-bb-folder"}},
		"_2": {{ID: "_3", Title: "Leaf", HandlerID: "resource/x-bb-file"}},
	}}
	tree := NewBuilder(f, nil).Build(context.Background(), "_99_1", "TEST-101")

	if tree.Root().Depth != 0 {
		t.Fatalf("root depth = %d, want 0", tree.Root().Depth)
	}
	tree.Walk(func(n *Node) {
		for _, cid := range n.Children {
			child := tree.Node(cid)
			if child.Depth != n.Depth+1 {
				t.Errorf("node %s: depth %d, parent depth %d", cid, child.Depth, n.Depth)
			}
			if child.ParentID != n.ID {
				t.Errorf("node %s: parentID %q, want %q", cid, child.ParentID, n.ID)
			}
		}
	})
	if got := tree.Node("_3").Path; got != "TEST-101 / Top / Mid / Leaf" {
		t.Errorf("leaf path = %q", got)
	}
}

func TestBuild_PreservesSiblingOrder(t *testing.T) {
	f := &fakeFetcher{children: map[string][]Record{
		"": {
			{ID: "_b", Title: "B", HandlerID: "resource/x-bb-folder", Position: intp(2)},
			{ID: "_a", Title: "A", HandlerID: "resource/x-bb-folder", Position: intp(7)},
			{ID: "_c", Title: "C", HandlerID: "resource/x-bb-folder", Position: intp(9)},
		},
	}}
	tree := NewBuilder(f, nil).Build(context.Background(), "_1_1", "X")

	got := tree.Root().Children
	want := []string{"_b", "_a", "_c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("children = %v, want %v (fetch order must survive)", got, want)
		}
	}
}

func TestBuild_MergesPageWithDocument(t *testing.T) {
	tree := NewBuilder(mergeFixture(), nil).Build(context.Background(), "_9_1", "C")

	folder := tree.Node("_A")
	if len(folder.Children) != 1 {
		t.Fatalf("FolderA children = %v, want exactly the merged node", folder.Children)
	}
	merged := tree.Node(folder.Children[0])
	if merged.ID != "[_P,_D]" {
		t.Errorf("merged id = %q, want [_P,_D]", merged.ID)
	}
	if merged.Type != TypeUltraDoc {
		t.Errorf("merged type = %q", merged.Type)
	}
	if merged.Title != "Page P" {
		t.Errorf("merged title = %q, want wrapper title", merged.Title)
	}
	if len(merged.Files) != 2 {
		t.Errorf("merged files = %v, want 2 extracted refs", merged.Files)
	}
	// No orphan wrapper or document node survives.
	if tree.Node("_P") != nil || tree.Node("_D") != nil {
		t.Error("wrapper or document emitted as separate node")
	}
}

func TestBuild_MergedTitleFallsBackToDocument(t *testing.T) {
	f := mergeFixture()
	f.children["_A"][0].Title = ""
	f.children["_P"][0].Title = "Doc Title"
	tree := NewBuilder(f, nil).Build(context.Background(), "_9_1", "C")

	merged := tree.Node(tree.Node("_A").Children[0])
	if merged.Title != "Doc Title" {
		t.Errorf("merged title = %q, want document fallback", merged.Title)
	}
}

func TestBuild_MergePromotesChildren(t *testing.T) {
	f := mergeFixture()
	// A sibling of the document under the wrapper, and a child under the
	// document, both end up under the merged node in that order.
	f.children["_P"] = append(f.children["_P"],
		Record{ID: "_S", Title: "Sibling", HandlerID: "resource/x-bb-file"})
	f.children["_D"] = []Record{
		{ID: "_G", Title: "Grandchild", HandlerID: "resource/x-bb-file"},
	}
	tree := NewBuilder(f, nil).Build(context.Background(), "_9_1", "C")

	merged := tree.Node(tree.Node("_A").Children[0])
	if len(merged.Children) != 2 || merged.Children[0] != "_S" || merged.Children[1] != "_G" {
		t.Fatalf("merged children = %v, want [_S _G]", merged.Children)
	}
	if tree.Node("_G").Depth != merged.Depth+1 {
		t.Errorf("promoted grandchild depth = %d", tree.Node("_G").Depth)
	}
}

func TestBuild_MergesOnlyFirstDocument(t *testing.T) {
	f := mergeFixture()
	f.children["_P"] = append(f.children["_P"],
		Record{ID: "_D2", Title: "Second Doc", HandlerID: "resource/x-bb-document"})
	tree := NewBuilder(f, nil).Build(context.Background(), "_9_1", "C")

	merged := tree.Node("[_P,_D]")
	if merged == nil {
		t.Fatal("first document not merged")
	}
	if second := tree.Node("_D2"); second == nil || second.ParentID != merged.ID {
		t.Errorf("second document should stay a child of the merged node")
	}
}

func TestBuild_CustomMergeRule(t *testing.T) {
	b := NewBuilder(mergeFixture(), nil)
	b.Merge = func(wrapper, child Record) bool { return false }
	tree := b.Build(context.Background(), "_9_1", "C")

	if tree.Node("[_P,_D]") != nil {
		t.Fatal("merge happened despite rule rejecting it")
	}
	if tree.Node("_P") == nil || tree.Node("_D") == nil {
		t.Error("wrapper and document should both survive unmerged")
	}
}

func TestBuild_ErrorMarkerOnFailedBranch(t *testing.T) {
	f := &fakeFetcher{
		children: map[string][]Record{
			"": {
				{ID: "_A", Title: "FolderA", HandlerID: "resource/x-bb-folder"},
				{ID: "_B", Title: "FolderB", HandlerID: "resource/x-bb-folder"},
			},
			"_A": {{ID: "_A1", Title: "Item", HandlerID: "resource/x-bb-file"}},
		},
		fail: map[string]error{"_B": errors.New("permission denied")},
	}
	tree := NewBuilder(f, nil).Build(context.Background(), "_9_1", "C")

	// Sibling subtree populates normally.
	if tree.Node("_A1") == nil {
		t.Fatal("sibling branch missing after unrelated failure")
	}
	folderB := tree.Node("_B")
	if len(folderB.Children) != 1 {
		t.Fatalf("FolderB children = %v, want one error marker", folderB.Children)
	}
	marker := tree.Node(folderB.Children[0])
	if marker.Type != TypeError {
		t.Errorf("marker type = %q, want %q", marker.Type, TypeError)
	}
	if marker.ErrorReason != "permission denied" {
		t.Errorf("marker reason = %q", marker.ErrorReason)
	}
	if s := tree.Stats(); s.ErrorBranches != 1 {
		t.Errorf("ErrorBranches = %d, want 1", s.ErrorBranches)
	}
}

func TestBuild_HideBodyNodes(t *testing.T) {
	f := &fakeFetcher{children: map[string][]Record{
		"": {
			{ID: "_d", Title: "documentbody", HandlerID: "resource/x-bb-document", Body: pageBody("x.pdf")},
			{ID: "_f", Title: "Keep", HandlerID: "resource/x-bb-folder"},
		},
	}}
	b := NewBuilder(f, nil)
	b.IncludeBodyNodes = false
	tree := b.Build(context.Background(), "_9_1", "C")

	if tree.Node("_d") != nil {
		t.Error("UltraBody node should be skipped when bodies are hidden")
	}
	if tree.Node("_f") == nil {
		t.Error("ordinary sibling lost")
	}
}

func TestBuild_StatsCountsFiles(t *testing.T) {
	tree := NewBuilder(mergeFixture(), nil).Build(context.Background(), "_9_1", "C")
	s := tree.Stats()
	if s.Nodes != 2 {
		t.Errorf("Nodes = %d, want 2 (FolderA + merged)", s.Nodes)
	}
	if s.EmbeddedFiles != 2 {
		t.Errorf("EmbeddedFiles = %d, want 2", s.EmbeddedFiles)
	}
}

func TestBuild_ExternalLinkURL(t *testing.T) {
	f := &fakeFetcher{children: map[string][]Record{
		"": {{
			ID: "_l", Title: "Library", HandlerID: "resource/x-bb-externallink",
			HandlerURL: "https://library.example.edu",
		}},
	}}
	tree := NewBuilder(f, nil).Build(context.Background(), "_9_1", "C")
	n := tree.Node("_l")
	if n.Type != TypeLink || n.WebURL != "https://library.example.edu" {
		t.Errorf("link node = %+v", n)
	}
}
