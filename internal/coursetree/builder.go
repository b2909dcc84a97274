package coursetree

import (
	"context"
	"log/slog"

	"github.com/campusops/coursemap/internal/extract"
)

// Record is one raw content item as returned by the fetcher, before
// normalization.
type Record struct {
	ID         string
	ParentID   string
	Title      string
	Body       string
	Position   *int
	Available  string
	HandlerID  string
	HandlerURL string
	IsPage     bool
}

// Fetcher supplies raw content for a course: the ordered children of
// one parent (empty parent id means top level). Each call either
// returns or fails within the implementation's own bounded contract;
// the builder never imposes timeouts of its own.
type Fetcher interface {
	FetchChildren(ctx context.Context, courseKey, parentID string) ([]Record, error)
}

// MergeRule decides whether a child consumes its wrapper: given an ultra
// page wrapper and one of its children, report whether the two represent
// the same logical content item and should collapse into a single node.
// The trigger taxonomy is inferred from observed handler values, so the
// rule is pluggable rather than fixed.
type MergeRule func(wrapper, child Record) bool

// DefaultMergeRule merges an ultra page with a document-handler child.
// When a page wraps several documents only the first is merged; the rest
// stay ordinary children of the merged node.
func DefaultMergeRule(wrapper, child Record) bool {
	return IsPageWrapper(wrapper) && IsDocumentHandler(child)
}

// Builder assembles the normalized tree for one course. The crawl is
// single-threaded with strictly sequential fetch calls, so sibling order
// is deterministic and the arena needs no locking.
type Builder struct {
	Fetcher Fetcher
	Merge   MergeRule // nil means DefaultMergeRule
	Log     *slog.Logger

	// IncludeBodyNodes keeps UltraBody container nodes in the tree;
	// disabled they are skipped in every rendering.
	IncludeBodyNodes bool
}

func NewBuilder(f Fetcher, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		Fetcher:          f,
		Log:              log,
		IncludeBodyNodes: true,
	}
}

// Build crawls the course depth-first and returns the finished tree.
// Fetch failures below the top level never abort the crawl: the failed
// branch becomes an error-marker node and siblings proceed. The returned
// tree is complete even when branches failed; callers inspect Stats to
// surface partial results.
func (b *Builder) Build(ctx context.Context, courseKey, label string) *Tree {
	t := newTree(courseKey, label)
	b.crawlChildren(ctx, t, "", t.Root())
	return t
}

func (b *Builder) mergeRule() MergeRule {
	if b.Merge != nil {
		return b.Merge
	}
	return DefaultMergeRule
}

// crawlChildren fetches and attaches the children of one parent.
func (b *Builder) crawlChildren(ctx context.Context, t *Tree, apiParentID string, parent *Node) {
	recs, err := b.Fetcher.FetchChildren(ctx, t.CourseKey, apiParentID)
	if err != nil {
		b.Log.Warn("subtree fetch failed, continuing",
			"course_key", t.CourseKey, "parent_id", apiParentID, "error", err)
		b.addErrorNode(t, parent, apiParentID, err)
		return
	}
	for _, r := range recs {
		b.addRecord(ctx, t, parent, r)
	}
}

// addRecord normalizes one raw record under parent and recurses into its
// children.
func (b *Builder) addRecord(ctx context.Context, t *Tree, parent *Node, r Record) {
	typ := Classify(r)
	if !b.IncludeBodyNodes && typ == TypeUltraBody {
		return
	}

	if IsPageWrapper(r) {
		b.addWrapper(ctx, t, parent, r)
		return
	}

	node := b.newNode(parent, r, typ)
	if IsDocumentHandler(r) {
		node.Files, node.Links = extract.Scan(r.Body)
	}
	t.add(node)
	b.crawlChildren(ctx, t, r.ID, node)
}

// addWrapper handles an ultra page: when the merge rule matches one of
// its children, page and document collapse into a single node that holds
// both source ids and the document's extracted references; the wrapper's
// remaining children and the document's own children are promoted under
// the merged node, in that order.
func (b *Builder) addWrapper(ctx context.Context, t *Tree, parent *Node, r Record) {
	kids, err := b.Fetcher.FetchChildren(ctx, t.CourseKey, r.ID)
	if err != nil {
		node := b.newNode(parent, r, Classify(r))
		t.add(node)
		b.Log.Warn("wrapper children fetch failed, continuing",
			"course_key", t.CourseKey, "parent_id", r.ID, "error", err)
		b.addErrorNode(t, node, r.ID, err)
		return
	}

	rule := b.mergeRule()
	docIdx := -1
	for i, kid := range kids {
		if rule(r, kid) {
			docIdx = i
			break
		}
	}
	if docIdx < 0 {
		// An ultra page with nothing to consume is an ordinary folder.
		node := b.newNode(parent, r, Classify(r))
		t.add(node)
		for _, kid := range kids {
			b.addRecord(ctx, t, node, kid)
		}
		return
	}

	doc := kids[docIdx]
	title := r.Title
	if title == "" {
		title = doc.Title
	}
	merged := &Node{
		ID:           "[" + r.ID + "," + doc.ID + "]",
		ParentID:     parent.ID,
		Title:        title,
		HandlerID:    doc.HandlerID,
		Type:         TypeUltraDoc,
		Availability: r.Available,
		Position:     r.Position,
		Depth:        parent.Depth + 1,
		Path:         parent.Path + PathSeparator + titleOrHandler(title, doc.HandlerID),
	}
	merged.Files, merged.Links = extract.Scan(doc.Body)
	t.add(merged)

	for i, kid := range kids {
		if i == docIdx {
			continue
		}
		b.addRecord(ctx, t, merged, kid)
	}
	b.crawlChildren(ctx, t, doc.ID, merged)
}

func (b *Builder) newNode(parent *Node, r Record, typ string) *Node {
	n := &Node{
		ID:           r.ID,
		ParentID:     parent.ID,
		Title:        r.Title,
		HandlerID:    r.HandlerID,
		Type:         typ,
		Availability: r.Available,
		Position:     r.Position,
		Depth:        parent.Depth + 1,
		Path:         parent.Path + PathSeparator + titleOrHandler(r.Title, r.HandlerID),
	}
	if IsExternalLink(r) {
		n.WebURL = r.HandlerURL
	}
	return n
}

func (b *Builder) addErrorNode(t *Tree, parent *Node, apiParentID string, err error) {
	id := "error:" + apiParentID
	if apiParentID == "" {
		id = "error:root"
	}
	t.add(&Node{
		ID:          id,
		ParentID:    parent.ID,
		Title:       "(unavailable)",
		Type:        TypeError,
		Depth:       parent.Depth + 1,
		Path:        parent.Path + PathSeparator + "(unavailable)",
		ErrorReason: err.Error(),
	})
}

func titleOrHandler(title, handlerID string) string {
	if title != "" {
		return title
	}
	return handlerID
}
