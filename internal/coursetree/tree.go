// Package coursetree builds and holds the normalized content tree for one
// course. Nodes live in an id-indexed arena with ordered child-id slices,
// so consumers can walk up or down without back-pointers and the finished
// tree is safe for concurrent reads.
package coursetree

import "github.com/campusops/coursemap/internal/extract"

// PathSeparator joins ancestor titles into a breadcrumb.
const PathSeparator = " / "

// Node is one item in the normalized course hierarchy. A merged ultra
// page/document pair appears as a single node whose ID holds both source
// ids. Once the builder returns, nodes are never mutated.
type Node struct {
	ID           string
	ParentID     string
	Title        string
	HandlerID    string
	Type         string
	Availability string
	Position     *int
	Depth        int
	Path         string
	WebURL       string
	Files        []extract.FileRef
	Links        []extract.ContentLink
	Children     []string

	// ErrorReason is set only on error-marker nodes (Type == TypeError).
	ErrorReason string
}

// Tree is the finished arena for one course. The root is a synthetic
// node at depth 0 representing the course itself.
type Tree struct {
	CourseKey string
	Label     string

	rootID string
	nodes  map[string]*Node
}

// Stats summarizes a finished tree for logging and batch output.
type Stats struct {
	Nodes         int // excluding the synthetic root
	EmbeddedFiles int
	ErrorBranches int
}

func newTree(courseKey, label string) *Tree {
	t := &Tree{
		CourseKey: courseKey,
		Label:     label,
		rootID:    courseKey,
		nodes:     make(map[string]*Node),
	}
	t.nodes[t.rootID] = &Node{
		ID:    t.rootID,
		Title: label,
		Type:  TypeCourse,
		Depth: 0,
		Path:  label,
	}
	return t
}

// add inserts a node and links it under its parent, preserving insertion
// order. The parent must already exist.
func (t *Tree) add(n *Node) {
	t.nodes[n.ID] = n
	parent := t.nodes[n.ParentID]
	parent.Children = append(parent.Children, n.ID)
}

// Root returns the synthetic course root.
func (t *Tree) Root() *Node { return t.nodes[t.rootID] }

// Node looks a node up by id; nil when absent.
func (t *Tree) Node(id string) *Node { return t.nodes[id] }

// Len is the node count including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// Walk visits every node pre-order, children in position order.
func (t *Tree) Walk(visit func(*Node)) {
	t.walkFrom(t.rootID, visit)
}

func (t *Tree) walkFrom(id string, visit func(*Node)) {
	n := t.nodes[id]
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		t.walkFrom(child, visit)
	}
}

// Stats tallies nodes, embedded file references and error branches.
func (t *Tree) Stats() Stats {
	var s Stats
	t.Walk(func(n *Node) {
		if n.ID == t.rootID {
			return
		}
		s.Nodes++
		s.EmbeddedFiles += len(n.Files)
		if n.Type == TypeError {
			s.ErrorBranches++
		}
	})
	return s
}
