// Package view holds the interactive viewer's render model and the
// search/disclosure engine that drives it. A finished course tree is
// projected into disclosure units (one collapsible region per node, with
// a title slot and one badge slot per embedded file); a Session then
// tracks expand/collapse and highlight state across successive queries.
package view

import "github.com/campusops/coursemap/internal/coursetree"

// Unit is one disclosure unit in the rendered tree. Badge texts are part
// of the model even while the unit is collapsed, so search can match them
// without expanding anything first.
type Unit struct {
	ID       string
	Title    string
	Type     string
	Badges   []string
	Children []*Unit
}

// UnitsFromTree projects the course tree into the render model. Badges
// carry the embedded file display names in extraction order.
func UnitsFromTree(t *coursetree.Tree) *Unit {
	return unitFromNode(t, t.Root())
}

func unitFromNode(t *coursetree.Tree, n *coursetree.Node) *Unit {
	u := &Unit{
		ID:    n.ID,
		Title: n.Title,
		Type:  n.Type,
	}
	for _, f := range n.Files {
		u.Badges = append(u.Badges, f.Name)
	}
	for _, cid := range n.Children {
		u.Children = append(u.Children, unitFromNode(t, t.Node(cid)))
	}
	return u
}
