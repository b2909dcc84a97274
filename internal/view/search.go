package view

import (
	"strings"
	"unicode"
)

// Span is a run of text within a title or badge slot; Hit spans are the
// exact character ranges matched by the current query.
type Span struct {
	Text string `json:"text"`
	Hit  bool   `json:"hit"`
}

// Highlight is the marked-up text of one unit under the current query.
type Highlight struct {
	Title  []Span   `json:"title"`
	Badges [][]Span `json:"badges,omitempty"`
}

// QueryResult describes one completed query transition.
type QueryResult struct {
	Query string `json:"query"`

	// Occurrences counts every individual match, not matching units: a
	// title containing the query twice contributes two.
	Occurrences int `json:"occurrences"`

	// Matched lists units with at least one occurrence of their own, in
	// document order.
	Matched []string `json:"matched,omitempty"`

	// Opened and Closed list the unit ids whose disclosure state this
	// transition changed.
	Opened []string `json:"opened,omitempty"`
	Closed []string `json:"closed,omitempty"`

	// FirstMatch is the first matched unit in document order; viewers
	// bring it into view.
	FirstMatch string `json:"first_match,omitempty"`

	Highlights map[string]Highlight `json:"highlights,omitempty"`
}

// Session is the search/disclosure state for one viewer. It is a
// synchronous state machine: each event runs to completion before the
// next is accepted, and callers serialize access.
//
// Two open-state sets are kept apart: autoOpened holds units the most
// recent query opened, manualOpen holds units the user opened by hand.
// The engine never closes a manually opened unit as a side effect of a
// query change.
type Session struct {
	root   *Unit
	order  []*Unit // pre-order
	parent map[string]string

	query      string
	open       map[string]bool
	autoOpened map[string]bool
	manualOpen map[string]bool
}

// NewSession creates the state for a freshly loaded viewer: no query,
// every unit collapsed.
func NewSession(root *Unit) *Session {
	s := &Session{
		root:       root,
		parent:     make(map[string]string),
		open:       make(map[string]bool),
		autoOpened: make(map[string]bool),
		manualOpen: make(map[string]bool),
	}
	var walk func(u *Unit)
	walk = func(u *Unit) {
		s.order = append(s.order, u)
		for _, c := range u.Children {
			s.parent[c.ID] = u.ID
			walk(c)
		}
	}
	walk(root)
	return s
}

// Query returns the active query ("" when idle).
func (s *Session) Query() string { return s.query }

// IsOpen reports the current disclosure state of a unit.
func (s *Session) IsOpen(id string) bool { return s.open[id] }

// OpenIDs returns the currently open unit ids in document order.
func (s *Session) OpenIDs() []string {
	var ids []string
	for _, u := range s.order {
		if s.open[u.ID] {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// QueryChange runs one query transition. Panels the previous query
// opened are closed first (manual opens excepted), then the new query is
// matched against every title and badge text, matched units and their
// ancestors are opened, and the newly auto-opened set replaces the old
// one. Surrounding whitespace is stripped from the query; a blank or
// whitespace-only query returns the session to idle: highlights are
// gone and only manual opens survive.
func (s *Session) QueryChange(query string) QueryResult {
	query = strings.TrimSpace(query)
	res := QueryResult{Query: query}

	// Step 1: retract the previous query's opens.
	for _, u := range s.order {
		if s.autoOpened[u.ID] && !s.manualOpen[u.ID] && s.open[u.ID] {
			s.open[u.ID] = false
			res.Closed = append(res.Closed, u.ID)
		}
	}
	s.autoOpened = make(map[string]bool)
	s.query = query

	if query == "" {
		return res
	}

	needle := query
	res.Highlights = make(map[string]Highlight)

	for _, u := range s.order {
		hl := Highlight{}
		count := 0

		titleSpans, n := markSpans(u.Title, needle)
		count += n
		if n > 0 {
			hl.Title = titleSpans
		}
		for _, badge := range u.Badges {
			badgeSpans, bn := markSpans(badge, needle)
			count += bn
			hl.Badges = append(hl.Badges, badgeSpans)
		}

		if count == 0 {
			continue
		}
		res.Occurrences += count
		res.Matched = append(res.Matched, u.ID)
		if res.FirstMatch == "" {
			res.FirstMatch = u.ID
		}
		res.Highlights[u.ID] = hl
		s.openWithAncestors(u.ID, &res)
	}

	return res
}

// openWithAncestors opens a unit and everything above it, recording the
// newly opened ids (manual opens are left alone and never recorded).
func (s *Session) openWithAncestors(id string, res *QueryResult) {
	for cur := id; cur != ""; cur = s.parent[cur] {
		if !s.open[cur] {
			s.open[cur] = true
			if !s.manualOpen[cur] {
				s.autoOpened[cur] = true
				res.Opened = append(res.Opened, cur)
			}
		}
		if cur == s.root.ID {
			break
		}
	}
}

// ManualToggle applies an explicit user toggle. Manual opens are
// independent of search: they survive query changes and query clears.
func (s *Session) ManualToggle(id string, open bool) {
	if open {
		s.manualOpen[id] = true
		s.open[id] = true
	} else {
		delete(s.manualOpen, id)
		s.open[id] = false
	}
}

// ExpandAll opens every unit and treats them all as manual from this
// point; the pending auto-opened set is forgotten.
func (s *Session) ExpandAll() {
	for _, u := range s.order {
		s.open[u.ID] = true
		s.manualOpen[u.ID] = true
	}
	s.autoOpened = make(map[string]bool)
}

// CollapseAll closes every unit and clears both bookkeeping sets.
func (s *Session) CollapseAll() {
	for _, u := range s.order {
		s.open[u.ID] = false
	}
	s.autoOpened = make(map[string]bool)
	s.manualOpen = make(map[string]bool)
}

// markSpans splits text into plain and hit spans for a needle,
// returning the non-overlapping occurrence count. Case folding happens
// per rune, so hit boundaries land on the original characters even when
// a case pair changes byte width (the Kelvin sign lowers to "k").
func markSpans(text, needle string) ([]Span, int) {
	if needle == "" || text == "" {
		return []Span{{Text: text}}, 0
	}
	runes := []rune(text)
	want := make([]rune, 0, len(needle))
	for _, r := range needle {
		want = append(want, unicode.ToLower(r))
	}

	matchAt := func(i int) bool {
		for j, w := range want {
			if unicode.ToLower(runes[i+j]) != w {
				return false
			}
		}
		return true
	}

	var spans []Span
	count := 0
	pos := 0
	for i := 0; i+len(want) <= len(runes); {
		if !matchAt(i) {
			i++
			continue
		}
		if i > pos {
			spans = append(spans, Span{Text: string(runes[pos:i])})
		}
		spans = append(spans, Span{Text: string(runes[i : i+len(want)]), Hit: true})
		count++
		i += len(want)
		pos = i
	}
	if count == 0 {
		return []Span{{Text: text}}, 0
	}
	if pos < len(runes) {
		spans = append(spans, Span{Text: string(runes[pos:])})
	}
	return spans, count
}
