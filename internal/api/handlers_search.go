package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusops/coursemap/internal/view"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	job := s.finishedJob(w, r)
	if job == nil {
		return
	}
	id := s.sessions.Create(job.ID, view.UnitsFromTree(job.Tree()))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"job_id":     job.ID,
		"query_url":  fmt.Sprintf("/api/sessions/%s/query", id),
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *SessionEntry {
	entry := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if entry == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil
	}
	return entry
}

func (s *Server) handleSessionQuery(w http.ResponseWriter, r *http.Request) {
	entry := s.session(w, r)
	if entry == nil {
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var res view.QueryResult
	entry.Do(func(sess *view.Session) {
		res = sess.QueryChange(req.Query)
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleSessionToggle(w http.ResponseWriter, r *http.Request) {
	entry := s.session(w, r)
	if entry == nil {
		return
	}
	var req struct {
		NodeID string `json:"node_id"`
		Open   bool   `json:"open"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.NodeID == "" {
		jsonError(w, "node_id is required", http.StatusBadRequest)
		return
	}

	s.writeOpenSet(w, entry, func(sess *view.Session) {
		sess.ManualToggle(req.NodeID, req.Open)
	})
}

func (s *Server) handleSessionExpand(w http.ResponseWriter, r *http.Request) {
	entry := s.session(w, r)
	if entry == nil {
		return
	}
	s.writeOpenSet(w, entry, func(sess *view.Session) { sess.ExpandAll() })
}

func (s *Server) handleSessionCollapse(w http.ResponseWriter, r *http.Request) {
	entry := s.session(w, r)
	if entry == nil {
		return
	}
	s.writeOpenSet(w, entry, func(sess *view.Session) { sess.CollapseAll() })
}

// writeOpenSet applies op and replies with the resulting open set.
func (s *Server) writeOpenSet(w http.ResponseWriter, entry *SessionEntry, op func(*view.Session)) {
	var open []string
	var query string
	entry.Do(func(sess *view.Session) {
		op(sess)
		open = sess.OpenIDs()
		query = sess.Query()
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"open":  open,
		"query": query,
	})
}
