package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/campusops/coursemap/internal/pipeline"
)

// finishedJob fetches a job whose artifacts are ready, writing the
// error response itself when they are not.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted, pipeline.StatusPartial:
		return job
	case pipeline.StatusFailed:
		jsonError(w, "job failed: "+firstError(snap), http.StatusConflict)
		return nil
	default:
		jsonError(w, fmt.Sprintf("job still %s", snap.Status), http.StatusConflict)
		return nil
	}
}

func firstError(snap pipeline.JobSnapshot) string {
	if len(snap.Progress.Errors) > 0 {
		return snap.Progress.Errors[0]
	}
	return "unknown error"
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	job := s.finishedJob(w, r)
	if job == nil {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(job.HTML()))
}

// handleDoc serves the outline rendering converted to HTML, a printable
// alternative to the interactive viewer.
func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	job := s.finishedJob(w, r)
	if job == nil {
		return
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(job.Markdown()), &buf); err != nil {
		s.log.Error("markdown conversion failed", "job_id", job.ID, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n", "Course outline")
	w.Write(buf.Bytes())
	w.Write([]byte("\n</body></html>\n"))
}
