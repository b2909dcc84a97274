package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/campusops/coursemap/internal/blackboard"
	"github.com/campusops/coursemap/internal/coursetree"
	"github.com/campusops/coursemap/internal/export"
)

// CourseSource is the course API surface a worker needs: identifier
// resolution, display metadata, and a per-crawl listing snapshot for
// the builder. Each job takes its own snapshot, so a second job for the
// same course observes the course as it stands, not a cached listing.
type CourseSource interface {
	ResolveCourseKey(ctx context.Context, courseID string) (string, error)
	CourseMeta(ctx context.Context, courseKey string) (code, name string, err error)
	Snapshot(ctx context.Context, courseKey string) (coursetree.Fetcher, error)
}

// Worker maps a single course per job.
type Worker struct {
	src CourseSource
	log *slog.Logger
}

func NewWorker(src CourseSource, log *slog.Logger) *Worker {
	return &Worker{src: src, log: log}
}

// Process runs the full mapping pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "course_id", job.CourseID)

	// Phase 1: Resolve
	job.SetStatus(StatusResolving, "resolving")
	courseKey, err := w.src.ResolveCourseKey(ctx, job.CourseID)
	if err != nil {
		var rerr *blackboard.ResolutionError
		if errors.As(err, &rerr) {
			log.Error("course not found", "error", err)
		} else {
			log.Error("resolution failed", "error", err)
		}
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "resolving")
		return
	}

	label := job.CourseID
	if code, name, err := w.src.CourseMeta(ctx, courseKey); err != nil {
		log.Warn("course metadata unavailable", "error", err)
	} else {
		label = courseLabel(code, name, job.CourseID)
	}
	job.SetCourse(courseKey, label)

	// Phase 2: Crawl
	job.SetStatus(StatusCrawling, "crawling")
	snap, err := w.src.Snapshot(ctx, courseKey)
	if err != nil {
		log.Error("course listing unavailable", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "crawling")
		return
	}
	tree := coursetree.NewBuilder(snap, w.log).Build(ctx, courseKey, label)
	stats := tree.Stats()
	job.SetStats(stats)
	log.Info("crawl finished", "nodes", stats.Nodes, "files", stats.EmbeddedFiles, "error_branches", stats.ErrorBranches)

	if stats.ErrorBranches > 0 && stats.Nodes == stats.ErrorBranches {
		job.AddError("no content reachable")
		job.SetStatus(StatusFailed, "crawling")
		return
	}
	if ctx.Err() != nil {
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "crawling")
		return
	}

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	job.SetArtifacts(tree,
		export.RenderHTML(tree),
		export.RenderMarkdown(tree, export.DefaultOptions()))

	if stats.ErrorBranches > 0 {
		job.AddError(fmt.Sprintf("%d branch(es) unavailable", stats.ErrorBranches))
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}

func courseLabel(code, name, fallback string) string {
	label := strings.TrimSpace(strings.TrimSpace(code) + " " + strings.TrimSpace(name))
	if label == "" {
		return fallback
	}
	return label
}
