package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/campusops/coursemap/internal/blackboard"
	"github.com/campusops/coursemap/internal/coursetree"
	"github.com/campusops/coursemap/internal/export"
)

type mapFlags struct {
	courseIDs   []string
	coursesFile string
	outDir      string

	txt  bool
	csv  bool
	md   bool
	html bool

	hideBodies    bool
	treeFileLimit int
	noTruncate    bool
}

func newMapCommand() *cobra.Command {
	var flags mapFlags

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Crawl one or more courses and write their exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&flags.courseIDs, "course-id", nil, "course identifier or pk1; repeatable")
	f.StringVar(&flags.coursesFile, "courses-file", "", "file with one course identifier per line")
	f.StringVar(&flags.outDir, "out-dir", ".", "output directory")
	f.BoolVar(&flags.txt, "txt", false, "write the text tree")
	f.BoolVar(&flags.csv, "csv", false, "write the CSV inventory")
	f.BoolVar(&flags.md, "md", false, "write the Markdown outline")
	f.BoolVar(&flags.html, "html", false, "write the interactive HTML viewer (default when no format is chosen)")
	f.BoolVar(&flags.hideBodies, "hide-bodies", false, "drop page body container nodes from the tree")
	f.IntVar(&flags.treeFileLimit, "tree-file-limit", 10, "max embedded file names per node in tree renderings")
	f.BoolVar(&flags.noTruncate, "no-tree-truncate", false, "never truncate embedded file lists")

	return cmd
}

func runMap(ctx context.Context, flags mapFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Debug)

	courses, err := collectCourses(flags)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		return fmt.Errorf("no courses given (--course-id or --courses-file)")
	}
	if !flags.txt && !flags.csv && !flags.md && !flags.html {
		flags.html = true
	}

	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	client := blackboard.NewClient(cfg.Host, cfg.Key, cfg.Secret, log)
	defer client.Close()

	opts := export.Options{FileLimit: flags.treeFileLimit, NoTruncate: flags.noTruncate}

	printHeader("Mapping %d course(s) from %s", len(courses), cfg.Host)

	var results []courseResult
	failed := 0
	for _, courseID := range courses {
		res, err := mapCourse(ctx, client, courseID, flags, opts, log)
		if err != nil {
			printErr("%s: %v", courseID, err)
			results = append(results, courseResult{CourseID: courseID, Status: "failed"})
			failed++
			continue
		}
		results = append(results, res)
	}

	printSummary(results)
	if failed > 0 {
		return fmt.Errorf("%d of %d course(s) failed", failed, len(courses))
	}
	return nil
}

func mapCourse(ctx context.Context, client *blackboard.Client, courseID string, flags mapFlags, opts export.Options, log *slog.Logger) (courseResult, error) {
	courseKey, err := client.ResolveCourseKey(ctx, courseID)
	if err != nil {
		return courseResult{}, err
	}

	label := courseID
	if code, name, err := client.CourseMeta(ctx, courseKey); err != nil {
		log.Warn("course metadata unavailable", "course", courseID, "error", err)
	} else if l := strings.TrimSpace(strings.TrimSpace(code) + " " + strings.TrimSpace(name)); l != "" {
		label = l
	}

	snap, err := client.Snapshot(ctx, courseKey)
	if err != nil {
		return courseResult{}, err
	}
	builder := coursetree.NewBuilder(snap, log)
	builder.IncludeBodyNodes = !flags.hideBodies
	tree := builder.Build(ctx, courseKey, label)
	stats := tree.Stats()

	if stats.ErrorBranches > 0 && stats.Nodes == stats.ErrorBranches {
		return courseResult{}, fmt.Errorf("no content reachable")
	}

	status := "ok"
	if stats.ErrorBranches > 0 {
		status = "partial"
		printWarn("%s: %d branch(es) unavailable", courseID, stats.ErrorBranches)
	}

	ts := time.Now().Format("20060102_150405")
	base := filepath.Join(flags.outDir, safeSlug(label)+"_tree_"+ts)
	csvPath := filepath.Join(flags.outDir, safeSlug(label)+"_map_"+ts+".csv")

	if flags.txt {
		if err := writeFile(base+".txt", export.RenderText(tree, opts)); err != nil {
			return courseResult{}, err
		}
	}
	if flags.csv {
		f, err := os.Create(csvPath)
		if err != nil {
			return courseResult{}, fmt.Errorf("create csv: %w", err)
		}
		err = export.WriteCSV(f, export.FlattenRows(tree))
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return courseResult{}, err
		}
		printOK("%s", pathStyle.Render(csvPath))
	}
	if flags.md {
		if err := writeFile(base+".md", export.RenderMarkdown(tree, opts)); err != nil {
			return courseResult{}, err
		}
	}
	if flags.html {
		if err := writeFile(base+".html", export.RenderHTML(tree)); err != nil {
			return courseResult{}, err
		}
	}

	return courseResult{
		CourseID: courseID,
		Label:    label,
		Nodes:    stats.Nodes,
		Files:    stats.EmbeddedFiles,
		Errors:   stats.ErrorBranches,
		Status:   status,
	}, nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printOK("%s", pathStyle.Render(path))
	return nil
}

// collectCourses merges --course-id values with the courses file, in
// order, dropping duplicates.
func collectCourses(flags mapFlags) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || strings.HasPrefix(id, "#") || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, id := range flags.courseIDs {
		add(id)
	}
	if flags.coursesFile != "" {
		f, err := os.Open(flags.coursesFile)
		if err != nil {
			return nil, fmt.Errorf("open courses file: %w", err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			add(sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read courses file: %w", err)
		}
	}
	return out, nil
}

// safeSlug keeps letters, digits, dot, dash and underscore; everything
// else collapses to a single underscore.
func safeSlug(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "course"
	}
	return out
}
