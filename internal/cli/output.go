package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func printHeader(format string, args ...any) {
	fmt.Println(headerStyle.Render(fmt.Sprintf(format, args...)))
}

func printOK(format string, args ...any) {
	fmt.Println(okStyle.Render("✓ ") + fmt.Sprintf(format, args...))
}

func printWarn(format string, args ...any) {
	fmt.Println(warnStyle.Render("! ") + fmt.Sprintf(format, args...))
}

func printErr(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errStyle.Render("✗ ")+fmt.Sprintf(format, args...))
}

// courseResult is one line of the batch summary.
type courseResult struct {
	CourseID string
	Label    string
	Nodes    int
	Files    int
	Errors   int
	Status   string
}

func printSummary(results []courseResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Course", "Label", "Nodes", "Files", "Error branches", "Status"})
	for _, r := range results {
		tw.AppendRow(table.Row{r.CourseID, r.Label, r.Nodes, r.Files, r.Errors, r.Status})
	}
	tw.Render()
}
