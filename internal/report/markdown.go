package report

import (
	"fmt"
	"strings"
	"time"

	"questlog/internal/goal"

	"github.com/google/uuid"
)

// Options controls report filtering.
type Options struct {
	// OmitIncomplete prunes incomplete content top-down: a week stays only
	// if one of its weekly goals is complete or has a complete daily
	// child; an included weekly goal lists only its complete daily goals.
	// The quarterly goal's own title line is always shown.
	OmitIncomplete bool
}

const (
	dateFormat      = "January 2, 2006"
	timestampFormat = "January 2, 2006 3:04 PM"
)

// RenderQuarterly serializes one quarterly-goal summary to Markdown. Output
// is byte-stable for identical inputs aside from the trailing generation
// line, which renders the supplied instant.
func RenderQuarterly(sum *goal.QuarterlyGoalSummary, opts Options, now time.Time) string {
	var b strings.Builder
	writeSummarySection(&b, sum, opts, "#")
	fmt.Fprintf(&b, "_Generated on %s_\n", now.Format(timestampFormat))
	return b.String()
}

// RenderMulti serializes a multi-goal summary: overall statistics, a table
// of contents, one section per quarterly goal, and a trailing adhoc-goals
// section when present.
func RenderMulti(m *goal.MultiGoalSummary, opts Options, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Quarterly Goals Report: Q%d %d\n\n", m.Quarter, m.Year)

	stats := m.Stats()
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Quarterly goals: %d\n", len(m.Summaries))
	fmt.Fprintf(&b, "- Weekly goals: %s completed\n", stats.Weekly)
	fmt.Fprintf(&b, "- Daily goals: %s completed\n", stats.Daily)
	if stats.Adhoc.Total > 0 {
		fmt.Fprintf(&b, "- Adhoc goals: %s completed\n", stats.Adhoc)
	}
	fmt.Fprintf(&b, "- Overall completion: %d%%\n\n", stats.Percent)

	if len(m.Summaries) > 0 {
		b.WriteString("## Contents\n\n")
		for _, sum := range m.Summaries {
			title := fmt.Sprintf("Q%d %d: %s", sum.Quarter, sum.Year, sum.Goal.Title)
			fmt.Fprintf(&b, "- [%s](#%s)\n", title, slugify(title))
		}
		b.WriteString("\n")
	}

	for _, sum := range m.Summaries {
		b.WriteString("---\n\n")
		writeSummarySection(&b, sum, opts, "##")
	}

	if len(m.AdhocByWeek) > 0 {
		b.WriteString("---\n\n## Adhoc Goals\n\n")
		for _, week := range m.SortedAdhocWeeks() {
			fmt.Fprintf(&b, "### Week %d\n\n", week)
			for _, g := range m.AdhocByWeek[week] {
				if opts.OmitIncomplete && !g.IsComplete {
					continue
				}
				fmt.Fprintf(&b, "- %s %s\n", checkbox(g.IsComplete), g.Title)
				writeDetailBullets(&b, g.Details, "  ")
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "_Generated on %s_\n", now.Format(timestampFormat))
	return b.String()
}

// writeSummarySection emits one quarterly goal's full report body. The
// heading marker h is "#" standalone and "##" inside a multi-goal report;
// nested headings derive from it.
func writeSummarySection(b *strings.Builder, sum *goal.QuarterlyGoalSummary, opts Options, h string) {
	fmt.Fprintf(b, "%s %s Q%d %d: %s\n\n",
		h, checkbox(sum.Goal.IsComplete), sum.Quarter, sum.Year, sum.Goal.Title)

	if sum.Goal.Details != nil {
		if lines := ExtractText(*sum.Goal.Details); len(lines) > 0 {
			for _, line := range lines {
				b.WriteString(line)
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
		}
	}

	if sum.Goal.IsComplete && sum.Goal.CompletedAt != nil {
		fmt.Fprintf(b, "Completed: %s\n\n", sum.Goal.CompletedAt.Format(dateFormat))
	}

	writeLogs(b, logsFor(sum, sum.Goal.ID))

	fmt.Fprintf(b, "_Quarter: Q%d %d (Weeks %d-%d)_\n",
		sum.Quarter, sum.Year, sum.WeekRange.StartWeek, sum.WeekRange.EndWeek)
	if opts.OmitIncomplete {
		b.WriteString("_Note: incomplete goals are omitted from this report._\n")
	}
	b.WriteByte('\n')

	stats := sum.Stats()
	fmt.Fprintf(b, "%s# Summary\n\n", h)
	fmt.Fprintf(b, "- Weekly goals: %s completed\n", stats.Weekly)
	fmt.Fprintf(b, "- Daily goals: %s completed\n", stats.Daily)
	fmt.Fprintf(b, "- Overall completion: %d%%\n\n", stats.Percent)

	if len(sum.WeeklyGoalsByWeek) == 0 {
		b.WriteString("No weekly goals found for this quarter.\n\n")
		return
	}

	wroteWeek := false
	for _, week := range sum.SortedWeeks() {
		nodes := filterWeek(sum.WeeklyGoalsByWeek[week], opts)
		if len(nodes) == 0 {
			continue
		}
		wroteWeek = true
		fmt.Fprintf(b, "%s# Week %d (%s - %s)\n\n",
			h, week,
			nodes[0].WeekStart.Format(dateFormat),
			nodes[0].WeekEnd.Format(dateFormat))
		for _, n := range nodes {
			writeWeeklyGoal(b, sum, n, opts, h)
		}
	}
	if !wroteWeek {
		// Reachable only when filtering pruned every week; an unfiltered
		// report always lists each stored week.
		b.WriteString("No completed goals found for this quarter.\n\n")
	}
}

// writeWeeklyGoal emits one weekly goal subsection with its daily bullets.
func writeWeeklyGoal(b *strings.Builder, sum *goal.QuarterlyGoalSummary, n goal.WeeklyGoalNode, opts Options, h string) {
	fmt.Fprintf(b, "%s## %s %s\n\n", h, checkbox(n.IsComplete), n.Title)

	if n.Details != nil {
		if lines := ExtractText(*n.Details); len(lines) > 0 {
			for _, line := range lines {
				fmt.Fprintf(b, "- %s\n", line)
			}
			b.WriteByte('\n')
		}
	}

	writeLogs(b, logsFor(sum, n.Goal.ID))

	wrote := false
	for _, d := range n.Children {
		if opts.OmitIncomplete && !d.IsComplete {
			continue
		}
		fmt.Fprintf(b, "- %s %s\n", checkbox(d.IsComplete), d.Title)
		writeDetailBullets(b, d.Details, "  ")
		wrote = true
	}
	if wrote {
		b.WriteByte('\n')
	}
}

// writeLogs emits a goal's progress notes grouped by calendar date, newest
// date first (logs arrive newest-first from the store).
func writeLogs(b *strings.Builder, logs []goal.Log) {
	if len(logs) == 0 {
		return
	}
	b.WriteString("**Log:**\n")
	var lastDate string
	for _, l := range logs {
		d := l.CreatedAt.Format(dateFormat)
		if d != lastDate {
			fmt.Fprintf(b, "- %s:\n", d)
			lastDate = d
		}
		for _, line := range ExtractText(l.Content) {
			fmt.Fprintf(b, "  - %s\n", line)
		}
	}
	b.WriteByte('\n')
}

// writeDetailBullets flattens a details blob into bullets, one per source
// line, each two spaces deeper than its parent bullet.
func writeDetailBullets(b *strings.Builder, details *string, indent string) {
	if details == nil {
		return
	}
	for _, line := range ExtractText(*details) {
		fmt.Fprintf(b, "%s- %s\n", indent, line)
	}
}

// filterWeek applies the omit-incomplete policy: a weekly goal survives
// when it is complete or has at least one complete daily child.
func filterWeek(nodes []goal.WeeklyGoalNode, opts Options) []goal.WeeklyGoalNode {
	if !opts.OmitIncomplete {
		return nodes
	}
	var out []goal.WeeklyGoalNode
	for _, n := range nodes {
		if n.IsComplete || hasCompleteChild(n) {
			out = append(out, n)
		}
	}
	return out
}

func hasCompleteChild(n goal.WeeklyGoalNode) bool {
	for _, d := range n.Children {
		if d.IsComplete {
			return true
		}
	}
	return false
}

func logsFor(sum *goal.QuarterlyGoalSummary, id uuid.UUID) []goal.Log {
	if sum.Logs == nil {
		return nil
	}
	return sum.Logs[id]
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// slugify mirrors the anchor convention used for contents links: lowercase,
// punctuation removed, whitespace collapsed to single dashes.
func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}
