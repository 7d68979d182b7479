package report

import (
	"strings"
	"testing"
	"time"

	"questlog/internal/goal"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var renderedAt = time.Date(2024, time.April, 1, 15, 4, 0, 0, time.UTC)

func strptr(s string) *string { return &s }

// shipSummary mirrors the reference scenario: incomplete quarterly goal,
// one weekly goal in week 3, two daily goals with one complete.
func shipSummary() *goal.QuarterlyGoalSummary {
	weekly := &goal.TreeNode{
		Goal: goal.Goal{ID: uuid.New(), Title: "Build API", Depth: goal.DepthWeekly},
		Children: []*goal.TreeNode{
			{Goal: goal.Goal{ID: uuid.New(), Title: "Write handlers", Depth: goal.DepthDaily, IsComplete: true}},
			{Goal: goal.Goal{ID: uuid.New(), Title: "Write tests", Depth: goal.DepthDaily,
				Details: strptr("cover edge cases\nadd fixtures")}},
		},
	}
	start, end := goal.WeekBounds(2024, 3)
	wr, _ := goal.QuarterWeekRange(2024, 1)

	return &goal.QuarterlyGoalSummary{
		Goal:    goal.Goal{ID: uuid.New(), Title: "Ship v1", Year: 2024, Quarter: 1, Depth: goal.DepthQuarterly},
		Year:    2024,
		Quarter: 1,
		WeeklyGoalsByWeek: map[int][]goal.WeeklyGoalNode{
			3: {{TreeNode: weekly, WeekNumber: 3, WeekStart: start, WeekEnd: end}},
		},
		WeekRange: wr,
	}
}

func TestRenderQuarterly_Layout(t *testing.T) {
	md := RenderQuarterly(shipSummary(), Options{}, renderedAt)

	require.Contains(t, md, "# [ ] Q1 2024: Ship v1\n")
	require.Contains(t, md, "_Quarter: Q1 2024 (Weeks 1-13)_\n")
	require.Contains(t, md, "- Weekly goals: 0/1 completed\n")
	require.Contains(t, md, "- Daily goals: 1/2 completed\n")
	require.Contains(t, md, "- Overall completion: 33%\n")
	require.Contains(t, md, "## Week 3 (January 15, 2024 - January 21, 2024)\n")
	require.Contains(t, md, "### [ ] Build API\n")
	require.Contains(t, md, "- [x] Write handlers\n")
	require.Contains(t, md, "- [ ] Write tests\n  - cover edge cases\n  - add fixtures\n")
	require.True(t, strings.HasSuffix(md, "_Generated on April 1, 2024 3:04 PM_\n"))
	require.NotContains(t, md, "_Note:")
}

func TestRenderQuarterly_DetailsAndCompletion(t *testing.T) {
	sum := shipSummary()
	sum.Goal.Details = strptr("<p>ship the <b>whole</b> thing</p>")
	sum.Goal.IsComplete = true
	done := time.Date(2024, time.March, 28, 0, 0, 0, 0, time.UTC)
	sum.Goal.CompletedAt = &done

	md := RenderQuarterly(sum, Options{}, renderedAt)
	require.Contains(t, md, "# [x] Q1 2024: Ship v1\n")
	require.Contains(t, md, "ship the whole thing\n")
	require.Contains(t, md, "Completed: March 28, 2024\n")
}

func TestRenderQuarterly_LogsGroupedByDate(t *testing.T) {
	sum := shipSummary()
	day := time.Date(2024, time.January, 16, 9, 0, 0, 0, time.UTC)
	sum.Logs = map[uuid.UUID][]goal.Log{
		sum.Goal.ID: {
			{Content: "second note", CreatedAt: day.Add(4 * time.Hour)},
			{Content: "first note", CreatedAt: day},
			{Content: "older note", CreatedAt: day.AddDate(0, 0, -1)},
		},
	}

	md := RenderQuarterly(sum, Options{}, renderedAt)
	require.Contains(t, md, "**Log:**\n- January 16, 2024:\n  - second note\n  - first note\n- January 15, 2024:\n  - older note\n")
}

func TestRenderQuarterly_Stable(t *testing.T) {
	sum := shipSummary()
	first := RenderQuarterly(sum, Options{}, renderedAt)
	second := RenderQuarterly(sum, Options{}, renderedAt)
	require.Equal(t, first, second, "same inputs, same instant: byte-identical")

	later := RenderQuarterly(sum, Options{}, renderedAt.Add(time.Hour))
	a, b := strings.Split(first, "\n"), strings.Split(later, "\n")
	require.Equal(t, len(a), len(b))
	for i := range a {
		if strings.HasPrefix(a[i], "_Generated on") {
			continue
		}
		require.Equal(t, a[i], b[i], "only the generation line may differ")
	}
}

func TestRenderQuarterly_OmitIncompletePrunesChildren(t *testing.T) {
	md := RenderQuarterly(shipSummary(), Options{OmitIncomplete: true}, renderedAt)

	// The weekly goal is incomplete but its complete daily child keeps the
	// branch; only that child is listed.
	require.Contains(t, md, "# [ ] Q1 2024: Ship v1\n", "title line survives filtering")
	require.Contains(t, md, "_Note: incomplete goals are omitted from this report._\n")
	require.Contains(t, md, "### [ ] Build API\n")
	require.Contains(t, md, "- [x] Write handlers\n")
	require.NotContains(t, md, "Write tests")
}

func TestRenderQuarterly_OmitIncompleteDropsBarrenWeeks(t *testing.T) {
	sum := shipSummary()
	sum.WeeklyGoalsByWeek[3][0].Children[0].IsComplete = false

	md := RenderQuarterly(sum, Options{OmitIncomplete: true}, renderedAt)
	require.NotContains(t, md, "## Week 3", "week with nothing complete is dropped")
	require.Contains(t, md, "# [ ] Q1 2024: Ship v1\n")
	require.Contains(t, md, "No completed goals found for this quarter.\n",
		"filtered-empty is distinguishable from having no weekly goals at all")
	require.NotContains(t, md, "No weekly goals found")
}

func TestRenderQuarterly_FilteredIsSubset(t *testing.T) {
	full := RenderQuarterly(shipSummary(), Options{}, renderedAt)
	filtered := RenderQuarterly(shipSummary(), Options{OmitIncomplete: true}, renderedAt)

	for _, line := range strings.Split(filtered, "\n") {
		if strings.HasPrefix(line, "_Note:") {
			continue
		}
		require.Contains(t, full, line)
	}
}

func TestRenderQuarterly_EmptyQuarter(t *testing.T) {
	sum := shipSummary()
	sum.WeeklyGoalsByWeek = map[int][]goal.WeeklyGoalNode{}

	md := RenderQuarterly(sum, Options{}, renderedAt)
	require.Contains(t, md, "No weekly goals found for this quarter.\n")
	require.Contains(t, md, "- Overall completion: 0%\n")
}

func TestRenderMulti_Layout(t *testing.T) {
	second := shipSummary()
	second.Goal.Title = "Run more"
	second.WeeklyGoalsByWeek = map[int][]goal.WeeklyGoalNode{}

	m := &goal.MultiGoalSummary{
		Summaries: []*goal.QuarterlyGoalSummary{shipSummary(), second},
		AdhocByWeek: map[int][]goal.Goal{
			4: {
				{ID: uuid.New(), Title: "Car service", IsComplete: true, Details: strptr("book slot\ndrop keys")},
				{ID: uuid.New(), Title: "Dentist"},
			},
		},
		Year:    2024,
		Quarter: 1,
	}
	m.WeekRange, _ = goal.QuarterWeekRange(2024, 1)

	md := RenderMulti(m, Options{}, renderedAt)

	require.Contains(t, md, "# Quarterly Goals Report: Q1 2024\n")
	require.Contains(t, md, "- Quarterly goals: 2\n")
	require.Contains(t, md, "- Adhoc goals: 1/2 completed\n")
	require.Contains(t, md, "- [Q1 2024: Ship v1](#q1-2024-ship-v1)\n")
	require.Contains(t, md, "- [Q1 2024: Run more](#q1-2024-run-more)\n")
	require.Contains(t, md, "## [ ] Q1 2024: Ship v1\n")
	require.Contains(t, md, "### Week 3 (January 15, 2024 - January 21, 2024)\n")
	require.Contains(t, md, "## Adhoc Goals\n")
	require.Contains(t, md, "### Week 4\n")
	require.Contains(t, md, "- [x] Car service\n  - book slot\n  - drop keys\n")
	require.Contains(t, md, "- [ ] Dentist\n")
	require.True(t, strings.HasSuffix(md, "_Generated on April 1, 2024 3:04 PM_\n"))
}
