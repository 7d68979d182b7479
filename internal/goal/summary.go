package goal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// WeeklyGoalNode is one weekly goal extracted from a week's tree, annotated
// with the week it was found in.
type WeeklyGoalNode struct {
	*TreeNode

	WeekNumber int       `json:"week_number"`
	WeekStart  time.Time `json:"week_start"`
	WeekEnd    time.Time `json:"week_end"`
}

// QuarterlyGoalSummary aggregates one quarterly goal across every week of
// its quarter. WeeklyGoalsByWeek holds an entry only for weeks where the
// goal actually had weekly children; empty weeks are omitted, never stored
// as empty slices.
type QuarterlyGoalSummary struct {
	Goal              Goal                     `json:"goal"`
	WeeklyGoalsByWeek map[int][]WeeklyGoalNode `json:"weekly_goals_by_week"`
	Year              int                      `json:"year"`
	Quarter           int                      `json:"quarter"`
	WeekRange         WeekRange                `json:"week_range"`
	Logs              map[uuid.UUID][]Log      `json:"-"`
}

// SortedWeeks returns the populated week numbers in ascending order.
func (s *QuarterlyGoalSummary) SortedWeeks() []int {
	return sortedKeys(s.WeeklyGoalsByWeek)
}

// MultiGoalSummary is a collection of quarterly summaries plus the
// quarter's adhoc goals grouped by week.
type MultiGoalSummary struct {
	Summaries   []*QuarterlyGoalSummary `json:"summaries"`
	AdhocByWeek map[int][]Goal          `json:"adhoc_by_week"`
	Year        int                     `json:"year"`
	Quarter     int                     `json:"quarter"`
	WeekRange   WeekRange               `json:"week_range"`
}

// SortedAdhocWeeks returns the populated adhoc week numbers ascending.
func (m *MultiGoalSummary) SortedAdhocWeeks() []int {
	return sortedKeys(m.AdhocByWeek)
}

type Ratio struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (r Ratio) String() string { return fmt.Sprintf("%d/%d", r.Completed, r.Total) }

// CompletionStats are derived, never stored.
type CompletionStats struct {
	Weekly  Ratio `json:"weekly"`
	Daily   Ratio `json:"daily"`
	Adhoc   Ratio `json:"adhoc"`
	Percent int   `json:"percent"`
}

// Stats computes completion ratios over every populated week. The percent
// is 0, not NaN, when there is nothing to count.
func (s *QuarterlyGoalSummary) Stats() CompletionStats {
	var st CompletionStats
	for _, nodes := range s.WeeklyGoalsByWeek {
		for _, n := range nodes {
			st.Weekly.Total++
			if n.IsComplete {
				st.Weekly.Completed++
			}
			for _, d := range n.Children {
				st.Daily.Total++
				if d.IsComplete {
					st.Daily.Completed++
				}
			}
		}
	}
	st.Percent = percent(st.Weekly.Completed+st.Daily.Completed, st.Weekly.Total+st.Daily.Total)
	return st
}

// Stats aggregates across every included quarterly goal plus adhoc goals.
func (m *MultiGoalSummary) Stats() CompletionStats {
	var st CompletionStats
	for _, s := range m.Summaries {
		one := s.Stats()
		st.Weekly.Completed += one.Weekly.Completed
		st.Weekly.Total += one.Weekly.Total
		st.Daily.Completed += one.Daily.Completed
		st.Daily.Total += one.Daily.Total
	}
	for _, goals := range m.AdhocByWeek {
		for _, g := range goals {
			st.Adhoc.Total++
			if g.IsComplete {
				st.Adhoc.Completed++
			}
		}
	}
	st.Percent = percent(
		st.Weekly.Completed+st.Daily.Completed+st.Adhoc.Completed,
		st.Weekly.Total+st.Daily.Total+st.Adhoc.Total,
	)
	return st
}

// Summarizer walks every week of a quarter and merges the per-week trees
// into summaries.
type Summarizer struct {
	Store *Store
}

// QuarterlySummary aggregates one quarterly goal across (year, quarter).
// A goal that never appears in any week's tree (no weekly children yet) is
// not an error: the summary falls back to the goal record itself with an
// empty WeeklyGoalsByWeek.
func (s *Summarizer) QuarterlySummary(ctx context.Context, userID uint64, goalID uuid.UUID, year, quarter int) (*QuarterlyGoalSummary, error) {
	g, err := s.resolveQuarterly(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	wr, err := QuarterWeekRange(year, quarter)
	if err != nil {
		return nil, err
	}

	trees, _, err := s.fetchQuarter(ctx, userID, year, quarter, wr, nil, false)
	if err != nil {
		return nil, err
	}

	sum := buildSummary(g, trees, wr, year, quarter)
	if err := s.attachLogs(ctx, userID, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// MultiGoalSummary aggregates several quarterly goals and, when
// includeAdhoc is set, the quarter's adhoc goals filtered by domain.
func (s *Summarizer) MultiGoalSummary(ctx context.Context, userID uint64, goalIDs []uuid.UUID, year, quarter int, domainFilter []string, includeAdhoc bool) (*MultiGoalSummary, error) {
	// Resolve every requested ID up front so a bad one fails the whole
	// report instead of being silently skipped.
	resolved := make([]*Goal, 0, len(goalIDs))
	for _, id := range goalIDs {
		g, err := s.resolveQuarterly(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, g)
	}
	wr, err := QuarterWeekRange(year, quarter)
	if err != nil {
		return nil, err
	}

	trees, adhoc, err := s.fetchQuarter(ctx, userID, year, quarter, wr, domainFilter, includeAdhoc)
	if err != nil {
		return nil, err
	}

	out := &MultiGoalSummary{
		AdhocByWeek: map[int][]Goal{},
		Year:        year,
		Quarter:     quarter,
		WeekRange:   wr,
	}
	for _, g := range resolved {
		sum := buildSummary(g, trees, wr, year, quarter)
		if err := s.attachLogs(ctx, userID, sum); err != nil {
			return nil, err
		}
		out.Summaries = append(out.Summaries, sum)
	}
	for i, goals := range adhoc {
		if len(goals) == 0 {
			continue
		}
		out.AdhocByWeek[wr.StartWeek+i] = goals
	}
	return out, nil
}

func (s *Summarizer) resolveQuarterly(ctx context.Context, userID uint64, goalID uuid.UUID) (*Goal, error) {
	g, err := s.Store.GoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: goal %s", ErrNotFound, goalID)
	}
	if g.IsAdhoc || g.Depth != DepthQuarterly {
		return nil, fmt.Errorf("%w: goal %s has depth %d", ErrNotQuarterly, goalID, g.Depth)
	}
	return g, nil
}

// fetchQuarter builds every week's tree (and optionally its adhoc goals)
// concurrently. Each goroutine writes only its own slot, and the callers
// merge by iterating week numbers ascending, so completion order never
// affects the result. The first failure cancels the group and propagates.
func (s *Summarizer) fetchQuarter(ctx context.Context, userID uint64, year, quarter int, wr WeekRange, domainFilter []string, includeAdhoc bool) ([][]*TreeNode, [][]Goal, error) {
	weeks := wr.Weeks()
	trees := make([][]*TreeNode, weeks)
	adhoc := make([][]Goal, weeks)

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < weeks; i++ {
		week := wr.StartWeek + i
		slot := i
		eg.Go(func() error {
			roots, _, err := s.Store.TreeForWeek(ctx, userID, year, quarter, week)
			if err != nil {
				return err
			}
			trees[slot] = roots
			return nil
		})
		if includeAdhoc {
			eg.Go(func() error {
				goals, err := s.Store.AdhocGoalsForWeek(ctx, userID, year, week, domainFilter)
				if err != nil {
					return err
				}
				adhoc[slot] = goals
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return trees, adhoc, nil
}

// buildSummary scans every week's roots for the target goal. The first
// match captures the canonical goal snapshot; stable fields are identical
// across weeks by construction, so later matches never overwrite it.
func buildSummary(g *Goal, trees [][]*TreeNode, wr WeekRange, year, quarter int) *QuarterlyGoalSummary {
	sum := &QuarterlyGoalSummary{
		WeeklyGoalsByWeek: map[int][]WeeklyGoalNode{},
		Year:              year,
		Quarter:           quarter,
		WeekRange:         wr,
	}

	captured := false
	for i, roots := range trees {
		week := wr.StartWeek + i
		for _, root := range roots {
			if root.Goal.ID != g.ID {
				continue
			}
			if !captured {
				sum.Goal = root.Goal
				captured = true
			}
			if len(root.Children) > 0 {
				start, end := WeekBounds(year, week)
				nodes := make([]WeeklyGoalNode, 0, len(root.Children))
				for _, c := range root.Children {
					nodes = append(nodes, WeeklyGoalNode{
						TreeNode:   c,
						WeekNumber: week,
						WeekStart:  start,
						WeekEnd:    end,
					})
				}
				sum.WeeklyGoalsByWeek[week] = nodes
			}
			break
		}
	}
	if !captured {
		sum.Goal = *g
	}
	return sum
}

func (s *Summarizer) attachLogs(ctx context.Context, userID uint64, sum *QuarterlyGoalSummary) error {
	ids := []uuid.UUID{sum.Goal.ID}
	for _, nodes := range sum.WeeklyGoalsByWeek {
		for _, n := range nodes {
			ids = append(ids, n.Goal.ID)
			for _, d := range n.Children {
				ids = append(ids, d.Goal.ID)
			}
		}
	}
	logs, err := s.Store.LogsByGoalIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	sum.Logs = logs
	return nil
}

func percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
