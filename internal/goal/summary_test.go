package goal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// shipV1Fixture creates the reference scenario: quarterly goal "Ship v1"
// (incomplete) with one weekly goal in week 3 carrying two daily goals, one
// of them complete.
func shipV1Fixture(t *testing.T, svc *Service) (q, w, d1, d2 *Goal) {
	t.Helper()
	ctx := context.Background()

	q = mustCreate(t, svc, CreateInput{Title: "Ship v1", Year: 2024, Quarter: 1, Depth: DepthQuarterly})
	w = mustCreate(t, svc, CreateInput{Title: "Build API", Year: 2024, Quarter: 1, Depth: DepthWeekly, ParentID: &q.ID, WeekNumber: 3})
	d1 = mustCreate(t, svc, CreateInput{Title: "Write handlers", Year: 2024, Quarter: 1, Depth: DepthDaily, ParentID: &w.ID, WeekNumber: 3})
	d2 = mustCreate(t, svc, CreateInput{Title: "Write tests", Year: 2024, Quarter: 1, Depth: DepthDaily, ParentID: &w.ID, WeekNumber: 3})

	var err error
	d1, err = svc.ToggleComplete(ctx, testUser, d1.ID, false)
	require.NoError(t, err)
	return q, w, d1, d2
}

func TestQuarterlySummary_ShipV1Scenario(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}

	q, w, _, _ := shipV1Fixture(t, svc)

	sum, err := sumz.QuarterlySummary(context.Background(), testUser, q.ID, 2024, 1)
	require.NoError(t, err)

	require.Equal(t, []int{3}, sum.SortedWeeks(), "only week 3 has weekly children")
	nodes := sum.WeeklyGoalsByWeek[3]
	require.Len(t, nodes, 1)
	require.Equal(t, w.ID, nodes[0].Goal.ID)
	require.Equal(t, 3, nodes[0].WeekNumber)
	require.Equal(t, "Ship v1", nodes[0].ParentTitle)
	require.Len(t, nodes[0].Children, 2)

	start, end := WeekBounds(2024, 3)
	require.Equal(t, start, nodes[0].WeekStart)
	require.Equal(t, end, nodes[0].WeekEnd)

	stats := sum.Stats()
	require.Equal(t, Ratio{Completed: 0, Total: 1}, stats.Weekly)
	require.Equal(t, Ratio{Completed: 1, Total: 2}, stats.Daily)
	require.Equal(t, 33, stats.Percent, "1/3 rounds to 33%")
}

func TestQuarterlySummary_NoEmptyWeekEntries(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}

	q, _, _, _ := shipV1Fixture(t, svc)

	sum, err := sumz.QuarterlySummary(context.Background(), testUser, q.ID, 2024, 1)
	require.NoError(t, err)
	for week, nodes := range sum.WeeklyGoalsByWeek {
		require.NotEmpty(t, nodes, "week %d stored with zero children", week)
	}
}

func TestQuarterlySummary_NoWeeklyChildrenFallsBack(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}

	q := mustCreate(t, svc, CreateInput{Title: "Lonely goal", Year: 2024, Quarter: 1, Depth: DepthQuarterly})

	sum, err := sumz.QuarterlySummary(context.Background(), testUser, q.ID, 2024, 1)
	require.NoError(t, err, "benign absence is not an error")
	require.Empty(t, sum.WeeklyGoalsByWeek)
	require.Equal(t, "Lonely goal", sum.Goal.Title)

	stats := sum.Stats()
	require.Zero(t, stats.Percent, "0%%, never NaN")
	require.Zero(t, stats.Weekly.Total)
}

func TestQuarterlySummary_TypedPreconditionErrors(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}
	ctx := context.Background()

	q, w, _, _ := shipV1Fixture(t, svc)

	_, err := sumz.QuarterlySummary(ctx, testUser, uuid.New(), 2024, 1)
	require.True(t, errors.Is(err, ErrNotFound), "unknown id")

	_, err = sumz.QuarterlySummary(ctx, testUser, w.ID, 2024, 1)
	require.True(t, errors.Is(err, ErrNotQuarterly), "weekly goal requested")

	// Another user's goal must never leak data.
	_, err = sumz.QuarterlySummary(ctx, testUser+1, q.ID, 2024, 1)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestQuarterlySummary_Deterministic(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}
	ctx := context.Background()

	q, _, _, _ := shipV1Fixture(t, svc)
	mustCreate(t, svc, CreateInput{Title: "Polish", Year: 2024, Quarter: 1, Depth: DepthWeekly, ParentID: &q.ID, WeekNumber: 7})

	first, err := sumz.QuarterlySummary(ctx, testUser, q.ID, 2024, 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := sumz.QuarterlySummary(ctx, testUser, q.ID, 2024, 1)
		require.NoError(t, err)
		require.Equal(t, first.SortedWeeks(), again.SortedWeeks())
		require.Equal(t, first.Stats(), again.Stats())
	}
}

func TestQuarterlySummary_AttachesLogs(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}
	ctx := context.Background()

	q, w, _, _ := shipV1Fixture(t, svc)
	_, err := svc.AddLog(ctx, testUser, w.ID, "shipped the first endpoint")
	require.NoError(t, err)

	sum, err := sumz.QuarterlySummary(ctx, testUser, q.ID, 2024, 1)
	require.NoError(t, err)
	require.Len(t, sum.Logs[w.ID], 1)
}

func TestMultiGoalSummary_WithAdhoc(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}
	ctx := context.Background()

	q1, _, _, _ := shipV1Fixture(t, svc)
	q2 := mustCreate(t, svc, CreateInput{Title: "Run more", Year: 2024, Quarter: 1, Depth: DepthQuarterly})

	dom, err := svc.CreateDomain(ctx, testUser, "health")
	require.NoError(t, err)
	tagged, err := svc.CreateAdhoc(ctx, testUser, CreateAdhocInput{Title: "Dentist", Year: 2024, WeekNumber: 2, DomainID: &dom.ID})
	require.NoError(t, err)
	untagged, err := svc.CreateAdhoc(ctx, testUser, CreateAdhocInput{Title: "Car service", Year: 2024, WeekNumber: 4})
	require.NoError(t, err)
	_, err = svc.ToggleComplete(ctx, testUser, untagged.ID, false)
	require.NoError(t, err)

	sum, err := sumz.MultiGoalSummary(ctx, testUser, []uuid.UUID{q1.ID, q2.ID}, 2024, 1, nil, true)
	require.NoError(t, err)
	require.Len(t, sum.Summaries, 2)
	require.Equal(t, []int{2, 4}, sum.SortedAdhocWeeks())

	stats := sum.Stats()
	require.Equal(t, Ratio{Completed: 1, Total: 2}, stats.Adhoc)

	// Domain filter narrows to the tagged bucket.
	filtered, err := sumz.MultiGoalSummary(ctx, testUser, []uuid.UUID{q1.ID}, 2024, 1,
		[]string{dom.ID.String()}, true)
	require.NoError(t, err)
	require.Equal(t, []int{2}, filtered.SortedAdhocWeeks())
	require.Equal(t, tagged.ID, filtered.AdhocByWeek[2][0].ID)

	// The sentinel selects only untagged goals.
	uncat, err := sumz.MultiGoalSummary(ctx, testUser, []uuid.UUID{q1.ID}, 2024, 1,
		[]string{DomainUncategorized}, true)
	require.NoError(t, err)
	require.Equal(t, []int{4}, uncat.SortedAdhocWeeks())
}

func TestMultiGoalSummary_BadIDFailsWholeReport(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db}
	sumz := &Summarizer{Store: &Store{DB: db}}

	q, _, _, _ := shipV1Fixture(t, svc)

	_, err := sumz.MultiGoalSummary(context.Background(), testUser,
		[]uuid.UUID{q.ID, uuid.New()}, 2024, 1, nil, false)
	require.True(t, errors.Is(err, ErrNotFound), "a bad id is never silently skipped")
}
