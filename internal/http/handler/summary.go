package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"questlog/internal/auth"
	"questlog/internal/goal"
	"questlog/internal/report"

	"github.com/google/uuid"
)

// timeNow is swapped in tests to pin the generation timestamp.
var timeNow = time.Now

type SummaryHandler struct {
	Store      *goal.Store
	Summarizer *goal.Summarizer
}

// WeekTree returns the reconstructed goal forest for one week.
func (h *SummaryHandler) WeekTree(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	year, ok1 := queryInt(r, "year")
	quarter, ok2 := queryInt(r, "quarter")
	week, ok3 := queryInt(r, "week")
	if !ok1 || !ok2 || !ok3 {
		http.Error(w, "year, quarter and week required", http.StatusBadRequest)
		return
	}

	roots, _, err := h.Store.TreeForWeek(r.Context(), uid, year, quarter, week)
	if err != nil {
		if errors.Is(err, goal.ErrOrphanGoal) {
			http.Error(w, "corrupted goal hierarchy", http.StatusInternalServerError)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if roots == nil {
		roots = []*goal.TreeNode{}
	}
	writeJSON(w, http.StatusOK, roots)
}

func summaryParams(r *http.Request) (ids []uuid.UUID, year, quarter int, ok bool) {
	year, ok1 := queryInt(r, "year")
	quarter, ok2 := queryInt(r, "quarter")
	if !ok1 || !ok2 {
		return nil, 0, 0, false
	}
	for _, raw := range strings.Split(r.URL.Query().Get("goal_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, 0, 0, false
		}
		ids = append(ids, id)
	}
	return ids, year, quarter, len(ids) > 0
}

// Quarter returns the structured summary object. One goal ID yields the
// single-goal shape; several yield the multi-goal shape with adhoc goals
// folded in when requested.
func (h *SummaryHandler) Quarter(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	ids, year, quarter, ok := summaryParams(r)
	if !ok {
		http.Error(w, "goal_ids, year and quarter required", http.StatusBadRequest)
		return
	}

	if len(ids) == 1 && r.URL.Query().Get("adhoc") != "true" {
		sum, err := h.Summarizer.QuarterlySummary(r.Context(), uid, ids[0], year, quarter)
		if err != nil {
			writeGoalErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
		return
	}

	sum, err := h.Summarizer.MultiGoalSummary(r.Context(), uid, ids, year, quarter,
		domainFilter(r), r.URL.Query().Get("adhoc") == "true")
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Markdown renders the quarter report and returns it as text.
func (h *SummaryHandler) Markdown(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	ids, year, quarter, ok := summaryParams(r)
	if !ok {
		http.Error(w, "goal_ids, year and quarter required", http.StatusBadRequest)
		return
	}
	opts := report.Options{
		OmitIncomplete: r.URL.Query().Get("omit_incomplete") == "true",
	}

	var md string
	if len(ids) == 1 && r.URL.Query().Get("adhoc") != "true" {
		sum, err := h.Summarizer.QuarterlySummary(r.Context(), uid, ids[0], year, quarter)
		if err != nil {
			writeGoalErr(w, err)
			return
		}
		md = report.RenderQuarterly(sum, opts, timeNow())
	} else {
		sum, err := h.Summarizer.MultiGoalSummary(r.Context(), uid, ids, year, quarter,
			domainFilter(r), r.URL.Query().Get("adhoc") == "true")
		if err != nil {
			writeGoalErr(w, err)
			return
		}
		md = report.RenderMulti(sum, opts, timeNow())
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(md))
}

func domainFilter(r *http.Request) []string {
	var out []string
	for _, d := range strings.Split(r.URL.Query().Get("domains"), ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
