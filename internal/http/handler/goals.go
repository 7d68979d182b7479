package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"questlog/internal/auth"
	"questlog/internal/goal"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GoalHandler struct {
	Svc *goal.Service
}

func writeGoalErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goal.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, goal.ErrHasChildren):
		http.Error(w, "goal has children", http.StatusConflict)
	case errors.Is(err, goal.ErrNotQuarterly):
		http.Error(w, "not a quarterly goal", http.StatusBadRequest)
	case errors.Is(err, goal.ErrInvalidGoal):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func goalID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func parseTimePtr(s *string) (*time.Time, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

type createGoalReq struct {
	Title      string  `json:"title"`
	Details    *string `json:"details"`
	Year       int     `json:"year"`
	Quarter    int     `json:"quarter"`
	Depth      int     `json:"depth"`
	ParentID   *string `json:"parent_id"`
	WeekNumber int     `json:"week_number"`
	DueDate    *string `json:"due_date"` // RFC3339 optional

	// Adhoc creation: ignores quarter/depth/parent, uses domain instead.
	Adhoc    bool    `json:"adhoc"`
	DomainID *string `json:"domain_id"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createGoalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	due, ok := parseTimePtr(req.DueDate)
	if !ok {
		http.Error(w, "invalid due_date (RFC3339)", http.StatusBadRequest)
		return
	}

	if req.Adhoc {
		var domainID *uuid.UUID
		if req.DomainID != nil && strings.TrimSpace(*req.DomainID) != "" {
			id, err := uuid.Parse(*req.DomainID)
			if err != nil {
				http.Error(w, "invalid domain_id", http.StatusBadRequest)
				return
			}
			domainID = &id
		}
		g, err := h.Svc.CreateAdhoc(r.Context(), uid, goal.CreateAdhocInput{
			Title:      req.Title,
			Details:    req.Details,
			Year:       req.Year,
			WeekNumber: req.WeekNumber,
			DomainID:   domainID,
			DueDate:    due,
		})
		if err != nil {
			writeGoalErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			http.Error(w, "invalid parent_id", http.StatusBadRequest)
			return
		}
		parentID = &id
	}

	g, err := h.Svc.Create(r.Context(), uid, goal.CreateInput{
		Title:      req.Title,
		Details:    req.Details,
		Year:       req.Year,
		Quarter:    req.Quarter,
		Depth:      goal.Depth(req.Depth),
		ParentID:   parentID,
		WeekNumber: req.WeekNumber,
		DueDate:    due,
	})
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type updateGoalReq struct {
	Title        *string `json:"title"`
	Details      *string `json:"details"`
	DueDate      *string `json:"due_date"`
	ClearDueDate bool    `json:"clear_due_date"`
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := goalID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateGoalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	due, okDue := parseTimePtr(req.DueDate)
	if !okDue {
		http.Error(w, "invalid due_date (RFC3339)", http.StatusBadRequest)
		return
	}

	g, err := h.Svc.Update(r.Context(), uid, id, goal.UpdateInput{
		Title:        req.Title,
		Details:      req.Details,
		DueDate:      due,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := goalID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		writeGoalErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleReq struct {
	Cascade bool `json:"cascade"`
}

func (h *GoalHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := goalID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req toggleReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body = no cascade
	}

	g, err := h.Svc.ToggleComplete(r.Context(), uid, id, req.Cascade)
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

type stateReq struct {
	Year         int     `json:"year"`
	Quarter      int     `json:"quarter"`
	WeekNumber   int     `json:"week_number"`
	IsStarred    *bool   `json:"is_starred"`
	IsPinned     *bool   `json:"is_pinned"`
	DayOfWeek    *int    `json:"day_of_week"`
	ScheduledFor *string `json:"scheduled_for"`
}

func (h *GoalHandler) SetWeekState(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := goalID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req stateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	scheduled, okTime := parseTimePtr(req.ScheduledFor)
	if !okTime {
		http.Error(w, "invalid scheduled_for (RFC3339)", http.StatusBadRequest)
		return
	}

	st, err := h.Svc.SetWeekState(r.Context(), uid, goal.StateInput{
		GoalID:       id,
		Year:         req.Year,
		Quarter:      req.Quarter,
		WeekNumber:   req.WeekNumber,
		IsStarred:    req.IsStarred,
		IsPinned:     req.IsPinned,
		DayOfWeek:    req.DayOfWeek,
		ScheduledFor: scheduled,
	})
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type addLogReq struct {
	Content string `json:"content"`
}

func (h *GoalHandler) AddLog(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := goalID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req addLogReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	l, err := h.Svc.AddLog(r.Context(), uid, id, req.Content)
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *GoalHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := goalID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	logs, err := h.Svc.ListLogs(r.Context(), uid, id)
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	if logs == nil {
		logs = []goal.Log{}
	}
	writeJSON(w, http.StatusOK, logs)
}

type domainReq struct {
	Name string `json:"name"`
}

func (h *GoalHandler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req domainReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	d, err := h.Svc.CreateDomain(r.Context(), uid, req.Name)
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *GoalHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	domains, err := h.Svc.ListDomains(r.Context(), uid)
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	if domains == nil {
		domains = []goal.Domain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

// queryInt parses a required positive integer query parameter.
func queryInt(r *http.Request, key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	return n, err == nil && n > 0
}
