package handler

import (
	"encoding/json"
	"net/http"

	"questlog/internal/auth"
	"questlog/internal/jobs"
	"questlog/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportHandler struct {
	DB  *gorm.DB
	Gen *report.Generator
}

type createReportReq struct {
	Year           int      `json:"year"`
	Quarter        int      `json:"quarter"`
	GoalIDs        []string `json:"goal_ids"`
	OmitIncomplete bool     `json:"omit_incomplete"`
	Domains        []string `json:"domains"`
	IncludeAdhoc   bool     `json:"include_adhoc"`
}

// Create enqueues async report generation; the worker renders and stores
// the result.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createReportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Year == 0 || req.Quarter < 1 || req.Quarter > 4 || len(req.GoalIDs) == 0 {
		http.Error(w, "year, quarter and goal_ids required", http.StatusBadRequest)
		return
	}
	for _, raw := range req.GoalIDs {
		if _, err := uuid.Parse(raw); err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
	}

	payload, _ := json.Marshal(report.GeneratePayload{
		Year:           req.Year,
		Quarter:        req.Quarter,
		GoalIDs:        req.GoalIDs,
		OmitIncomplete: req.OmitIncomplete,
		Domains:        req.Domains,
		IncludeAdhoc:   req.IncludeAdhoc,
	})
	j := jobs.Job{
		UserID:  uid,
		Type:    jobs.TypeReportGenerate,
		Payload: payload,
		RunAt:   timeNow(),
		Status:  jobs.StatusPending,
	}
	if err := h.DB.Create(&j).Error; err != nil {
		http.Error(w, "failed enqueue job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": j.ID})
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	rows, err := h.Gen.List(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []report.Report{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, err := h.Gen.Get(r.Context(), uid, id)
	if err != nil {
		writeGoalErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
