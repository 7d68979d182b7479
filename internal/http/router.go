package http

import (
	"net/http"

	"questlog/internal/auth"
	"questlog/internal/config"
	"questlog/internal/goal"
	"questlog/internal/http/handler"
	mw "questlog/internal/http/middleware"
	"questlog/internal/report"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	store := &goal.Store{DB: db}
	summarizer := &goal.Summarizer{Store: store}
	goalH := &handler.GoalHandler{Svc: &goal.Service{DB: db}}
	sumH := &handler.SummaryHandler{Store: store, Summarizer: summarizer}
	repH := &handler.ReportHandler{DB: db, Gen: &report.Generator{DB: db, Summarizer: summarizer}}

	r.Route("/goals", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", goalH.Create)
		r.Get("/week", sumH.WeekTree)

		r.Patch("/{id}", goalH.Update)
		r.Delete("/{id}", goalH.Delete)
		r.Post("/{id}/complete", goalH.ToggleComplete)
		r.Put("/{id}/state", goalH.SetWeekState)

		r.Post("/{id}/logs", goalH.AddLog)
		r.Get("/{id}/logs", goalH.ListLogs)
	})

	r.Route("/domains", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Get("/", goalH.ListDomains)
		r.Post("/", goalH.CreateDomain)
	})

	r.Route("/summary", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Get("/", sumH.Quarter)
		r.Get("/markdown", sumH.Markdown)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Post("/", repH.Create)
		r.Get("/", repH.List)
		r.Get("/{id}", repH.Get)
	})

	return r
}
