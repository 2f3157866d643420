package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/parsonslab/orderblocks/internal/api/http"
	auth "github.com/parsonslab/orderblocks/internal/auth/middleware"
	"github.com/parsonslab/orderblocks/internal/config"
	"github.com/parsonslab/orderblocks/internal/db"
	"github.com/parsonslab/orderblocks/internal/question"
	"github.com/parsonslab/orderblocks/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := question.NewSQLStore(dbh)
	svc := question.NewService(store)

	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Teacher: author questions, mint instances, inspect answers
		pr.With(rbac.Require("question:create")).
			Post("/questions", api.CreateQuestionHandler(svc))
		pr.With(rbac.Require("question:list")).
			Get("/questions", api.ListQuestionsHandler(store))
		pr.With(rbac.Require("question:view")).
			Get("/questions/{questionID}", api.GetQuestionHandler(store))
		pr.With(rbac.Require("instance:create")).
			Post("/questions/{questionID}/instances", api.CreateInstanceHandler(svc))
		pr.With(rbac.Require("instance:view-answer")).
			Get("/instances/{instanceID}/answer", api.GetInstanceAnswerHandler(store))

		// Student flow
		pr.With(rbac.Require("instance:view")).
			Get("/instances/{instanceID}", api.GetInstanceHandler(store))
		pr.With(rbac.Require("submission:create")).
			Post("/instances/{instanceID}/submissions", api.SubmitHandler(svc))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(store))
		pr.With(rbac.Require("submission:view-all")).
			Get("/instances/{instanceID}/submissions", api.ListSubmissionsHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("orderblocksd listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
