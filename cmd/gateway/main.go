package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/studyforge/studyforge/internal/api/http"
	auth "github.com/studyforge/studyforge/internal/auth/middleware"
	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/db"
	"github.com/studyforge/studyforge/internal/genai"
	"github.com/studyforge/studyforge/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
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
	store := quiz.NewSQLStore(dbh)

	// --- Generator + core services ---
	gen, err := genai.NewOpenAIGenerator(genai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}
	builder := quiz.NewBuilder(gen, store)
	engine := quiz.NewEngine(store)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // generator calls can take a while

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", auth.RegisterHandler(dbh, authSvc))
	r.Post("/auth/login", auth.LoginHandler(dbh, authSvc))

	// Protected API: handlers resolve ownership before touching the core.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Post("/quizzes", api.GenerateQuizHandler(builder, store, cfg.HistoryWindow))
		pr.Get("/quizzes", api.ListQuizzesHandler(store))
		pr.Get("/quizzes/{quizID}", api.GetQuizHandler(store))
		pr.Delete("/quizzes/{quizID}", api.DeleteQuizHandler(store))

		pr.Post("/attempts", api.StartAttemptHandler(engine, store))
		pr.Post("/attempts/{attemptID}/answer", api.AnswerHandler(engine, store))
		pr.Post("/attempts/{attemptID}/complete", api.CompleteAttemptHandler(engine, store))
		pr.Get("/attempts/{attemptID}/results", api.ResultsHandler(engine, store))

		pr.Get("/stats/progress", api.ProgressHandler(store))
		pr.Get("/stats/performance", api.PerformanceHandler(store))
		pr.Get("/stats/summary", api.SummaryHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
