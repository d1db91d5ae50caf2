package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/inboxpilot/gateway/internal/config"
	"github.com/inboxpilot/gateway/internal/connections"
	"github.com/inboxpilot/gateway/internal/handlers"
	"github.com/inboxpilot/gateway/internal/middleware"
	"github.com/inboxpilot/gateway/internal/session"

	redisinfra "github.com/inboxpilot/gateway/internal/infrastructure/redis"
)

func main() {
	// Best-effort .env load for local development
	_ = godotenv.Load()

	config.ValidateGoogleOAuthConfig()

	redisService := redisinfra.NewService()
	persister := session.NewPersister(redisService)
	sessions := session.NewManager(persister)
	events := connections.NewManager(connections.DefaultTimeouts)

	h := handlers.New(sessions, events)
	r := setupRouter(h)

	addr := ":" + config.GetEnvOrDefault("PORT", "8080")
	log.Println("Gateway starting on " + addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("ListenAndServe error:", err)
	}
}

// setupRouter wires the route guard around the mux, not inside it: mux
// middleware only runs on matched routes, and the guard must also see
// navigations the gateway has no handler for (the SPA pages).
func setupRouter(h *handlers.Handlers) http.Handler {
	r := mux.NewRouter()

	// Auth flow
	r.Handle("/auth/google/login",
		middleware.RateLimit("auth_login")(http.HandlerFunc(h.HandleLoginStart))).Methods("GET")
	r.Handle("/auth/google/callback",
		middleware.RateLimit("auth_callback")(http.HandlerFunc(h.HandleOAuthCallback))).Methods("GET")

	// Session-facing API consumed by the dashboard shell
	r.HandleFunc("/api/session", h.HandleSessionInfo).Methods("GET")
	r.HandleFunc("/api/logout", h.HandleLogout).Methods("POST")
	r.HandleFunc("/api/profile", h.HandleProfile).Methods("GET")
	r.HandleFunc("/api/profile", h.HandleProfileUpdate).Methods("PUT")

	// Snapshots
	r.HandleFunc("/api/snapshots", h.HandleSnapshotsList).Methods("GET")
	r.Handle("/api/snapshots",
		middleware.RateLimit("snapshot_create")(http.HandlerFunc(h.HandleSnapshotCreate))).Methods("POST")
	r.HandleFunc("/api/snapshots/{id}", h.HandleSnapshotGet).Methods("GET")

	// Subscription
	r.HandleFunc("/api/subscription/status", h.HandleSubscriptionStatus).Methods("GET")
	r.HandleFunc("/api/subscription/plans", h.HandleSubscriptionPlans).Methods("GET")
	r.HandleFunc("/api/subscription/limits", h.HandleSubscriptionLimits).Methods("GET")
	r.HandleFunc("/api/subscription/start-trial", h.HandleStartTrial).Methods("POST")
	r.HandleFunc("/api/subscription/upgrade/{tier}", h.HandleUpgrade).Methods("POST")
	r.HandleFunc("/api/plan/select", h.HandlePlanSelect).Methods("POST")

	// Observability
	r.HandleFunc("/healthz", h.HandleHealthz).Methods("GET")
	r.HandleFunc("/api/metrics", h.HandleMetrics).Methods("GET")

	// Dashboard event stream
	r.HandleFunc("/ws/events", h.HandleEvents)

	return middleware.RouteGuard(r)
}
