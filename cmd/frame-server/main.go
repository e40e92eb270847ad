// Skyframe frame-server
// Serves the normalized flight feed, provider health, and the photo/settings
// admin API. Delivery is poll-based only; clients re-fetch, nothing is pushed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/skyframe/internal/auth"
	"github.com/unklstewy/skyframe/internal/db"
	"github.com/unklstewy/skyframe/internal/poller"
	"github.com/unklstewy/skyframe/pkg/config"
	"github.com/unklstewy/skyframe/pkg/feed"
)

var configPath = flag.String("config", "configs/config.json", "Path to configuration file")

// Server holds the HTTP server and its dependencies.
type Server struct {
	router    *chi.Mux
	provider  feed.Provider
	authSvc   *auth.Service
	photoRepo *db.PhotoRepository
	database  *db.DB
	cfg       *config.Config

	mu       sync.RWMutex
	snapshot feed.Snapshot
	lastErr  error
}

func main() {
	flag.Parse()

	log.Println("Starting skyframe frame-server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	provider, err := feed.New(cfg.Feed)
	if err != nil {
		log.Fatalf("Failed to build feed provider: %v", err)
	}
	defer provider.Close()

	database, err := db.ConnectWithRetry(cfg.Database, 5, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(context.Background()); err != nil {
		log.Printf("Warning: schema init failed: %v", err)
	}

	authSvc := auth.NewService(auth.Config{
		SecretHash:    cfg.Admin.SecretHash,
		JWTSecret:     cfg.Admin.JWTSecret,
		TokenDuration: time.Duration(cfg.Admin.TokenDurationMinutes) * time.Minute,
	})

	srv := &Server{
		router:    chi.NewRouter(),
		provider:  provider,
		authSvc:   authSvc,
		photoRepo: db.NewPhotoRepository(database),
		database:  database,
		cfg:       cfg,
	}
	srv.setupRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Keep the served snapshot fresh with the same adaptive poller the
	// display uses.
	p := poller.New(provider, cfg.Feed)
	go p.Run(ctx)
	go srv.consume(ctx, p.Results())

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.router,
	}

	go func() {
		log.Printf("Listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// consume applies poll results in completion order.
func (s *Server) consume(ctx context.Context, results <-chan poller.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-results:
			s.mu.Lock()
			if r.Err != nil {
				s.lastErr = r.Err
			} else {
				s.lastErr = nil
				s.snapshot = r.Snapshot
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Get("/flights", s.handleFlights)
		r.Get("/flights/{id}", s.handleFlightDetails)
		r.Get("/health", s.handleHealth)
		r.Get("/photos", s.handleListPhotos)
		r.Get("/settings", s.handleGetSettings)

		// Admin mutations require a session token.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Put("/photos/{id}", s.handleUpsertPhoto)
			r.Delete("/photos/{id}", s.handleDeletePhoto)
			r.Put("/settings", s.handleUpdateSettings)
		})
	})
}

// requireAdmin validates the bearer session token issued by the login
// endpoint.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := s.authSvc.ValidateToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.authSvc.Authenticate(req.Secret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleFlights(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snapshot := s.snapshot
	lastErr := s.lastErr
	s.mu.RUnlock()

	resp := struct {
		feed.Snapshot
		Error string `json:"error,omitempty"`
	}{Snapshot: snapshot}
	if resp.Flights == nil {
		// Before the first successful poll the snapshot is zero-valued;
		// clients always get a flights array.
		resp.Flights = []feed.Flight{}
	}
	if lastErr != nil {
		resp.Error = lastErr.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlightDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	blob, err := s.provider.FlightDetails(r.Context(), id)
	if errors.Is(err, feed.ErrUnsupported) {
		writeError(w, http.StatusNotImplemented, "provider does not support flight details")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(blob)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"database": s.database.Healthy(r.Context()),
	}

	health, err := s.provider.Health()
	switch {
	case errors.Is(err, feed.ErrUnsupported):
		resp["provider"] = map[string]any{
			"name":       s.provider.Name(),
			"configured": true,
		}
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	default:
		resp["provider"] = health
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.photoRepo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type photoJSON struct {
		ID       string `json:"id"`
		Src      string `json:"src"`
		Caption  string `json:"caption,omitempty"`
		Location string `json:"location,omitempty"`
	}

	out := make([]photoJSON, 0, len(photos))
	for _, p := range photos {
		out = append(out, photoJSON{ID: p.ID, Src: p.Src, Caption: p.Caption, Location: p.Location})
	}

	writeJSON(w, http.StatusOK, map[string]any{"photos": out})
}

func (s *Server) handleUpsertPhoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Src       string `json:"src"`
		Caption   string `json:"caption"`
		Location  string `json:"location"`
		SortOrder int    `json:"sort_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Src == "" {
		writeError(w, http.StatusBadRequest, "src is required")
		return
	}

	rec := db.PhotoRecord{
		ID:        chi.URLParam(r, "id"),
		Src:       req.Src,
		Caption:   req.Caption,
		Location:  req.Location,
		SortOrder: req.SortOrder,
	}
	if err := s.photoRepo.Upsert(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.photoRepo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.photoRepo.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"interval": settings.IntervalMs,
		"shuffle":  settings.Shuffle,
		"fit_mode": settings.FitMode,
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interval int    `json:"interval"`
		Shuffle  bool   `json:"shuffle"`
		FitMode  string `json:"fit_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FitMode != "cover" && req.FitMode != "contain" {
		writeError(w, http.StatusBadRequest, "fit_mode must be cover or contain")
		return
	}
	if req.Interval < 1000 {
		writeError(w, http.StatusBadRequest, "interval must be at least 1000 ms")
		return
	}

	err := s.photoRepo.UpdateSettings(r.Context(), db.DisplaySettings{
		IntervalMs: req.Interval,
		Shuffle:    req.Shuffle,
		FitMode:    req.FitMode,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
