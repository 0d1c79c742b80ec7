// HTTP API and websocket stream for the fleet simulator.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/analytics"
	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/sim"
)

// Server exposes the simulator over HTTP and websocket.
type Server struct {
	sim       *sim.Simulator
	store     *alert.Store
	analytics *analytics.Engine
	hub       *Hub
	addr      string
	version   string
	startedAt time.Time
}

// NewServer wires the API around a running simulator.
func NewServer(simulator *sim.Simulator, store *alert.Store, addr, version string) *Server {
	return &Server{
		sim:       simulator,
		store:     store,
		analytics: analytics.New(simulator),
		hub:       NewHub(),
		addr:      addr,
		version:   version,
		startedAt: time.Now(),
	}
}

// Hub returns the websocket hub, registered with the simulator as a
// broadcaster.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	mux := http.NewServeMux()
	s.registerAPI(mux)
	mux.HandleFunc("/api/ws", s.handleWebSocket)

	server := &http.Server{Addr: s.addr, Handler: s.withMiddleware(mux)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("api server listening", "addr", s.addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Fleet
	mux.HandleFunc("GET /api/robots", s.listRobots)
	mux.HandleFunc("GET /api/robots/{id}", s.getRobot)

	// Commands
	mux.HandleFunc("POST /api/robots/{id}/tasks", s.assignTask)
	mux.HandleFunc("POST /api/robots/{id}/charge", s.sendToCharging)
	mux.HandleFunc("POST /api/robots/{id}/clear-error", s.clearError)
	mux.HandleFunc("POST /api/robots/{id}/pause", s.pauseRobot)
	mux.HandleFunc("POST /api/robots/{id}/resume", s.resumeRobot)

	// Alerts
	mux.HandleFunc("GET /api/alerts", s.listAlerts)
	mux.HandleFunc("POST /api/alerts/{id}/acknowledge", s.acknowledgeAlert)
	mux.HandleFunc("POST /api/alerts/{id}/resolve", s.resolveAlert)

	// Analytics
	mux.HandleFunc("GET /api/analytics/summary", s.analyticsSummary)
	mux.HandleFunc("GET /api/analytics/vendors", s.analyticsVendors)
	mux.HandleFunc("GET /api/analytics/robots", s.analyticsRobots)
	mux.HandleFunc("GET /api/analytics/zones", s.analyticsZones)

	// Reference data
	mux.HandleFunc("GET /api/errors", s.listErrors)
	mux.HandleFunc("GET /api/errors/{code}", s.getError)
	mux.HandleFunc("GET /api/facility", s.getFacility)
	mux.HandleFunc("GET /api/tasks", s.listTaskDefs)

	// System
	mux.HandleFunc("GET /api/health", s.getHealth)
}

func (s *Server) listRobots(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.sim.Snapshot())
}

func (s *Server) getRobot(w http.ResponseWriter, r *http.Request) {
	robot, err := s.sim.Robot(r.PathValue("id"))
	if err != nil {
		jsonError(w, "robot not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, robot)
}

func (s *Server) assignTask(w http.ResponseWriter, r *http.Request) {
	var spec sim.TaskSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	queued, err := s.sim.AssignTask(r.PathValue("id"), spec)
	if err != nil {
		jsonError(w, err.Error(), commandStatus(err))
		return
	}
	status := "started"
	if queued {
		status = "queued"
	}
	jsonResponse(w, map[string]string{"status": status})
}

func (s *Server) sendToCharging(w http.ResponseWriter, r *http.Request) {
	s.commandResponse(w, s.sim.SendToCharging(r.PathValue("id")))
}

func (s *Server) clearError(w http.ResponseWriter, r *http.Request) {
	s.commandResponse(w, s.sim.ClearError(r.PathValue("id")))
}

func (s *Server) pauseRobot(w http.ResponseWriter, r *http.Request) {
	s.commandResponse(w, s.sim.PauseRobot(r.PathValue("id")))
}

func (s *Server) resumeRobot(w http.ResponseWriter, r *http.Request) {
	s.commandResponse(w, s.sim.ResumeRobot(r.PathValue("id")))
}

func (s *Server) commandResponse(w http.ResponseWriter, err error) {
	if err != nil {
		jsonError(w, err.Error(), commandStatus(err))
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

// commandStatus maps command errors to HTTP status codes.
func commandStatus(err error) int {
	switch {
	case errors.Is(err, fleet.ErrUnknownRobot), errors.Is(err, fleet.ErrUnknownAlert):
		return http.StatusNotFound
	case errors.Is(err, fleet.ErrRobotBusy):
		return http.StatusConflict
	case errors.Is(err, fleet.ErrInvalidVendorTask):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.store.Active())
}

func (s *Server) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	s.commandResponse(w, s.store.Acknowledge(r.PathValue("id")))
}

func (s *Server) resolveAlert(w http.ResponseWriter, r *http.Request) {
	s.commandResponse(w, s.store.Resolve(r.PathValue("id")))
}

func (s *Server) analyticsSummary(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.analytics.DailySummary())
}

func (s *Server) analyticsVendors(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.analytics.VendorComparison())
}

func (s *Server) analyticsRobots(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.analytics.RobotPerformance())
}

func (s *Server) analyticsZones(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.analytics.ZoneAnalysis())
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    fmt.Sprintf("%.0fs", time.Since(s.startedAt).Seconds()),
		"observers": s.hub.ClientCount(),
		"fleet":     s.sim.Summarize(),
	})
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
