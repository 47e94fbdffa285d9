// Package httpapi exposes the service's HTTP surface: health and
// readiness probes, Prometheus metrics, and an on-demand action-card
// endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pes-safety/evac-notifier/internal/actioncard"
	"github.com/pes-safety/evac-notifier/internal/domain"
	"github.com/pes-safety/evac-notifier/internal/ranker"
)

// ReadinessChecker reports whether the pipeline behind the API is live.
type ReadinessChecker interface {
	CheckReadiness() bool
}

// ShelterRanker ranks shelters for the on-demand endpoint.
type ShelterRanker interface {
	Rank(ctx context.Context, q ranker.Query) ([]domain.RankedShelter, error)
}

// CardGenerator produces validated guidance, surfacing retry exhaustion.
type CardGenerator interface {
	Generate(ctx context.Context, alert domain.Alert, profile domain.Profile, shelters []domain.RankedShelter) (domain.ActionCard, error)
}

// Server hosts the HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires the router. readiness, shelterRanker, and generator may
// not be nil.
func NewServer(addr string, readiness ReadinessChecker, shelterRanker ShelterRanker, generator CardGenerator, logger *slog.Logger) *Server {
	s := &Server{logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady(readiness)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/action-cards", s.handleActionCard(shelterRanker, generator)).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP exposes the router for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(readiness ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if readiness == nil || !readiness.CheckReadiness() {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type actionCardRequest struct {
	Category    string   `json:"category"`
	AreaName    string   `json:"area_name"`
	Message     string   `json:"message"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	RadiusKM    float64  `json:"radius_km"`
	AgeGroup    string   `json:"age_group"`
	Mobility    string   `json:"mobility"`
	HeightCM    *int     `json:"height_cm"`
	MedicalNote string   `json:"medical_note"`
}

type actionCardResponse struct {
	Card     string            `json:"card"`
	Method   string            `json:"method"`
	Shelters []shelterResponse `json:"shelters"`
}

type shelterResponse struct {
	Name           string  `json:"name"`
	Address        string  `json:"address,omitempty"`
	DistanceKM     float64 `json:"distance_km"`
	WalkingMinutes int     `json:"walking_minutes"`
}

func (s *Server) handleActionCard(shelterRanker ShelterRanker, generator CardGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actionCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Lat == nil || req.Lon == nil {
			s.writeError(w, http.StatusBadRequest, "lat and lon are required")
			return
		}
		if strings.TrimSpace(req.Category) == "" {
			s.writeError(w, http.StatusBadRequest, "category is required")
			return
		}

		category := domain.ParseCategory(req.Category)
		alert := domain.Alert{
			ID:            "on-demand",
			Category:      category,
			CategoryLabel: req.Category,
			AreaName:      req.AreaName,
			Message:       req.Message,
		}
		profile := domain.Profile{
			AgeGroup:    req.AgeGroup,
			Mobility:    req.Mobility,
			HeightCM:    req.HeightCM,
			MedicalNote: req.MedicalNote,
		}

		shelters, err := shelterRanker.Rank(r.Context(), ranker.Query{
			Origin:   domain.Geo{Lat: *req.Lat, Lon: *req.Lon},
			RadiusKM: req.RadiusKM,
			Category: category,
		})
		if err != nil {
			s.logger.Error("rank shelters", "error", err)
			s.writeError(w, http.StatusInternalServerError, "shelter lookup failed")
			return
		}

		card, err := generator.Generate(r.Context(), alert, profile, shelters)
		if err != nil {
			if errors.Is(err, actioncard.ErrRetriesExhausted) {
				s.logger.Warn("on-demand generation exhausted", "error", err)
				s.writeError(w, http.StatusServiceUnavailable, "guidance generation unavailable, try again")
				return
			}
			s.logger.Error("generate action card", "error", err)
			s.writeError(w, http.StatusInternalServerError, "guidance generation failed")
			return
		}

		resp := actionCardResponse{
			Card:     card.Text,
			Method:   string(card.Method),
			Shelters: make([]shelterResponse, 0, len(card.Shelters)),
		}
		for _, rs := range card.Shelters {
			resp.Shelters = append(resp.Shelters, shelterResponse{
				Name:           rs.Name,
				Address:        rs.Address,
				DistanceKM:     rs.DistanceKM,
				WalkingMinutes: rs.WalkingMinutes,
			})
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
