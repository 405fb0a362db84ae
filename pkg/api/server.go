package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"rfm-outreach/pkg/models"
	"rfm-outreach/pkg/pipeline"
)

// Runner déclenche un run complet du pipeline.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// Reader expose les ensembles persistés.
type Reader interface {
	LoadProfiles(ctx context.Context) ([]models.Profile, error)
	LoadRecommendations(ctx context.Context) ([]models.Recommendation, error)
}

// Response est l'enveloppe JSON de toutes les réponses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// Server expose le pipeline en HTTP : déclenchement et lecture.
type Server struct {
	router *mux.Router
	runner Runner
	reader Reader
	log    logrus.FieldLogger
}

func NewServer(runner Runner, reader Reader, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{router: mux.NewRouter(), runner: runner, reader: reader, log: log.WithField("component", "api")}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analytics/run", s.handleRun).Methods(http.MethodPost)
	api.HandleFunc("/recommendations", s.handleRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/profiles", s.handleProfiles).Methods(http.MethodGet)
}

// Handler renvoie le routeur enveloppé par CORS.
func (s *Server) Handler(origins string) http.Handler {
	allowed := []string{"*"}
	if origins != "" {
		allowed = strings.Split(origins, ",")
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// ListenAndServe bloque jusqu'à l'annulation de ctx.
func (s *Server) ListenAndServe(ctx context.Context, addr, origins string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(origins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // un run complet peut être long
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("serveur HTTP démarré")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "ok"}})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sum, err := s.runner.Run(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, Response{Success: true, Data: sum})
	case errors.Is(err, pipeline.ErrNoData):
		writeJSON(w, http.StatusOK, Response{Success: true, Data: sum})
	default:
		stage := ""
		var se *pipeline.StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		s.log.WithField("stage", stage).Errorf("pipeline: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Error: &Error{Code: "PIPELINE_FAILED", Message: err.Error(), Stage: stage},
		})
	}
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.reader.LoadRecommendations(r.Context())
	if err != nil {
		s.log.Errorf("load recommendations: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: &Error{Code: "STORAGE_FAILURE", Message: err.Error()}})
		return
	}
	if window := r.URL.Query().Get("window"); window != "" {
		filtered := recs[:0]
		for _, rec := range recs {
			if rec.Window == window {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: recs})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.reader.LoadProfiles(r.Context())
	if err != nil {
		s.log.Errorf("load profiles: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: &Error{Code: "STORAGE_FAILURE", Message: err.Error()}})
		return
	}
	if customer := r.URL.Query().Get("customer_id"); customer != "" {
		filtered := profiles[:0]
		for _, p := range profiles {
			if p.CustomerID == customer {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: profiles})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logrus.Errorf("encode response: %v", err)
	}
}
