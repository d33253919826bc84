package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/simulator"
	"github.com/utakatalp/match-simulator/internal/store"
)

// OwnerHeader carries the opaque owner key every record is scoped to.
const OwnerHeader = "X-Owner-Key"

const defaultOwner = "local"

// Clock is the scheduler control exposed over HTTP.
type Clock interface {
	Speed() simulator.Speed
	SetSpeed(simulator.Speed) error
}

type Handler struct {
	svc   *simulator.Service
	clock Clock
	log   *logrus.Logger
}

// NewRouter wires every route under /api/v1 and wraps the router with CORS.
func NewRouter(svc *simulator.Service, clock Clock, log *logrus.Logger, allowedOrigins []string) http.Handler {
	h := &Handler{svc: svc, clock: clock, log: log}

	router := mux.NewRouter()
	router.Use(h.logRequests)
	api := router.PathPrefix("/api/v1").Subrouter()

	// System endpoints
	api.HandleFunc("/health", h.health).Methods("GET")
	api.HandleFunc("/clock", h.getClock).Methods("GET")
	api.HandleFunc("/clock", h.setClock).Methods("PUT")

	// Team endpoints
	api.HandleFunc("/teams", h.listTeams).Methods("GET")
	api.HandleFunc("/teams", h.createTeam).Methods("POST")
	api.HandleFunc("/teams/{id}", h.getTeam).Methods("GET")
	api.HandleFunc("/teams/{id}", h.updateTeam).Methods("PUT")
	api.HandleFunc("/teams/{id}", h.deleteTeam).Methods("DELETE")

	// Match endpoints
	api.HandleFunc("/matches", h.listMatches).Methods("GET")
	api.HandleFunc("/matches", h.scheduleMatch).Methods("POST")
	api.HandleFunc("/matches/{id}", h.getMatch).Methods("GET")
	api.HandleFunc("/matches/{id}", h.deleteMatch).Methods("DELETE")
	api.HandleFunc("/matches/{id}/start", h.startMatch).Methods("POST")
	api.HandleFunc("/matches/{id}/tick", h.tickMatch).Methods("POST")
	api.HandleFunc("/matches/{id}/finish", h.finishMatch).Methods("POST")
	api.HandleFunc("/matches/{id}/score", h.adjustScore).Methods("POST")
	api.HandleFunc("/matches/{id}/penalties/kick", h.kick).Methods("POST")

	// Tournament endpoints
	api.HandleFunc("/tournaments", h.listTournaments).Methods("GET")
	api.HandleFunc("/tournaments", h.createTournament).Methods("POST")
	api.HandleFunc("/tournaments/{id}", h.getTournament).Methods("GET")
	api.HandleFunc("/tournaments/{id}", h.deleteTournament).Methods("DELETE")
	api.HandleFunc("/tournaments/{id}/groups", h.addGroup).Methods("POST")
	api.HandleFunc("/tournaments/{id}/groups/{group}/classified", h.setClassified).Methods("PUT")
	api.HandleFunc("/tournaments/{id}/groups/{group}/teams", h.addGroupTeam).Methods("POST")
	api.HandleFunc("/tournaments/{id}/groups/{group}/teams/{team}", h.removeGroupTeam).Methods("DELETE")
	api.HandleFunc("/tournaments/{id}/groups/{group}/standings", h.standings).Methods("GET")
	api.HandleFunc("/tournaments/{id}/groups/{group}/schedule", h.scheduleGroup).Methods("POST")
	api.HandleFunc("/tournaments/{id}/knockout", h.configureKnockout).Methods("PUT")
	api.HandleFunc("/tournaments/{id}/knockout/slots/{slot:[0-9]+}", h.assignSlot).Methods("PUT")
	api.HandleFunc("/tournaments/{id}/knockout/slots/{slot:[0-9]+}/match", h.linkSlot).Methods("PUT")

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", OwnerHeader},
	})
	return c.Handler(router)
}

func owner(r *http.Request) string {
	if o := r.Header.Get(OwnerHeader); o != "" {
		return o
	}
	return defaultOwner
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"owner":    owner(r),
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("Failed to encode response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, league.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, simulator.ErrInvalidFixture),
		errors.Is(err, simulator.ErrInvalidTeam),
		errors.Is(err, simulator.ErrInvalidTournament),
		errors.Is(err, league.ErrInvalidGroup),
		errors.Is(err, league.ErrInvalidBracket),
		errors.Is(err, league.ErrInvalidSide),
		errors.Is(err, league.ErrInvalidDelta),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		h.writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type clockBody struct {
	Speed simulator.Speed `json:"speed"`
}

func (h *Handler) getClock(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, clockBody{Speed: h.clock.Speed()})
}

func (h *Handler) setClock(w http.ResponseWriter, r *http.Request) {
	var body clockBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.clock.SetSpeed(body.Speed); err != nil {
		h.writeError(w, r, errors.Join(errBadRequest, err))
		return
	}
	h.writeJSON(w, http.StatusOK, clockBody{Speed: h.clock.Speed()})
}
