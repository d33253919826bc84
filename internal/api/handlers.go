package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/simulator"
)

func (h *Handler) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.svc.ListTeams(r.Context(), owner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if teams == nil {
		teams = []*league.Team{}
	}
	h.writeJSON(w, http.StatusOK, teams)
}

func (h *Handler) createTeam(w http.ResponseWriter, r *http.Request) {
	var in simulator.TeamInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.svc.CreateTeam(r.Context(), owner(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) getTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetTeam(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handler) updateTeam(w http.ResponseWriter, r *http.Request) {
	var in simulator.TeamInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.svc.UpdateTeam(r.Context(), owner(r), mux.Vars(r)["id"], in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handler) deleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTeam(r.Context(), owner(r), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.svc.ListMatches(r.Context(), owner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []*league.Match{}
	}
	h.writeJSON(w, http.StatusOK, matches)
}

func (h *Handler) scheduleMatch(w http.ResponseWriter, r *http.Request) {
	var in simulator.FixtureInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	matches, err := h.svc.ScheduleMatch(r.Context(), owner(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, matches)
}

func (h *Handler) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMatch(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

func (h *Handler) deleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMatch(r.Context(), owner(r), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// matchCommand adapts a service call that takes a match id and returns the
// updated match.
func (h *Handler) matchCommand(fn func(r *http.Request, owner, id string) (*league.Match, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := fn(r, owner(r), mux.Vars(r)["id"])
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, m)
	}
}

func (h *Handler) startMatch(w http.ResponseWriter, r *http.Request) {
	h.matchCommand(func(r *http.Request, owner, id string) (*league.Match, error) {
		return h.svc.StartMatch(r.Context(), owner, id)
	})(w, r)
}

func (h *Handler) tickMatch(w http.ResponseWriter, r *http.Request) {
	h.matchCommand(func(r *http.Request, owner, id string) (*league.Match, error) {
		return h.svc.Tick(r.Context(), owner, id)
	})(w, r)
}

func (h *Handler) finishMatch(w http.ResponseWriter, r *http.Request) {
	h.matchCommand(func(r *http.Request, owner, id string) (*league.Match, error) {
		return h.svc.FinishMatch(r.Context(), owner, id)
	})(w, r)
}

func (h *Handler) kick(w http.ResponseWriter, r *http.Request) {
	h.matchCommand(func(r *http.Request, owner, id string) (*league.Match, error) {
		return h.svc.Kick(r.Context(), owner, id)
	})(w, r)
}

type scoreBody struct {
	Side  league.Side `json:"side"`
	Delta int         `json:"delta"`
}

func (h *Handler) adjustScore(w http.ResponseWriter, r *http.Request) {
	var body scoreBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.matchCommand(func(r *http.Request, owner, id string) (*league.Match, error) {
		return h.svc.AdjustScore(r.Context(), owner, id, body.Side, body.Delta)
	})(w, r)
}

func (h *Handler) listTournaments(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.ListTournaments(r.Context(), owner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ts == nil {
		ts = []*league.Tournament{}
	}
	h.writeJSON(w, http.StatusOK, ts)
}

type nameBody struct {
	Name       string `json:"name"`
	Classified int    `json:"classified,omitempty"`
}

func (h *Handler) createTournament(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.svc.CreateTournament(r.Context(), owner(r), body.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) getTournament(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetTournament(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handler) deleteTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTournament(r.Context(), owner(r), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tournamentCommand decodes the request body into a T and runs fn with the
// route variables, answering with the updated tournament.
func tournamentCommand[T any](h *Handler, fn func(r *http.Request, owner string, vars map[string]string, body T) (*league.Tournament, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if r.ContentLength != 0 {
			if err := decodeBody(r, &body); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
		t, err := fn(r, owner(r), mux.Vars(r), body)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, t)
	}
}

func (h *Handler) addGroup(w http.ResponseWriter, r *http.Request) {
	tournamentCommand(h, func(r *http.Request, owner string, vars map[string]string, body nameBody) (*league.Tournament, error) {
		return h.svc.AddGroup(r.Context(), owner, vars["id"], body.Name, body.Classified)
	})(w, r)
}

type classifiedBody struct {
	Classified int `json:"classified"`
}

func (h *Handler) setClassified(w http.ResponseWriter, r *http.Request) {
	tournamentCommand(h, func(r *http.Request, owner string, vars map[string]string, body classifiedBody) (*league.Tournament, error) {
		return h.svc.SetClassified(r.Context(), owner, vars["id"], vars["group"], body.Classified)
	})(w, r)
}

type teamRefBody struct {
	TeamID string      `json:"teamId"`
	Side   league.Side `json:"side,omitempty"`
}

func (h *Handler) addGroupTeam(w http.ResponseWriter, r *http.Request) {
	tournamentCommand(h, func(r *http.Request, owner string, vars map[string]string, body teamRefBody) (*league.Tournament, error) {
		return h.svc.AddTeamToGroup(r.Context(), owner, vars["id"], vars["group"], body.TeamID)
	})(w, r)
}

func (h *Handler) removeGroupTeam(w http.ResponseWriter, r *http.Request) {
	tournamentCommand(h, func(r *http.Request, owner string, vars map[string]string, _ struct{}) (*league.Tournament, error) {
		return h.svc.RemoveTeamFromGroup(r.Context(), owner, vars["id"], vars["group"], vars["team"])
	})(w, r)
}

func (h *Handler) standings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	table, err := h.svc.Standings(r.Context(), owner(r), vars["id"], vars["group"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, table)
}

type groupScheduleBody struct {
	StartTime time.Time `json:"startTime"`
	AutoStart bool      `json:"autoStart"`
}

func (h *Handler) scheduleGroup(w http.ResponseWriter, r *http.Request) {
	var body groupScheduleBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	matches, err := h.svc.ScheduleGroupRoundRobin(r.Context(), owner(r), vars["id"], vars["group"], body.StartTime, body.AutoStart)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, matches)
}

type knockoutBody struct {
	Size int `json:"size"`
}

func (h *Handler) configureKnockout(w http.ResponseWriter, r *http.Request) {
	tournamentCommand(h, func(r *http.Request, owner string, vars map[string]string, body knockoutBody) (*league.Tournament, error) {
		return h.svc.ConfigureKnockout(r.Context(), owner, vars["id"], body.Size)
	})(w, r)
}

func (h *Handler) assignSlot(w http.ResponseWriter, r *http.Request) {
	tournamentCommand(h, func(r *http.Request, owner string, vars map[string]string, body teamRefBody) (*league.Tournament, error) {
		slot, _ := strconv.Atoi(vars["slot"])
		return h.svc.AssignSlot(r.Context(), owner, vars["id"], slot, body.Side, body.TeamID)
	})(w, r)
}

type matchRefBody struct {
	MatchID string `json:"matchId"`
}

func (h *Handler) linkSlot(w http.ResponseWriter, r *http.Request) {
	tournamentCommand(h, func(r *http.Request, owner string, vars map[string]string, body matchRefBody) (*league.Tournament, error) {
		slot, _ := strconv.Atoi(vars["slot"])
		return h.svc.LinkSlot(r.Context(), owner, vars["id"], slot, body.MatchID)
	})(w, r)
}
