package daemon

import (
	"net/http"
	"strconv"

	"otrack/internal/api"
	"otrack/internal/workorder"
)

// Health is the payload of GET /api/health.
type Health struct {
	Status string `json:"status"`
	Daemon Status `json:"daemon"`
}

type signInRequest struct {
	Email string `json:"email"`
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.store.Ping(r.Context()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, Health{Status: "ok", Daemon: s.daemon.Status()})
}

func (s *apiServer) handleStages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{"pipelines": s.daemon.service.Stages()})
}

func (s *apiServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	session, err := s.daemon.identity.SignIn(r.Context(), req.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, session)
}

func (s *apiServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(r)
	if err := s.daemon.identity.SignOut(r.Context(), session.Token); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleListWorkOrders(w http.ResponseWriter, r *http.Request) {
	if location := r.URL.Query().Get("location"); location != "" {
		orders, err := s.daemon.service.List(r.Context(), location)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, map[string]any{"items": orders})
		return
	}
	board, err := s.daemon.service.Board(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, board)
}

func (s *apiServer) handleCreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	created, err := s.daemon.service.Create(r.Context(), sessionFromRequest(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, created)
}

func (s *apiServer) handleGetWorkOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.daemon.service.Describe(r.Context(), r.PathValue("ot"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, order)
}

func (s *apiServer) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req api.DetailsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	updated, err := s.daemon.service.UpdateDetails(r.Context(), sessionFromRequest(r), r.PathValue("ot"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, updated)
}

func (s *apiServer) handleRecordStageDate(w http.ResponseWriter, r *http.Request) {
	var req api.StageDateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	date, err := workorder.ParseDate(req.Date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	update, err := s.daemon.service.RecordStageDate(r.Context(), sessionFromRequest(r), r.PathValue("ot"), r.PathValue("stage"), date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, update)
}

func (s *apiServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.daemon.service.Dashboard(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, dash)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	entries, err := s.daemon.service.History(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"items": entries})
}
