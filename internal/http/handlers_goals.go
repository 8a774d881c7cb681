package http

import (
	"net/http"

	"finboard/internal/core"
	applog "finboard/internal/log"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.ListGoals(r.Context())
	if err != nil {
		s.storeFailure(w, r, "List goals failed", err, applog.OpList)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	NewJSONResponse(goals).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := DecodeJSON(w, r, &g); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	g.ID = 0
	if err := g.Validate(); err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}
	created, err := s.ledger.CreateGoal(r.Context(), g)
	if err != nil {
		s.storeFailure(w, r, "Create goal failed", err, applog.OpCreate)
		return
	}
	s.countMutation()
	NewJSONResponse(created).Status(http.StatusCreated).Write(w)
}
