package http

import (
	"net/http"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	f, err := ParseAccountFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	flat, err := s.ledger.ListAccounts(r.Context(), f)
	if err != nil {
		s.storeFailure(w, r, "List accounts failed", err, applog.OpList)
		return
	}
	NewJSONResponse(store.Nest(flat)).Write(w)
}

func (s *Server) handleSelectAccounts(w http.ResponseWriter, r *http.Request) {
	archived, err := ParseBool(r.URL.Query(), "archived")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	flat, err := s.ledger.ListAccounts(r.Context(), store.AccountFilter{Archived: archived})
	if err != nil {
		s.storeFailure(w, r, "List account options failed", err, applog.OpList)
		return
	}
	nested := store.Nest(flat)
	out := make([]core.AccountSelect, 0, len(nested))
	for _, a := range nested {
		out = append(out, a.Select())
	}
	NewJSONResponse(out).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	a, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		s.storeFailure(w, r, "Get account failed", err, applog.OpRead)
		return
	}
	NewJSONResponse(a).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := DecodeJSON(w, r, &a); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	a.ID = 0
	if err := a.Validate(); err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}
	created, err := s.ledger.CreateAccount(r.Context(), a)
	if err != nil {
		s.storeFailure(w, r, "Create account failed", err, applog.OpCreate)
		return
	}
	s.countMutation()
	NewJSONResponse(created).Status(http.StatusCreated).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var a core.Account
	if err := DecodeJSON(w, r, &a); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	a.ID = id
	if err := a.Validate(); err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}
	updated, err := s.ledger.UpdateAccount(r.Context(), a)
	if err != nil {
		s.storeFailure(w, r, "Update account failed", err, applog.OpUpdate)
		return
	}
	s.countMutation()
	NewJSONResponse(updated).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		s.storeFailure(w, r, "Delete account failed", err, applog.OpDelete)
		return
	}
	s.countMutation()
	NewJSONResponse(deleteBody{ID: id, Deleted: true}).Write(w)
}

// storeFailure logs server-side failures and writes the mapped response.
func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	if StatusFor(err) == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), msg,
			applog.FieldError, err.Error(),
			applog.FieldOperation, op,
			applog.FieldPath, r.URL.Path)
	}
	StoreError(err).Write(w)
}
