package http

import (
	"net/http"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

// handleListTransactions serves the executed or the pending listing.
func (s *Server) handleListTransactions(state store.Pending) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := ParseTransactionFilter(r.URL.Query(), state)
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		if state == store.PendingOnly {
			// Pending transactions have no execution date to bound.
			f.ExecutedFrom, f.ExecutedUntil = nil, nil
		}
		txs, err := s.ledger.ListTransactions(r.Context(), f)
		if err != nil {
			s.storeFailure(w, r, "List transactions failed", err, applog.OpList)
			return
		}
		if txs == nil {
			txs = []core.Transaction{}
		}
		NewJSONResponse(txs).Write(w)
	}
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		s.storeFailure(w, r, "Get transaction failed", err, applog.OpRead)
		return
	}
	NewJSONResponse(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := DecodeJSON(w, r, &tx); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx.ID = 0
	if err := tx.Validate(); err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}
	created, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.storeFailure(w, r, "Create transaction failed", err, applog.OpCreate)
		return
	}
	s.countMutation()
	NewJSONResponse(created).Status(http.StatusCreated).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var tx core.Transaction
	if err := DecodeJSON(w, r, &tx); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx.ID = id
	if err := tx.Validate(); err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}
	updated, err := s.ledger.UpdateTransaction(r.Context(), tx)
	if err != nil {
		s.storeFailure(w, r, "Update transaction failed", err, applog.OpUpdate)
		return
	}
	s.countMutation()
	NewJSONResponse(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		s.storeFailure(w, r, "Delete transaction failed", err, applog.OpDelete)
		return
	}
	s.countMutation()
	NewJSONResponse(deleteBody{ID: id, Deleted: true}).Write(w)
}
