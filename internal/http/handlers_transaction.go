package http

import (
	"net/http"
	"sync/atomic"

	"fintrack/internal/query"
	"fintrack/internal/services"
)

const msgTransactionNotFound = "Transaction not found."

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	params, err := query.ParseTransactionParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	page, err := s.transactions.List(r.Context(), identity, params)
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	writeList(w, r, page, mapSlice(page.Items, newTransactionResponse))
}

// handleCreateTransaction adds a transaction under the path category. The
// category must exist and belong to the caller even when the body names
// another one.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	categoryID, err := pathID(r, "category_id")
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	in, err := decodeTransactionInput(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	t, err := s.transactions.Create(r.Context(), identity, categoryID, in)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactions, 1)
	writeJSON(w, http.StatusCreated, newTransactionResponse(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "pk")
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	t, err := s.transactions.Get(r.Context(), identity, id)
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(t))
}

// handleUpdateTransaction merges the supplied fields into the stored
// transaction. PUT and PATCH behave the same.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "pk")
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	in, err := decodeTransactionInput(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	t, err := s.transactions.Update(r.Context(), identity, id, in)
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "pk")
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	if err := s.transactions.Delete(r.Context(), identity, id); err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeedTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	created, err := s.transactions.Seed(r.Context(), identity, services.SeedCount)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactions, int64(len(created)))
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Random Data Added!",
		"count":   len(created),
	})
}
