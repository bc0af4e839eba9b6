package http

import (
	"net/http"

	"fintrack/internal/report"
)

// Reports are not paginated.

func (s *Server) handleWindowReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	window, err := report.ParseWindow(r.PathValue("window"))
	if err != nil {
		writeError(w, r, err, "Report not found.")
		return
	}
	txs, err := s.reports.Report(r.Context(), identity, window)
	if err != nil {
		writeError(w, r, err, "Report not found.")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(txs, newTransactionResponse))
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "pk")
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	txs, err := s.reports.ByCategory(r.Context(), identity, id)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(txs, newTransactionResponse))
}
