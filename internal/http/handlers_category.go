package http

import (
	"net/http"
	"sync/atomic"

	"fintrack/internal/query"
)

const msgCategoryNotFound = "Category not found."

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	params, err := query.ParseCategoryParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	page, err := s.categories.List(r.Context(), identity, params)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	writeList(w, r, page, mapSlice(page.Items, newCategoryResponse))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	in, err := decodeCategoryInput(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	c, err := s.categories.Create(r.Context(), identity, in)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	atomic.AddInt64(&s.appMetrics.categories, 1)
	writeJSON(w, http.StatusCreated, newCategoryResponse(c))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "pk")
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	c, err := s.categories.Get(r.Context(), identity, id)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "pk")
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	in, err := decodeCategoryInput(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	c, err := s.categories.Update(r.Context(), identity, id, in)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "pk")
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	if err := s.categories.Delete(r.Context(), identity, id); err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	created, err := s.categories.SeedCategories(r.Context(), identity)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	atomic.AddInt64(&s.appMetrics.categories, int64(len(created)))
	writeJSON(w, http.StatusCreated, mapSlice(created, newCategoryResponse))
}
