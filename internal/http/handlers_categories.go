package http

import (
	"net/http"

	"pocketbook/internal/auth"
	"pocketbook/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	typ, err := parseEntryType(req.Type)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	c := core.Category{Name: req.Name, Type: typ, UserID: userID}
	if err := c.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.storage.InsertCategory(r.Context(), c)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	c.ID = id

	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var (
		categories []core.Category
		err        error
	)
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		var typ core.CategoryType
		typ, err = parseEntryType(typeParam)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		categories, err = s.storage.ListCategoriesByType(r.Context(), userID, typ)
	} else {
		categories, err = s.storage.ListCategoriesByUser(r.Context(), userID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	typ, err := parseEntryType(req.Type)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	c := core.Category{ID: id, Name: req.Name, Type: typ, UserID: userID}
	if err := c.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.storage.UpdateCategory(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.storage.DeleteCategory(r.Context(), userID, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
