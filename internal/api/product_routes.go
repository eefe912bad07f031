package api

import (
	"errors"
	"net/http"

	"github.com/yksanjo/competitor-price-tracker/internal/repository"
)

type observationJSON struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		s.log.Errorf("list products: %s", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	limit := parseLimit(r, 100)

	ctx := r.Context()
	p, err := s.products.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		s.log.Errorf("get product %s: %s", name, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	obs, err := s.history.GetByProduct(ctx, p.ID, limit)
	if err != nil {
		s.log.Errorf("history for %s: %s", name, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	out := make([]observationJSON, len(obs))
	for i, o := range obs {
		out[i] = observationJSON{T: o.ObservedAt.UnixMilli(), P: o.Price}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLatestObservation(w http.ResponseWriter, r *http.Request) {
	o, err := s.history.GetLatest(r.Context())
	if err != nil {
		s.log.Errorf("latest observation: %s", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch latest observation")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "no observations recorded")
		return
	}
	writeJSON(w, http.StatusOK, o)
}
