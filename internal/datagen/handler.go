package datagen

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mpc-backend/internal/core/types"

	"github.com/go-chi/chi/v5"
)

const defaultSeed = 42

// Service serves a Generator over HTTP in the layout Client expects.
type Service struct {
	generator *Generator
}

func NewService(generator *Generator) *Service {
	return &Service{generator: generator}
}

func (s *Service) AddRoutes(r chi.Router) {
	r.Route("/api/v1/animals", func(r chi.Router) {
		r.Post("/data", s.Data)
		r.Get("/schema", s.Schema)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error serializing response", "error", err)
	}
}

func (s *Service) Data(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Seed               *int64 `json:"seed"`
		NumberOfDatapoints *int   `json:"number_of_datapoints"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "unable to parse request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	seed := int64(defaultSeed)
	if req.Seed != nil {
		seed = *req.Seed
	}
	count := 500
	if req.NumberOfDatapoints != nil {
		count = *req.NumberOfDatapoints
	}

	records, err := s.generator.Generate(r.Context(), seed, count)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Service) Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RecordSchema())
}
