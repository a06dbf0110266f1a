package api

import (
	"net/http"

	"mpc-backend/internal/core/types"
	"mpc-backend/internal/lifecycle"
	"mpc-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

type BackendService struct {
	lifecycle *lifecycle.Service
}

func NewBackendService(service *lifecycle.Service) *BackendService {
	return &BackendService{lifecycle: service}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Route("/api/v1/mpc", func(r chi.Router) {
		r.Get("/health", RestHandler(s.Health))
		r.Route("/models", func(r chi.Router) {
			r.Get("/", RestHandler(s.ListModels))
			r.Get("/{version_id}/metrics", RestHandler(s.GetModelMetrics))
		})
		r.Route("/train", func(r chi.Router) {
			r.Post("/synthetic", RestHandler(s.TrainSynthetic))
			r.Post("/userdata", RestHandler(s.TrainUserData))
		})
		r.Post("/predict", RestHandler(s.Predict))
		r.Get("/animals", RestHandler(s.ListAnimals))
	})
}

func (s *BackendService) ListModels(r *http.Request) (any, error) {
	versions, err := s.lifecycle.ListModels(r.Context())
	if err != nil {
		return nil, err
	}
	return api.ListModelsResponse{Models: versions}, nil
}

func (s *BackendService) GetModelMetrics(r *http.Request) (any, error) {
	versionID := chi.URLParam(r, "version_id")
	if versionID == "latest" {
		versionID = ""
	}

	metrics, err := s.lifecycle.ModelMetrics(r.Context(), versionID)
	if err != nil {
		return nil, err
	}
	return convertStoredMetrics(metrics), nil
}

const defaultSeed = 42

func (s *BackendService) TrainSynthetic(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.TrainSyntheticParams](r)
	if err != nil {
		return nil, err
	}

	seed := int64(defaultSeed)
	if params.Seed != nil {
		seed = *params.Seed
	}

	res, err := s.lifecycle.TrainSynthetic(r.Context(), params.Datapoints, seed)
	if err != nil {
		return nil, err
	}
	return convertTrainResult(res), nil
}

func (s *BackendService) TrainUserData(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.TimeRangeParams](r)
	if err != nil {
		return nil, err
	}

	res, err := s.lifecycle.TrainStored(r.Context(), params.Start, params.End)
	if err != nil {
		return nil, err
	}
	return convertTrainResult(res), nil
}

func (s *BackendService) Predict(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.PredictParams](r)
	if err != nil {
		return nil, err
	}

	animals, err := ParseRequest[[]api.Animal](r)
	if err != nil {
		return nil, err
	}
	if len(animals) == 0 {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "at least one animal is required")
	}

	batch := make([]types.FeatureRecord, len(animals))
	for i, a := range animals {
		batch[i] = convertFeatures(a)
	}

	res, err := s.lifecycle.Predict(r.Context(), params.ModelTimestamp, batch)
	if err != nil {
		return nil, err
	}
	return convertPrediction(res), nil
}

func (s *BackendService) ListAnimals(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.TimeRangeParams](r)
	if err != nil {
		return nil, err
	}

	animals, err := s.lifecycle.Animals(r.Context(), params.Start, params.End)
	if err != nil {
		return nil, err
	}
	return convertStoredAnimals(animals), nil
}

func (s *BackendService) Health(r *http.Request) (any, error) {
	return convertHealth(s.lifecycle.Health(r.Context())), nil
}
