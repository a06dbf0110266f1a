package api

import (
	"mpc-backend/internal/artifacts"
	"mpc-backend/internal/core/training"
	"mpc-backend/internal/core/types"
	"mpc-backend/internal/lifecycle"
	"mpc-backend/pkg/api"
)

func convertAnimal(r types.FeatureRecord) api.Animal {
	return api.Animal{
		Height:       r.Height,
		Weight:       r.Weight,
		WalksOnNLegs: r.Legs,
		HasWings:     r.HasWings,
		HasTail:      r.HasTail,
	}
}

func convertFeatures(a api.Animal) types.FeatureRecord {
	return types.FeatureRecord{
		Height:   a.Height,
		Weight:   a.Weight,
		Legs:     a.WalksOnNLegs,
		HasWings: a.HasWings,
		HasTail:  a.HasTail,
	}
}

func convertLabeled(r types.LabeledRecord) api.LabeledAnimal {
	return api.LabeledAnimal{Animal: convertAnimal(r.FeatureRecord), AnimalType: string(r.AnimalType)}
}

func convertMetrics(m training.Metrics) api.Metrics {
	return api.Metrics{
		Accuracy:  m.Accuracy,
		Precision: m.Precision,
		Recall:    m.Recall,
		F1Score:   m.F1Score,
	}
}

func convertStoredMetrics(m artifacts.StoredMetrics) api.ModelMetrics {
	return api.ModelMetrics{VersionId: m.VersionID, ModelType: m.ModelType, Metrics: convertMetrics(m.Metrics)}
}

func convertTrainResult(res lifecycle.TrainResult) api.TrainResponse {
	groups := make([]api.GroupReport, 0, len(res.Groups))
	for _, g := range res.Groups {
		groups = append(groups, api.GroupReport{
			AnimalType: string(g.AnimalType),
			Original:   g.Original,
			Kept:       g.Kept,
			Removed:    g.Removed(),
		})
	}

	return api.TrainResponse{
		Status:         "Ok",
		TrainedModelId: res.VersionID,
		ModelMetrics:   convertMetrics(res.Metrics),
		Params:         res.Params,
		Records:        res.Records,
		Dropped:        res.Dropped,
		Groups:         groups,
	}
}

func convertPrediction(res lifecycle.PredictResult) api.PredictResponse {
	predictions := make([]api.LabeledAnimal, 0, len(res.Predictions))
	for _, p := range res.Predictions {
		predictions = append(predictions, convertLabeled(p))
	}
	return api.PredictResponse{
		ModelTimestamp: res.VersionID,
		Prediction:     predictions,
		DatabaseStatus: res.DatabaseStatus,
	}
}

func convertStoredAnimals(animals []lifecycle.StoredAnimal) []api.StoredAnimal {
	out := make([]api.StoredAnimal, 0, len(animals))
	for _, a := range animals {
		out = append(out, api.StoredAnimal{LabeledAnimal: convertLabeled(a.LabeledRecord), Timestamp: a.Timestamp})
	}
	return out
}

func convertHealth(h lifecycle.HealthReport) api.HealthResponse {
	return api.HealthResponse{
		Status:         h.Status,
		Minio:          h.Minio,
		PostgreSQL:     h.PostgreSQL,
		DataServiceAPI: h.DataServiceAPI,
	}
}
