package api

import "time"

type Animal struct {
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"`
	WalksOnNLegs int     `json:"walks_on_n_legs"`
	HasWings     bool    `json:"has_wings"`
	HasTail      bool    `json:"has_tail"`
}

type LabeledAnimal struct {
	Animal
	AnimalType string `json:"animal_type"`
}

type StoredAnimal struct {
	LabeledAnimal
	Timestamp time.Time `json:"timestamp"`
}

type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

type ModelMetrics struct {
	VersionId string `json:"version_id"`
	ModelType string `json:"model_type"`
	Metrics
}

type TrainSyntheticParams struct {
	Datapoints int    `schema:"datapoints,required"`
	Seed       *int64 `schema:"seed"`
}

type TimeRangeParams struct {
	Start time.Time `schema:"start"`
	End   time.Time `schema:"end"`
}

type PredictParams struct {
	ModelTimestamp string `schema:"model_timestamp"`
}

type GroupReport struct {
	AnimalType string `json:"animal_type"`
	Original   int    `json:"original"`
	Kept       int    `json:"kept"`
	Removed    int    `json:"removed"`
}

type TrainResponse struct {
	Status         string        `json:"status"`
	TrainedModelId string        `json:"trained_model_id"`
	ModelMetrics   Metrics       `json:"model_metrics"`
	Params         string        `json:"params,omitempty"`
	Records        int           `json:"records"`
	Dropped        int           `json:"dropped"`
	Groups         []GroupReport `json:"groups,omitempty"`
}

type PredictResponse struct {
	ModelTimestamp string          `json:"model_timestamp"`
	Prediction     []LabeledAnimal `json:"prediction"`
	DatabaseStatus string          `json:"database_status"`
}

type ListModelsResponse struct {
	Models []string `json:"models"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	Minio          string `json:"minio"`
	PostgreSQL     string `json:"postgresql"`
	DataServiceAPI string `json:"data_service_api"`
}
