package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	backend "mpc-backend/internal/api"
	"mpc-backend/internal/artifacts"
	"mpc-backend/internal/database"
	"mpc-backend/internal/datagen"
	"mpc-backend/internal/lifecycle"
	"mpc-backend/internal/storage"
	"mpc-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	return db
}

func createRouter(t *testing.T, objects storage.ObjectStore) chi.Router {
	if objects == nil {
		local, err := storage.NewLocalObjectStore(t.TempDir())
		require.NoError(t, err)
		objects = local
	}

	service := lifecycle.NewService(lifecycle.Deps{
		Generator:     datagen.NewGenerator(),
		Artifacts:     artifacts.NewStore(objects, artifacts.DefaultBucket),
		Animals:       database.NewRepository(createDB(t)),
		HealthTimeout: time.Second,
	})

	router := chi.NewRouter()
	backend.NewBackendService(service).AddRoutes(router)
	return router
}

func request(router chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestTrainAndPredict(t *testing.T) {
	router := createRouter(t, nil)

	rec := request(router, http.MethodPost, "/api/v1/mpc/train/synthetic?datapoints=200&seed=42", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	trained := decode[api.TrainResponse](t, rec)
	assert.Equal(t, "Ok", trained.Status)
	assert.NotEmpty(t, trained.TrainedModelId)
	assert.Greater(t, trained.ModelMetrics.F1Score, 0.0)
	assert.Len(t, trained.Groups, 4)

	rec = request(router, http.MethodGet, "/api/v1/mpc/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.ListModelsResponse{Models: []string{trained.TrainedModelId}}, decode[api.ListModelsResponse](t, rec))

	animals := []api.Animal{
		{Height: 1.7, Weight: 60, WalksOnNLegs: 2, HasWings: false, HasTail: true},
		{Height: 0.3, Weight: 2, WalksOnNLegs: 2, HasWings: true, HasTail: true},
	}
	rec = request(router, http.MethodPost, "/api/v1/mpc/predict?model_timestamp="+trained.TrainedModelId, animals)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	predicted := decode[api.PredictResponse](t, rec)
	assert.Equal(t, trained.TrainedModelId, predicted.ModelTimestamp)
	assert.Equal(t, "saved into postgresql", predicted.DatabaseStatus)
	assert.Equal(t, []api.LabeledAnimal{
		{Animal: animals[0], AnimalType: "kangaroo"},
		{Animal: animals[1], AnimalType: "chicken"},
	}, predicted.Prediction)

	rec = request(router, http.MethodPost, "/api/v1/mpc/predict", animals[:1])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, trained.TrainedModelId, decode[api.PredictResponse](t, rec).ModelTimestamp)

	rec = request(router, http.MethodGet, "/api/v1/mpc/models/"+trained.TrainedModelId+"/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := decode[api.ModelMetrics](t, rec)
	assert.Equal(t, trained.ModelMetrics, metrics.Metrics)
	assert.Equal(t, "DecisionTreeClassifier", metrics.ModelType)

	rec = request(router, http.MethodGet, "/api/v1/mpc/models/latest/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(router, http.MethodGet, "/api/v1/mpc/animals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.StoredAnimal](t, rec), 3)
}

func TestTrainSynthetic_InvalidParams(t *testing.T) {
	router := createRouter(t, nil)

	rec := request(router, http.MethodPost, "/api/v1/mpc/train/synthetic?datapoints=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = request(router, http.MethodPost, "/api/v1/mpc/train/synthetic", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = request(router, http.MethodPost, "/api/v1/mpc/train/synthetic?datapoints=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTrainUserData(t *testing.T) {
	router := createRouter(t, nil)

	rec := request(router, http.MethodPost, "/api/v1/mpc/train/userdata?start=2025-04-20T12:00:00&end=2025-04-21T12:00:00", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(router, http.MethodPost, "/api/v1/mpc/train/userdata?start=2025-04-22T12:00:00&end=2025-04-21T12:00:00", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = request(router, http.MethodPost, "/api/v1/mpc/train/userdata?start=yesterday", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = request(router, http.MethodGet, "/api/v1/mpc/animals?end=2025-13-40", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPredict_Errors(t *testing.T) {
	router := createRouter(t, nil)
	animal := []api.Animal{{Height: 1.7, Weight: 60, WalksOnNLegs: 2, HasTail: true}}

	rec := request(router, http.MethodPost, "/api/v1/mpc/predict", animal)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(router, http.MethodPost, "/api/v1/mpc/predict?model_timestamp=2020-01-01_00-00-00", animal)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(router, http.MethodPost, "/api/v1/mpc/predict", []api.Animal{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = request(router, http.MethodPost, "/api/v1/mpc/predict", []api.Animal{{Height: 0, Weight: 1, WalksOnNLegs: 2}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mpc/predict", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = request(router, http.MethodGet, "/api/v1/mpc/models/2020-01-01_00-00-00/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type unreachableStore struct{}

var errUnreachable = errors.New("connection refused")

func (unreachableStore) CreateBucket(context.Context, string) error { return errUnreachable }

func (unreachableStore) PutObject(context.Context, string, string, io.Reader) error {
	return errUnreachable
}

func (unreachableStore) GetObject(context.Context, string, string) ([]byte, error) {
	return nil, errUnreachable
}

func (unreachableStore) ListObjects(context.Context, string, string) ([]storage.Object, error) {
	return nil, errUnreachable
}

func (unreachableStore) Ping(context.Context) error { return errUnreachable }

func TestHealth(t *testing.T) {
	rec := request(createRouter(t, nil), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.HealthResponse{
		Status:         "ok",
		Minio:          "reachable",
		PostgreSQL:     "reachable",
		DataServiceAPI: "reachable",
	}, decode[api.HealthResponse](t, rec))

	router := createRouter(t, unreachableStore{})
	rec = request(router, http.MethodGet, "/api/v1/mpc/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "error", health.Status)
	assert.Equal(t, "unreachable: Is Minio running?", health.Minio)

	rec = request(router, http.MethodGet, "/api/v1/mpc/models", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
