package datagen_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpc-backend/internal/core/types"
	"mpc-backend/internal/datagen"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchesProfile(r types.FeatureRecord) bool {
	in := func(v, lo, hi float64) bool { return v >= lo && v <= hi }
	if !r.HasTail {
		return false
	}
	switch {
	case r.Legs == 2 && !r.HasWings:
		return in(r.Height, 1.6, 2) && in(r.Weight, 40, 90)
	case r.Legs == 2 && r.HasWings:
		return in(r.Height, 0.15, 0.5) && in(r.Weight, 0.037, 4.2)
	case r.Legs == 4 && !r.HasWings:
		return (in(r.Height, 2.47, 3.36) && in(r.Weight, 2600, 6900)) ||
			(in(r.Height, 0.13, 0.81) && in(r.Weight, 0.5, 79))
	}
	return false
}

func TestGenerator_Deterministic(t *testing.T) {
	gen := datagen.NewGenerator()

	a, err := gen.Generate(context.Background(), 42, 300)
	require.NoError(t, err)
	b, err := gen.Generate(context.Background(), 42, 300)
	require.NoError(t, err)
	c, err := gen.Generate(context.Background(), 7, 300)
	require.NoError(t, err)

	assert.Len(t, a, 300)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerator_Noise(t *testing.T) {
	records, err := datagen.NewGenerator().Generate(context.Background(), 1, 10000)
	require.NoError(t, err)

	outside := 0
	for _, r := range records {
		if !matchesProfile(r) {
			outside++
		}
	}
	assert.Greater(t, outside, 300)
	assert.Less(t, outside, 700)
}

func TestGenerator_InvalidCount(t *testing.T) {
	_, err := datagen.NewGenerator().Generate(context.Background(), 1, 0)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func setupDataService(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	datagen.NewService(datagen.NewGenerator()).AddRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Generate(t *testing.T) {
	server := setupDataService(t)
	client := datagen.NewClient(server.URL, 5*time.Second)

	records, err := client.Generate(context.Background(), 42, 50)
	require.NoError(t, err)

	expected, err := datagen.NewGenerator().Generate(context.Background(), 42, 50)
	require.NoError(t, err)
	assert.Equal(t, expected, records)

	_, err = client.Generate(context.Background(), 42, -1)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestClient_SchemaAndPing(t *testing.T) {
	server := setupDataService(t)
	client := datagen.NewClient(server.URL, 5*time.Second)

	schema, err := client.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datagen.RecordSchema(), schema)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestClient_Unreachable(t *testing.T) {
	server := setupDataService(t)
	client := datagen.NewClient(server.URL, time.Second)
	server.Close()

	_, err := client.Generate(context.Background(), 42, 10)
	assert.ErrorIs(t, err, types.ErrConnectivity)
	assert.ErrorIs(t, client.Ping(context.Background()), types.ErrConnectivity)
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := datagen.NewClient(server.URL, time.Second).Generate(context.Background(), 42, 10)
	assert.ErrorIs(t, err, types.ErrConnectivity)
}

func TestService_RejectsInvalidRequests(t *testing.T) {
	server := setupDataService(t)

	res, err := http.Post(server.URL+"/api/v1/animals/data", "application/json", bytes.NewBufferString(`{"seed": 1, "number_of_datapoints": 0}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res, err = http.Post(server.URL+"/api/v1/animals/data", "application/json", bytes.NewBufferString(`not json`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
