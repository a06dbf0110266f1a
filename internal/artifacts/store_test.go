package artifacts_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"mpc-backend/internal/artifacts"
	"mpc-backend/internal/core/training"
	"mpc-backend/internal/core/tree"
	"mpc-backend/internal/core/types"
	"mpc-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// leafModel always predicts the given class.
func leafModel(class types.AnimalType) *training.Model {
	counts := make([]float64, len(types.AnimalTypes))
	for i, a := range types.AnimalTypes {
		if a == class {
			counts[i] = 1
		}
	}
	params := tree.Params{Criterion: tree.Gini, MinSamplesSplit: 2}
	return &training.Model{
		Type:     training.ModelType,
		Features: types.FeatureNames[:],
		Classes:  types.AnimalTypes,
		Params:   params,
		Tree: &tree.Classifier{
			Params:      params,
			NumFeatures: types.NumFeatures,
			NumClasses:  len(types.AnimalTypes),
			Nodes:       []tree.Node{{Feature: -1, Left: -1, Right: -1, Counts: counts}},
		},
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func setupStore(t *testing.T) (*artifacts.Store, *fakeClock) {
	t.Helper()
	objects, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
	return artifacts.NewStore(objects, "", artifacts.WithClock(clock.Now)), clock
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	metrics := training.Metrics{Accuracy: 0.95, Precision: 0.9, Recall: 0.8, F1Score: 0.8471}
	id, err := store.Save(ctx, leafModel(types.Dog), &metrics)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14_09-26-53", id)
	assert.Equal(t, "mpc", store.Bucket())

	model, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, leafModel(types.Dog), model)

	stored, err := store.Metrics(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, artifacts.StoredMetrics{VersionID: id, ModelType: training.ModelType, Metrics: metrics}, stored)
}

func TestStore_ListAndLatest(t *testing.T) {
	store, clock := setupStore(t)
	ctx := context.Background()

	versions, err := store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = store.LatestVersion(ctx)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, types.ErrNotFound)

	first, err := store.Save(ctx, leafModel(types.Dog), nil)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	second, err := store.Save(ctx, leafModel(types.Elephant), nil)
	require.NoError(t, err)

	versions, err = store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, versions)

	latest, err := store.LatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	model, err := store.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, types.Elephant, model.PredictOne(types.FeatureRecord{}))

	model, err = store.Load(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, types.Dog, model.PredictOne(types.FeatureRecord{}))
}

func TestStore_SameSecondSaves(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	ids := make([]string, 3)
	for i := range ids {
		id, err := store.Save(ctx, leafModel(types.Chicken), nil)
		require.NoError(t, err)
		ids[i] = id
	}

	assert.Equal(t, []string{"2025-03-14_09-26-53", "2025-03-14_09-26-53-001", "2025-03-14_09-26-53-002"}, ids)

	versions, err := store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids, versions)
}

func TestStore_ConcurrentSaves(t *testing.T) {
	store, _ := setupStore(t)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Save(context.Background(), leafModel(types.Kangaroo), nil)
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	versions, err := store.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Len(t, versions, len(ids))
	assert.ElementsMatch(t, ids, versions)
}

func TestStore_Missing(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, leafModel(types.Dog), nil)
	require.NoError(t, err)

	_, err = store.Metrics(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = store.Load(ctx, "2020-01-01_00-00-00")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = store.Load(ctx, "../../etc")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

type brokenObjectStore struct{}

var errBroken = errors.New("connection refused")

func (brokenObjectStore) CreateBucket(context.Context, string) error { return errBroken }

func (brokenObjectStore) PutObject(context.Context, string, string, io.Reader) error {
	return errBroken
}

func (brokenObjectStore) GetObject(context.Context, string, string) ([]byte, error) {
	return nil, errBroken
}

func (brokenObjectStore) ListObjects(context.Context, string, string) ([]storage.Object, error) {
	return nil, errBroken
}

func (brokenObjectStore) Ping(context.Context) error { return errBroken }

func TestStore_Unreachable(t *testing.T) {
	store := artifacts.NewStore(brokenObjectStore{}, "mpc")
	ctx := context.Background()

	_, err := store.Save(ctx, leafModel(types.Dog), nil)
	assert.ErrorIs(t, err, types.ErrConnectivity)

	_, err = store.ListVersions(ctx)
	assert.ErrorIs(t, err, types.ErrConnectivity)

	_, err = store.Load(ctx, "2025-01-01_00-00-00")
	assert.ErrorIs(t, err, types.ErrConnectivity)
	assert.ErrorIs(t, err, errBroken)

	assert.ErrorIs(t, store.Ping(ctx), types.ErrConnectivity)
}

func TestParseVersionID(t *testing.T) {
	ts, seq, err := artifacts.ParseVersionID("2025-03-14_09-26-53")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), ts)
	assert.Equal(t, 0, seq)

	_, seq, err = artifacts.ParseVersionID("2025-03-14_09-26-53-012")
	require.NoError(t, err)
	assert.Equal(t, 12, seq)

	for _, id := range []string{"", "latest", "2025-03-14", "2025-03-14_09-26-53-1", "2025-03-14_09-26-53_001", "2025-13-14_09-26-53"} {
		_, _, err := artifacts.ParseVersionID(id)
		assert.Error(t, err, id)
	}

	assert.Equal(t, "2025-03-14_09-26-53", artifacts.NewVersionID(time.Date(2025, 3, 14, 10, 26, 53, 0, time.FixedZone("CET", 3600))))
}
