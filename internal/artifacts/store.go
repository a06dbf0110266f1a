package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"mpc-backend/internal/core/training"
	"mpc-backend/internal/core/types"
	"mpc-backend/internal/storage"
)

const (
	DefaultBucket = "mpc"

	modelFile   = "model.json"
	metricsFile = "metrics.json"
)

// StoredMetrics is the content of <version_id>/metrics.json.
type StoredMetrics struct {
	VersionID string `json:"version_id"`
	ModelType string `json:"model_type"`
	training.Metrics
}

// Store keeps trained models in an object store bucket, one folder per
// version: <version_id>/model.json and optionally <version_id>/metrics.json.
// Artifacts are never modified once written.
type Store struct {
	objects storage.ObjectStore
	bucket  string
	now     func() time.Time

	// Serializes version id allocation.
	saveMu sync.Mutex
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(objects storage.ObjectStore, bucket string, opts ...Option) *Store {
	if bucket == "" {
		bucket = DefaultBucket
	}
	s := &Store{objects: objects, bucket: bucket, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Bucket() string {
	return s.bucket
}

func modelKey(id string) string {
	return id + "/" + modelFile
}

func metricsKey(id string) string {
	return id + "/" + metricsFile
}

func unreachable(err error) error {
	return fmt.Errorf("%w: artifact store: %w", types.ErrConnectivity, err)
}

// Save writes a new version and returns its id. If metrics is nil only the
// model is written.
func (s *Store) Save(ctx context.Context, model *training.Model, metrics *training.Metrics) (string, error) {
	modelData, err := model.Marshal()
	if err != nil {
		return "", fmt.Errorf("error serializing model: %w", err)
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.objects.CreateBucket(ctx, s.bucket); err != nil {
		return "", unreachable(err)
	}

	id, err := s.allocateID(ctx)
	if err != nil {
		return "", err
	}

	if metrics != nil {
		metricsData, err := json.Marshal(StoredMetrics{VersionID: id, ModelType: model.Type, Metrics: *metrics})
		if err != nil {
			return "", fmt.Errorf("error serializing metrics: %w", err)
		}
		// Metrics go first so a listed version always has them.
		if err := s.objects.PutObject(ctx, s.bucket, metricsKey(id), bytes.NewReader(metricsData)); err != nil {
			return "", unreachable(err)
		}
	}

	if err := s.objects.PutObject(ctx, s.bucket, modelKey(id), bytes.NewReader(modelData)); err != nil {
		return "", unreachable(err)
	}

	slog.Info("model artifact saved", "bucket", s.bucket, "version_id", id, "with_metrics", metrics != nil)

	return id, nil
}

func (s *Store) allocateID(ctx context.Context) (string, error) {
	base := NewVersionID(s.now())
	for seq := 0; seq < 1000; seq++ {
		id := withSequence(base, seq)
		existing, err := s.objects.ListObjects(ctx, s.bucket, modelKey(id))
		if err != nil {
			return "", unreachable(err)
		}
		if len(existing) == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("too many versions created at %s", base)
}

// ListVersions returns every version id in ascending order. Only folders that
// hold a model count as versions.
func (s *Store) ListVersions(ctx context.Context) ([]string, error) {
	objects, err := s.objects.ListObjects(ctx, s.bucket, "")
	if err != nil {
		return nil, unreachable(err)
	}

	versions := []string{}
	for _, obj := range objects {
		id, ok := strings.CutSuffix(obj.Name, "/"+modelFile)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		if _, _, err := ParseVersionID(id); err != nil {
			slog.Warn("ignoring unrecognized artifact folder", "bucket", s.bucket, "key", obj.Name)
			continue
		}
		versions = append(versions, id)
	}
	sort.Strings(versions)

	return versions, nil
}

func (s *Store) LatestVersion(ctx context.Context) (string, error) {
	versions, err := s.ListVersions(ctx)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("%w: no trained model available, train a model first", types.ErrNotFound)
	}
	return versions[len(versions)-1], nil
}

func (s *Store) resolve(ctx context.Context, id string) (string, error) {
	if id == "" {
		return s.LatestVersion(ctx)
	}
	if _, _, err := ParseVersionID(id); err != nil {
		return "", fmt.Errorf("%w: model version '%s' does not exist", types.ErrNotFound, id)
	}
	return id, nil
}

// Load reads the model of a version. An empty id loads the latest version.
func (s *Store) Load(ctx context.Context, id string) (*training.Model, error) {
	id, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.objects.GetObject(ctx, s.bucket, modelKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: model version '%s' does not exist", types.ErrNotFound, id)
		}
		return nil, unreachable(err)
	}

	model, err := training.UnmarshalModel(data)
	if err != nil {
		return nil, fmt.Errorf("error loading model version '%s': %w", id, err)
	}

	slog.Info("model artifact loaded", "bucket", s.bucket, "version_id", id)

	return model, nil
}

// Metrics reads the metrics of a version. An empty id reads the latest version.
func (s *Store) Metrics(ctx context.Context, id string) (StoredMetrics, error) {
	id, err := s.resolve(ctx, id)
	if err != nil {
		return StoredMetrics{}, err
	}

	data, err := s.objects.GetObject(ctx, s.bucket, metricsKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return StoredMetrics{}, fmt.Errorf("%w: no metrics stored for model version '%s'", types.ErrNotFound, id)
		}
		return StoredMetrics{}, unreachable(err)
	}

	var metrics StoredMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		return StoredMetrics{}, fmt.Errorf("error decoding metrics of version '%s': %w", id, err)
	}
	return metrics, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.objects.Ping(ctx); err != nil {
		return unreachable(err)
	}
	return nil
}
