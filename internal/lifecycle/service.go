package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mpc-backend/internal/artifacts"
	"mpc-backend/internal/core/dataprep"
	"mpc-backend/internal/core/training"
	"mpc-backend/internal/core/types"
	"mpc-backend/internal/database"
	"mpc-backend/internal/modelcache"
	"mpc-backend/internal/readiness"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DatabaseSaved  = "saved into postgresql"
	DatabaseFailed = "save to postgresql failed"

	// DefaultRange is the lookback used when a stored data range has no start.
	DefaultRange = 7 * 24 * time.Hour
)

var (
	trainingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mpc",
		Name:      "training_duration_seconds",
		Help:      "Duration of model training runs",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"source", "status"})

	predictedAnimals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpc",
		Name:      "predicted_animals_total",
		Help:      "Animals classified, by predicted type",
	}, []string{"animal_type"})
)

type Generator interface {
	dataprep.Generator
	Ping(ctx context.Context) error
}

type ArtifactStore interface {
	modelcache.Loader
	Save(ctx context.Context, model *training.Model, metrics *training.Metrics) (string, error)
	ListVersions(ctx context.Context) ([]string, error)
	Metrics(ctx context.Context, id string) (artifacts.StoredMetrics, error)
	Ping(ctx context.Context) error
}

type AnimalRepository interface {
	InsertAnimals(ctx context.Context, records []types.LabeledRecord, ts time.Time) error
	AnimalsBetween(ctx context.Context, start, end time.Time) ([]database.Animal, error)
	Ping(ctx context.Context) error
}

type Deps struct {
	Generator Generator
	Artifacts ArtifactStore
	Animals   AnimalRepository
	Trainer   *training.Trainer

	CacheSize     int
	HealthTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service runs training, prediction and health checks against the injected
// collaborators.
type Service struct {
	generator Generator
	store     ArtifactStore
	animals   AnimalRepository
	trainer   *training.Trainer
	pipeline  *dataprep.Pipeline
	cache     *modelcache.Cache

	healthTimeout time.Duration
	now           func() time.Time
}

func NewService(deps Deps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	trainer := deps.Trainer
	if trainer == nil {
		trainer = training.NewTrainer(training.DefaultConfig())
	}

	return &Service{
		generator:     deps.Generator,
		store:         deps.Artifacts,
		animals:       deps.Animals,
		trainer:       trainer,
		pipeline:      dataprep.NewPipeline(deps.Generator),
		cache:         modelcache.New(deps.Artifacts, deps.CacheSize),
		healthTimeout: deps.HealthTimeout,
		now:           now,
	}
}

func (s *Service) Cache() *modelcache.Cache {
	return s.cache
}

type TrainResult struct {
	VersionID string
	Metrics   training.Metrics
	Params    string
	Records   int
	Dropped   int
	Groups    []dataprep.GroupReport
}

// TrainSynthetic trains on datapoints records fetched from the generator.
func (s *Service) TrainSynthetic(ctx context.Context, datapoints int, seed int64) (TrainResult, error) {
	if datapoints < 1 {
		return TrainResult{}, fmt.Errorf("%w: number of datapoints must be greater than 0", types.ErrValidation)
	}

	dataset, err := s.pipeline.FromGenerator(ctx, seed, datapoints)
	if err != nil {
		return TrainResult{}, interrupted(err)
	}

	return s.train(ctx, "synthetic", dataset)
}

// TrainStored trains on the animals stored between start and end inclusive.
// A zero start or end defaults to DefaultRange before now and now.
func (s *Service) TrainStored(ctx context.Context, start, end time.Time) (TrainResult, error) {
	rows, err := s.Animals(ctx, start, end)
	if err != nil {
		return TrainResult{}, err
	}
	if len(rows) == 0 {
		return TrainResult{}, fmt.Errorf("%w: no data found in the specified time range", types.ErrNotFound)
	}

	records := make([]types.LabeledRecord, len(rows))
	for i, row := range rows {
		records[i] = row.LabeledRecord
	}

	return s.train(ctx, "stored", s.pipeline.FromRecords(records))
}

func (s *Service) train(ctx context.Context, source string, dataset dataprep.Dataset) (TrainResult, error) {
	start := time.Now()
	status := "error"
	defer func() {
		trainingDuration.WithLabelValues(source, status).Observe(time.Since(start).Seconds())
	}()

	model, metrics, err := s.trainer.Train(ctx, dataset.Records)
	if err != nil {
		return TrainResult{}, interrupted(fmt.Errorf("error training model: %w", err))
	}

	id, err := s.store.Save(ctx, model, &metrics)
	if err != nil {
		return TrainResult{}, fmt.Errorf("error saving model: %w", err)
	}
	status = "ok"

	slog.Info("trained model", "source", source, "version_id", id, "records", len(dataset.Records),
		"dropped", dataset.Dropped, "f1_score", metrics.F1Score)

	return TrainResult{
		VersionID: id,
		Metrics:   metrics,
		Params:    model.Params.String(),
		Records:   len(dataset.Records),
		Dropped:   dataset.Dropped,
		Groups:    dataset.Reports,
	}, nil
}

// interrupted marks a cancelled or expired request context as ErrConnectivity,
// other errors pass through unchanged.
func interrupted(err error) error {
	if errors.Is(err, types.ErrConnectivity) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request interrupted: %w", types.ErrConnectivity, err)
	}
	return err
}

type PredictResult struct {
	VersionID      string
	Predictions    []types.LabeledRecord
	DatabaseStatus string
}

func validateBatch(batch []types.FeatureRecord) error {
	if len(batch) == 0 {
		return fmt.Errorf("%w: at least one animal is required", types.ErrValidation)
	}
	for i, r := range batch {
		if r.Height <= 0 || r.Weight <= 0 || r.Legs <= 0 {
			return fmt.Errorf("%w: animal %d must have positive height, weight and walks_on_n_legs", types.ErrValidation, i)
		}
	}
	return nil
}

// Predict classifies the batch with the given model version, or the latest
// one if versionID is empty. The labeled batch is stored afterwards, a failed
// store is reported in DatabaseStatus only.
func (s *Service) Predict(ctx context.Context, versionID string, batch []types.FeatureRecord) (PredictResult, error) {
	if err := validateBatch(batch); err != nil {
		return PredictResult{}, err
	}

	model, id, err := s.cache.Get(ctx, versionID)
	if err != nil {
		return PredictResult{}, interrupted(err)
	}

	labels := model.Predict(batch)
	predictions := make([]types.LabeledRecord, len(batch))
	for i := range batch {
		predictions[i] = types.LabeledRecord{FeatureRecord: batch[i], AnimalType: labels[i]}
		predictedAnimals.WithLabelValues(string(labels[i])).Inc()
	}

	status := DatabaseSaved
	if err := s.animals.InsertAnimals(ctx, predictions, s.now()); err != nil {
		slog.Warn("unable to store predictions", "version_id", id, "error", err)
		status = DatabaseFailed
	}

	return PredictResult{VersionID: id, Predictions: predictions, DatabaseStatus: status}, nil
}

func (s *Service) ListModels(ctx context.Context) ([]string, error) {
	return s.store.ListVersions(ctx)
}

func (s *Service) ModelMetrics(ctx context.Context, versionID string) (artifacts.StoredMetrics, error) {
	return s.store.Metrics(ctx, versionID)
}

type StoredAnimal struct {
	types.LabeledRecord
	Timestamp time.Time
}

// Animals returns the stored animals between start and end inclusive, with
// the same defaults as TrainStored.
func (s *Service) Animals(ctx context.Context, start, end time.Time) ([]StoredAnimal, error) {
	now := s.now()
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.Add(-DefaultRange)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", types.ErrValidation, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	rows, err := s.animals.AnimalsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConnectivity, err)
	}

	out := make([]StoredAnimal, len(rows))
	for i, row := range rows {
		out[i] = StoredAnimal{LabeledRecord: row.Record(), Timestamp: row.Timestamp}
	}
	return out, nil
}

const (
	StatusOK    = "ok"
	StatusError = "error"
	Reachable   = "reachable"
)

type HealthReport struct {
	Status         string
	Minio          string
	PostgreSQL     string
	DataServiceAPI string
}

// Health checks each dependency once, concurrently, bounded by the health
// timeout.
func (s *Service) Health(ctx context.Context) HealthReport {
	type probe struct {
		check readiness.Check
		hint  string
		out   *string
	}

	report := HealthReport{Status: StatusOK}
	probes := []probe{
		{check: s.store.Ping, hint: "Is Minio running?", out: &report.Minio},
		{check: s.animals.Ping, hint: "Is PostgreSQL running?", out: &report.PostgreSQL},
		{check: s.generator.Ping, hint: "Is data service running?", out: &report.DataServiceAPI},
	}

	errs := make([]error, len(probes))
	done := make(chan int, len(probes))
	for i, p := range probes {
		go func() {
			errs[i] = readiness.Once(ctx, s.healthTimeout, p.check)
			done <- i
		}()
	}
	for range probes {
		<-done
	}

	for i, p := range probes {
		if errs[i] != nil {
			slog.Warn("health check failed", "dependency", p.hint, "error", errs[i])
			*p.out = "unreachable: " + p.hint
			report.Status = StatusError
			continue
		}
		*p.out = Reachable
	}

	return report
}
