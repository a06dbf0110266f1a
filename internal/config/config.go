package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

type ObjectStoreConfig struct {
	// Artifacts are written to LocalArtifactDir when no endpoint is set.
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	ModelBucketName   string `env:"MODEL_BUCKET_NAME" envDefault:"mpc"`
	LocalArtifactDir  string `env:"LOCAL_ARTIFACT_DIR" envDefault:"./artifacts"`
}

func (c ObjectStoreConfig) UseS3() bool {
	return c.S3EndpointURL != ""
}

type APIConfig struct {
	ObjectStoreConfig

	DatabaseURL    string `env:"DATABASE_URL,notEmpty,required"`
	DataServiceURL string `env:"DATA_SERVICE_URL" envDefault:"http://data-service:8777"`
	APIPort        string `env:"API_PORT" envDefault:"8000"`
	// AllowedOrigins is a comma separated list for CORS.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	ModelCacheSize        int           `env:"MODEL_CACHE_SIZE" envDefault:"10"`
	TrainingWorkers       int           `env:"TRAINING_WORKERS" envDefault:"0"`
	PostgresReadyAttempts int           `env:"POSTGRES_READY_ATTEMPTS" envDefault:"10"`
	PostgresReadyDelay    time.Duration `env:"POSTGRES_READY_DELAY" envDefault:"2s"`
	HealthCheckTimeout    time.Duration `env:"HEALTH_CHECK_TIMEOUT" envDefault:"5s"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10m"`
}

type DataServiceConfig struct {
	Port string `env:"DATA_SERVICE_PORT" envDefault:"8777"`
}

type TrainConfig struct {
	ObjectStoreConfig

	DataServiceURL string `env:"DATA_SERVICE_URL"`
}

func Load[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

func (c ObjectStoreConfig) Validate() {
	if c.UseS3() && (c.S3AccessKeyID == "" || c.S3SecretAccessKey == "") {
		log.Println("Warning: S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing.")
	}
}
