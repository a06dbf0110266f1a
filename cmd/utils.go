package cmd

import (
	"flag"
	"fmt"
	"log"
	"time"

	"mpc-backend/internal/config"
	"mpc-backend/internal/datagen"
	"mpc-backend/internal/lifecycle"
	"mpc-backend/internal/storage"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// NewObjectStore returns an S3 store when an endpoint is configured and a
// local directory store otherwise.
func NewObjectStore(cfg config.ObjectStoreConfig) (storage.ObjectStore, error) {
	cfg.Validate()

	if cfg.UseS3() {
		log.Printf("using s3 object store at %s", cfg.S3EndpointURL)
		return storage.NewS3ObjectStore(storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	}

	log.Printf("using local object store at %s", cfg.LocalArtifactDir)
	store, err := storage.NewLocalObjectStore(cfg.LocalArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("error creating local object store: %w", err)
	}
	return store, nil
}

// NewGenerator returns a client for the data service at url, or the in
// process generator if url is empty.
func NewGenerator(url string, timeout time.Duration) lifecycle.Generator {
	if url == "" {
		log.Printf("no data service configured, generating data in process")
		return datagen.NewGenerator()
	}
	return datagen.NewClient(url, timeout)
}
