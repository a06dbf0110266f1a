package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"mpc-backend/cmd"
	"mpc-backend/internal/artifacts"
	"mpc-backend/internal/config"
	"mpc-backend/internal/core/dataprep"
	"mpc-backend/internal/core/training"
	"mpc-backend/internal/core/tree"

	"github.com/schollz/progressbar/v3"
)

func main() {
	datapoints := flag.Int("datapoints", 1000, "number of synthetic records to train on")
	seed := flag.Int64("seed", 42, "seed for the synthetic data")
	dryRun := flag.Bool("dry-run", false, "train and report metrics without saving the model")

	cmd.LoadEnvFile()

	cfg, err := config.Load[config.TrainConfig]()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	generator := cmd.NewGenerator(cfg.DataServiceURL, time.Minute)
	dataset, err := dataprep.NewPipeline(generator).FromGenerator(ctx, *seed, *datapoints)
	if err != nil {
		log.Fatalf("error preparing data: %v", err)
	}

	for _, group := range dataset.Reports {
		fmt.Printf("%-10s kept %5d of %5d\n", group.AnimalType, group.Kept, group.Original)
	}
	fmt.Printf("dropped %d unlabeled records\n", dataset.Dropped)

	trainerCfg := training.DefaultConfig()
	var bar *progressbar.ProgressBar
	trainerCfg.OnCandidate = func(tree.Params, float64) {
		_ = bar.Add(1)
	}
	trainer := training.NewTrainer(trainerCfg)
	bar = progressbar.Default(int64(trainer.NumCandidates()), "grid search")

	model, metrics, err := trainer.Train(ctx, dataset.Records)
	if err != nil {
		log.Fatalf("error training model: %v", err)
	}
	_ = bar.Finish()

	fmt.Printf("best params: %s (cv f1 %.4f)\n", model.Params, model.CVScore)
	fmt.Printf("accuracy %.4f precision %.4f recall %.4f f1 %.4f\n", metrics.Accuracy, metrics.Precision, metrics.Recall, metrics.F1Score)

	if *dryRun {
		return
	}

	objects, err := cmd.NewObjectStore(cfg.ObjectStoreConfig)
	if err != nil {
		log.Fatalf("error creating object store: %v", err)
	}

	id, err := artifacts.NewStore(objects, cfg.ModelBucketName).Save(ctx, model, &metrics)
	if err != nil {
		log.Fatalf("error saving model: %v", err)
	}
	fmt.Printf("saved model version %s\n", id)
}
