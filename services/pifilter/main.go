package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/config"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/db"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/pipeline"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/utils"
)

const publishTimeout = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("pi filter failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cfg)
	if err != nil {
		return err
	}

	if cfg.DatabaseURL == "" {
		return nil
	}

	photons, err := utils.BuildPhotonRows(result.Table)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		log.Printf("dry-run: would publish obsID %d with %d photons", result.Summary.ObsID, len(photons))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.PublishRun(ctx, pool, result.Summary, photons); err != nil {
		return err
	}

	log.Printf("published obsID %d (%d photons)", result.Summary.ObsID, len(photons))
	return nil
}
