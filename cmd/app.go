package cmd

import (
	"errors"
	"fmt"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/config"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/harvest"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/httpclient"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/lock"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/metrics"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/stac"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg          *config.Config
	log          logger.Logger
	store        storage.ObjectStore
	metrics      *metrics.Metrics
	runLock      *lock.Lock
	orchestrator *harvest.Orchestrator
	closers      []func() error
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Service.Debug = true
	}
	return cfg, nil
}

// newApp wires the harvester. A dry run publishes into memory.
func newApp(dryRun bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log = log.With(logger.String("service", cfg.Service.Name))

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	if dryRun || cfg.Storage.Driver == config.DriverMemory {
		log.Info("Using in-memory object store", logger.Bool("dry_run", dryRun))
		a.store = storage.NewMemoryStore()
	} else {
		a.store, err = storage.NewMinioStore(cfg.Storage.Minio(), log)
		if err != nil {
			return nil, fmt.Errorf("create object store: %w", err)
		}
	}

	httpClient := httpclient.New(cfg.Stac.HTTPClient("stac-to-geocore/" + Version))
	catalog := stac.NewClient(cfg.Stac.APIRoot, stac.WithHTTPClient(httpClient))

	options := []harvest.Option{harvest.WithRecorder(a.metrics)}
	if cfg.Lock.Enabled && !dryRun {
		client, lockErr := lock.NewClient(lock.Config{
			Address:  cfg.Lock.RedisAddress,
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
		})
		if lockErr != nil {
			return nil, fmt.Errorf("create run lock: %w", lockErr)
		}
		a.closers = append(a.closers, client.Close)
		a.runLock = lock.New(client, cfg.Lock.Key, cfg.Lock.TTL)
		options = append(options, harvest.WithLocker(a.runLock))
	}

	a.orchestrator = harvest.New(
		catalog,
		a.store,
		cfg.Harvest.Settings(),
		harvest.Options{
			OutputBucket:    cfg.Storage.OutputBucket,
			RunLogBucket:    cfg.Storage.RunLogBucket,
			RunLogKey:       cfg.Storage.RunLogKey,
			ItemSource:      harvest.ItemSource(cfg.Stac.ItemSource),
			PageErrorPolicy: harvest.PageErrorPolicy(cfg.Stac.PageErrorPolicy),
			SweepOrphans:    cfg.Harvest.SweepOrphans,
		},
		log,
		options...,
	)

	log.Info("Harvester configured",
		logger.String("api_root", cfg.Stac.APIRoot),
		logger.String("source", cfg.Harvest.Source),
		logger.String("output_bucket", cfg.Storage.OutputBucket),
		logger.String("runlog", cfg.Storage.RunLogBucket+"/"+cfg.Storage.RunLogKey),
	)

	return a, nil
}

// close releases the app resources in reverse order.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
