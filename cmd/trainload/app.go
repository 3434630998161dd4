package main

import (
	"context"
	"fmt"
	"net"

	"github.com/2beens/trainload/internal/cache"
	"github.com/2beens/trainload/internal/config"
	"github.com/2beens/trainload/internal/db"
	"github.com/2beens/trainload/internal/gymstats/deload"
	"github.com/2beens/trainload/internal/gymstats/loadadjust"
	"github.com/2beens/trainload/internal/gymstats/memstore"
	"github.com/2beens/trainload/internal/gymstats/periodization"
	"github.com/2beens/trainload/internal/gymstats/progression"
	"github.com/2beens/trainload/internal/gymstats/repo"
	"github.com/2beens/trainload/internal/gymstats/stats"
	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/lock"
	"github.com/2beens/trainload/internal/telemetry/metrics"
	"github.com/2beens/trainload/internal/telemetry/tracing"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

// store is everything the engines need from a history backend.
type store interface {
	training.HistoryReader
	training.SessionWriter
	training.DeloadStore
	training.MesocycleStore
}

type appParams struct {
	Config           *config.Config
	StoreKind        string
	RedisPassword    string
	HoneycombEnabled bool
}

// app holds the wired components for a single CLI invocation.
type app struct {
	store    store
	reader   *cache.ExerciseCache
	engine   *progression.Engine
	detector *deload.Detector
	planner  *periodization.Planner
	combiner *loadadjust.Combiner
	stats    *stats.Exercises
	registry *prometheus.Registry
	closers  []func()
}

func newApp(ctx context.Context, params appParams) (_ *app, err error) {
	cfg := params.Config
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var collectors []prometheus.Collector
	switch params.StoreKind {
	case storeMemory:
		a.store = memstore.New()
	case storePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: params.HoneycombEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		a.closers = append(a.closers, dbPool.Close)
		a.store = repo.NewRepo(dbPool)
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	default:
		return nil, training.NewValidationError("store", "unknown store %q", params.StoreKind)
	}

	a.registry = metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("trainload", "cli", a.registry)

	var (
		guard lock.Guard = lock.NewLocalGuard()
		rdb   *redis.Client
	)
	if cfg.RedisHost != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis client: %s", err)
			}
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Errorf("--> failed to ping redis, using in-process guard: %s", err)
		} else {
			guard = lock.NewRedisGuard(rdb, cfg.RedisLockTTL.Duration)
		}
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombEnabled, "trainload-cli", rdb)
	if err != nil {
		return nil, fmt.Errorf("honeycomb setup: %w", err)
	}
	a.closers = append(a.closers, otelShutdown)

	progressionConfig, err := newProgressionConfig(cfg.Progression)
	if err != nil {
		return nil, err
	}

	a.reader = cache.NewExerciseCache(a.store, cfg.CacheSizeBytes, cfg.CacheTTL.Duration)
	a.engine = progression.NewEngine(a.reader, progressionConfig, metricsManager)
	a.detector = deload.NewDetector(deload.DetectorParams{
		Reader: a.reader,
		Store:  a.store,
		Guard:  guard,
		Config: deload.Config{
			LookbackWeeks:       cfg.Deload.LookbackWeeks,
			PlateauWindowWeeks:  cfg.Deload.PlateauWindowWeeks,
			ConfidenceThreshold: cfg.Deload.ConfidenceThreshold,
			Tolerance:           cfg.Progression.WeightTolerance,
		},
		Metrics: metricsManager,
	})
	a.planner = periodization.NewPlanner(periodization.PlannerParams{
		Store: a.store,
		Guard: guard,
		Config: periodization.Config{
			MinWeeks: cfg.Periodization.MinWeeks,
			MaxWeeks: cfg.Periodization.MaxWeeks,
		},
		Metrics: metricsManager,
	})
	a.combiner = loadadjust.NewCombiner(a.planner, a.detector, a.engine)
	a.stats = stats.NewExercisesStats(a.reader)

	return a, nil
}

func newProgressionConfig(c config.ProgressionConfig) (progression.Config, error) {
	increments, err := progression.IncrementTableFromConfig(c.Increments)
	if err != nil {
		return progression.Config{}, fmt.Errorf("progression increments: %w", err)
	}
	return progression.Config{
		SessionsLookback:   c.SessionsLookback,
		DefaultTargetReps:  c.DefaultTargetReps,
		LargeMissThreshold: c.LargeMissThreshold,
		Tolerance:          c.WeightTolerance,
		Increments:         increments,
	}, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.reader != nil {
		log.Debugf("exercise cache hit rate: %.2f", a.reader.HitRate())
	}
}
