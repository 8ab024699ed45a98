package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/database"
	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/realtime"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/router"
	"github.com/iliyamo/bus-seat-reservation/internal/scheduler"
	"github.com/iliyamo/bus-seat-reservation/internal/seatlock"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// vehicleStore is what startup seeding and the services need from the
// vehicle backend.
type vehicleStore interface {
	service.VehicleDirectory
	UpsertVehicle(ctx context.Context, v model.Vehicle) error
}

func main() {
	logger := log.New("bus-seat")
	logger.SetLevel(log.INFO)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, vehicles, db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal(err)
	}
	if db != nil {
		defer db.Close()
	}
	if err := seedVehicles(ctx, vehicles, cfg.VehiclesFile); err != nil {
		logger.Fatal(err)
	}

	// A nil *redis.Client must not end up inside the interface.
	var rdb redis.UniversalClient
	if c := config.NewRedisClient(); c != nil {
		rdb = c
		defer c.Close()
	} else {
		logger.Warn("redis unavailable: rate limiting, caching, seat guard and live updates disabled")
	}

	var publishers service.Publishers
	var hub *realtime.Hub
	if rdb != nil {
		hub = realtime.NewHub(rdb, "", log.New("realtime"))
		publishers = append(publishers, hub)
	}
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.AMQPURL, log.New("rabbitmq"))
		defer pub.Close()
		publishers = append(publishers, pub)

		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.BookingLogPath, log.New("booking-consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("booking consumer stopped: %v", err)
			}
		}()
	}

	clk := clock.NewSystem(cfg.Location)
	writerOpts := []service.WriterOption{service.WithWriterLogger(log.New("writer"))}
	lifecycleOpts := []service.LifecycleOption{service.WithLifecycleLogger(log.New("lifecycle"))}
	if len(publishers) > 0 {
		writerOpts = append(writerOpts, service.WithPublisher(publishers))
		lifecycleOpts = append(lifecycleOpts, service.WithLifecyclePublisher(publishers))
	}
	if cfg.SeatLockEnabled && rdb != nil {
		writerOpts = append(writerOpts, service.WithSeatGuard(seatlock.New(rdb, cfg.SeatLockTTL, "")))
	}
	writer := service.NewWriter(store, vehicles, clk, writerOpts...)
	lifecycle := service.NewLifecycle(store, clk, lifecycleOpts...)

	jobs, err := scheduler.New(scheduler.Config{
		Location:       cfg.Location,
		CompleteHour:   cfg.CompleteHour,
		CompleteMinute: cfg.CompleteMinute,
		ReconcileEvery: cfg.ReconcileEvery,
		JobTimeout:     time.Minute,
	}, service.NewReconciler(store, lifecycle, log.New("reconcile")), log.New("scheduler"))
	if err != nil {
		logger.Fatal(err)
	}
	jobs.Start()
	defer func() {
		if err := jobs.Shutdown(); err != nil {
			logger.Warnf("scheduler shutdown: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())

	router.Register(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Redis:        rdb,
		RateLimit:    config.LoadRateLimitConfig(),
		Cache:        config.LoadCacheConfig(),
		Seats:        handler.NewSeatHandler(vehicles, service.NewAvailability(store), hub),
		Reservations: handler.NewReservationHandler(writer, lifecycle),
		Operator:     handler.NewOperatorHandler(vehicles, lifecycle),
		Admin:        handler.NewAdminHandler(lifecycle),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s, store=%s, tz=%s)", addr, cfg.Env, cfg.Store, cfg.Location)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
}

// openStore returns the reservation and vehicle backends chosen by STORE.
// db is nil for the memory store.
func openStore(ctx context.Context, cfg config.Config) (service.ReservationStore, vehicleStore, *sql.DB, error) {
	if cfg.Store == config.StoreMemory {
		mem := repository.NewMemoryStore()
		return mem, mem, nil, nil
	}
	db, err := database.Open(database.Options{
		User:     cfg.DBUser,
		Pass:     cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return repository.NewReservationRepo(db), repository.NewVehicleRepo(db), db, nil
}

// seedVehicles upserts the JSON array of vehicles in path.  An empty path
// seeds nothing.
func seedVehicles(ctx context.Context, vs vehicleStore, path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read vehicles file: %w", err)
	}
	var list []model.Vehicle
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("parse vehicles file: %w", err)
	}
	for _, v := range list {
		if err := vs.UpsertVehicle(ctx, v); err != nil {
			return fmt.Errorf("seed vehicle %s: %w", v.ID, err)
		}
	}
	return nil
}
