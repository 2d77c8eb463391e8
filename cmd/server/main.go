package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	bindinghandler "relay/internal/binding/handler"
	bindingservice "relay/internal/binding/service"
	bindingstore "relay/internal/binding/store"
	configstorehandler "relay/internal/configstore/handler"
	configstoreservice "relay/internal/configstore/service"
	configstorestore "relay/internal/configstore/store"
	dispatchclients "relay/internal/dispatch/clients"
	dispatchconsumer "relay/internal/dispatch/consumer"
	dispatchhandler "relay/internal/dispatch/handler"
	dispatchservice "relay/internal/dispatch/service"
	dispatchstore "relay/internal/dispatch/store"
	"relay/internal/platform/config"
	"relay/internal/platform/database"
	"relay/internal/platform/health"
	"relay/internal/platform/kafka/consumer"
	"relay/internal/platform/kafka/producer"
	"relay/internal/platform/logger"
	"relay/internal/platform/metrics"
	"relay/internal/platform/redis"
	"relay/migrations"
	"relay/pkg/platform/middleware/auth"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing relay",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"channel", cfg.Pipeline.Channel,
	)

	m := metrics.New()

	pool, err := database.New(cfg.Database)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	rds, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}

	// Stores fall back to in-memory when postgres is not configured, which
	// keeps local development free of infrastructure.
	var (
		configStore  configstorestore.Store
		bindingStore bindingstore.Store
		logStore     dispatchservice.LogStore
	)
	if pool != nil {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrations.Apply(migrateCtx, pool.DB()); err != nil {
			cancel()
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		cancel()

		configStore = configstorestore.NewPostgres(pool.DB())
		bindingStore = bindingstore.NewPostgres(pool.DB())
		logStore = dispatchstore.NewPostgres(pool.DB(), log)
	} else {
		log.Warn("postgres not configured, using in-memory stores")
		configStore = configstorestore.NewMemory()
		bindingStore = bindingstore.NewMemory()
		logStore = dispatchstore.NewMemory()
	}
	if !cfg.Pipeline.DispatchLogEnabled {
		logStore = dispatchstore.NewNoop()
	}

	configSvc := configstoreservice.NewService(configStore, log)

	bindingOpts := []bindingservice.Option{bindingservice.WithMetrics(m)}
	if rds != nil {
		bindingOpts = append(bindingOpts, bindingservice.WithCache(rds, cfg.Redis.ResolveTTL))
	}
	bindingSvc := bindingservice.NewService(bindingStore, log, bindingOpts...)

	novuClient := dispatchclients.NewNovuClient(cfg.Novu.BaseURL, cfg.Novu.APIKey, log)
	userClient := dispatchclients.NewUserClient(cfg.User.Host, cfg.User.SearchPath, log)
	preferenceClient := dispatchclients.NewPreferenceClient(
		cfg.Preference.Host, cfg.Preference.CheckPath,
		cfg.Pipeline.PreferenceEnabled, cfg.Pipeline.PreferenceCode, cfg.Pipeline.Channel, log)
	bindingAdapter := dispatchclients.NewBindingAdapter(bindingSvc)

	dispatchSvc := dispatchservice.NewService(
		userClient, preferenceClient, bindingAdapter, novuClient, logStore,
		cfg.Pipeline.Channel, cfg.Pipeline.DefaultLocale, log,
		dispatchservice.WithMetrics(m),
	)

	healthHandler := health.New(cfg.Server.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}
	if rds != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rds.Health(ctx)
		})
	}

	validator := auth.NewValidator(cfg.Server.JWTSigningKey)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(validator, log))
		configstorehandler.New(configSvc, log, m).Register(r)
		bindinghandler.New(bindingSvc, log, m).Register(r)
		dispatchhandler.New(dispatchSvc, log, m).Register(r)
	})

	// The dead-letter producer degrades to a no-op without brokers so the
	// HTTP surface still comes up in isolation.
	var dlq dispatchconsumer.DLQPublisher
	var kafkaProducer *producer.Producer
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err = producer.New(producer.Config{Brokers: cfg.Kafka.Brokers}, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		dlq = kafkaProducer
	} else {
		log.Warn("kafka not configured, events arrive over HTTP only")
		dlq = producer.NewNoopProducer(log)
	}

	var kafkaConsumer *consumer.Consumer
	if cfg.Kafka.Brokers != "" {
		eventHandler := dispatchconsumer.NewEventHandler(dispatchSvc, dlq, cfg.Kafka.DLQTopic, log,
			dispatchconsumer.WithMetrics(m))
		kafkaConsumer, err = consumer.New(consumer.Config{
			Brokers:         cfg.Kafka.Brokers,
			GroupID:         cfg.Kafka.GroupID,
			AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
		}, eventHandler, log)
		if err != nil {
			log.Error("kafka consumer init failed", "error", err)
			os.Exit(1)
		}
		if err := kafkaConsumer.Subscribe([]string{cfg.Kafka.InputTopic, cfg.Kafka.RetryTopic}); err != nil {
			log.Error("kafka subscribe failed", "error", err)
			os.Exit(1)
		}
		healthHandler.RegisterCheck("kafka", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if !kafkaConsumer.Healthy(ctx) {
				return errors.New("consumer has no partition assignments")
			}
			return nil
		})
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if kafkaConsumer != nil {
		kafkaConsumer.Start()
		log.Info("kafka consumer started",
			"topics", []string{cfg.Kafka.InputTopic, cfg.Kafka.RetryTopic},
			"group_id", cfg.Kafka.GroupID,
		)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if kafkaConsumer != nil {
			if err := kafkaConsumer.Stop(shutdownCtx); err != nil {
				log.Error("kafka consumer stop failed", "error", err)
			}
		}
		if kafkaProducer != nil {
			if err := kafkaProducer.Close(); err != nil {
				log.Error("kafka producer close failed", "error", err)
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if rds != nil {
			if err := rds.Close(); err != nil {
				log.Error("redis close failed", "error", err)
			}
		}
		if err := pool.Close(); err != nil {
			log.Error("database close failed", "error", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
