// main wires high-level dependencies: the row store, the Kafka consumers,
// the unread-count aggregation, and the manager API. Business logic lives in
// the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"minesykmeldte/internal/ingest"
	"minesykmeldte/internal/jwttoken"
	"minesykmeldte/internal/minesykmeldte"
	"minesykmeldte/internal/minesykmeldte/handler"
	"minesykmeldte/internal/person"
	"minesykmeldte/internal/platform/config"
	"minesykmeldte/internal/platform/database"
	"minesykmeldte/internal/platform/httpserver"
	"minesykmeldte/internal/platform/kafka/admin"
	"minesykmeldte/internal/platform/kafka/consumer"
	"minesykmeldte/internal/platform/kafka/producer"
	"minesykmeldte/internal/platform/logger"
	"minesykmeldte/internal/platform/metrics"
	"minesykmeldte/internal/platform/redis"
	"minesykmeldte/internal/readcount"
	"minesykmeldte/internal/store/postgres"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("minesykmeldte-backend exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	m := metrics.New()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	st := postgres.New(db)

	var resolver person.Resolver = person.NewClient(cfg.PersonregisterURL)
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		resolver = person.NewCachedResolver(resolver, redisClient, cfg.PersonCacheTTL, log)
	}

	if cfg.IsDev() {
		topicCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := admin.EnsureTopics(topicCtx, cfg.KafkaBrokers,
			cfg.Topics.Narmesteleder,
			cfg.Topics.SendtSykmelding,
			cfg.Topics.Soknad,
			cfg.Topics.Hendelser,
			cfg.Topics.UnreadCounts,
			cfg.Topics.NlRequest,
		)
		cancel()
		if err != nil {
			log.Warn("ensure topics failed, continuing", "error", err)
		}
	}

	prod, err := producer.New(cfg.KafkaBrokers)
	if err != nil {
		return err
	}
	defer prod.Close()

	readcounts := readcount.New(st, st, prod, cfg.Topics.UnreadCounts, m, log)

	consumers := []*consumer.Consumer{
		newConsumer(cfg, cfg.Topics.Narmesteleder, ingest.NewNarmestelederHandler(st, log), log, m),
		newConsumer(cfg, cfg.Topics.SendtSykmelding, ingest.NewSykmeldingHandler(st, st, resolver, readcounts, log, cfg.IsDev()), log, m),
		newConsumer(cfg, cfg.Topics.Soknad, ingest.NewSoknadHandler(st, readcounts, log), log, m),
		newConsumer(cfg, cfg.Topics.Hendelser, ingest.NewHendelseHandler(st, st, st, readcounts, m, log), log, m),
	}

	viewService := minesykmeldte.New(st, st, st, st, st, prod, cfg.Topics.NlRequest, log)
	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := chi.NewRouter()
	handler.New(viewService, log, m, tokens).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/internal/is_alive", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/internal/is_ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		g.Go(func() error { return c.Run(gctx) })
	}
	g.Go(func() error {
		log.Info("starting minesykmeldte-backend", "addr", cfg.Addr, "cluster", cfg.Cluster)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newConsumer builds one single-threaded poll loop for one topic. Keeping
// one loop per topic preserves in-order processing within the topic.
func newConsumer(cfg config.Config, topic string, h consumer.Handler, log *slog.Logger, m *metrics.Metrics) *consumer.Consumer {
	return consumer.New(consumer.Config{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topics:  []string{topic},
	}, h, log, m)
}
