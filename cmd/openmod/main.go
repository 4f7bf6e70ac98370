package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/openmod/config"
	"github.com/spacesedan/openmod/internal/cache"
	"github.com/spacesedan/openmod/internal/capture"
	"github.com/spacesedan/openmod/internal/dedup"
	"github.com/spacesedan/openmod/internal/events"
	"github.com/spacesedan/openmod/internal/install"
	"github.com/spacesedan/openmod/internal/liveness"
	"github.com/spacesedan/openmod/internal/logging"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/pipeline"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/scheduler"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/transport"
)

const VERSION = "2.0.0"

// Cron cadences: the forward and drain jobs run every minute, the liveness
// sweep once a day at noon.
const (
	CRON_FORWARD_EVENTS = "* * * * *"
	CRON_PROCESS_QUEUE  = "* * * * *"
	CRON_SIGNS_OF_LIFE  = "0 12 * * *"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kv, err := connectStore()
	if err != nil {
		slog.Error("[Main] Failed to connect to the store",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer kv.Close()

	redditClient := reddit.NewHTTPClient(config.HomeSubreddit())
	ledger := dedup.NewLedger(kv)
	entityCache := cache.New(kv, redditClient)
	sched := scheduler.New()

	settings := func(ctx context.Context) models.AppSettings {
		return config.SettingsFromEnv()
	}

	installer := install.New(kv, redditClient, VERSION)
	if err := installer.Run(ctx); err != nil {
		slog.Error("[Main] Bootstrap failed",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	capt := capture.New(kv, ledger, redditClient, sched, settings)
	forwarder := transport.NewForwarder(kv, redditClient, settings, VERSION, config.HomeSubredditID())
	ingestor := transport.NewIngestor(kv, redditClient, config.AppAccount())
	pipe := pipeline.New(kv, redditClient, entityCache, ledger)
	sweeper := liveness.NewSweeper(kv, redditClient, entityCache, sched)

	registerCrons(sched, forwarder, pipe, sweeper)
	sched.Start()
	defer sched.Stop()

	consumer, err := connectConsumer()
	if err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer consumer.Close()

	handlers := events.Handlers{
		OnCommentEvent: capt.OnCommentChanged,
		OnPostEvent:    capt.OnPostChanged,
		OnDeleteEvent:  capt.OnThingDeleted,
		OnModAction: func(ctx context.Context, ev models.ModActionEvent) {
			capt.OnModAction(ctx, ev)
			// wikirevise notifications are the transport's delivery signal
			if err := ingestor.OnWikiRevision(ctx, ev); err != nil {
				slog.Error("[Main] Wiki revision ingestion failed",
					slog.String("error", err.Error()))
			}
		},
	}

	if err := events.Consume(ctx, consumer, handlers); err != nil && ctx.Err() == nil {
		slog.Error("[Main] Consumer stopped",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func connectStore() (*store.ValkeyStore, error) {
	useTLS, _ := strconv.ParseBool(os.Getenv("VALKEY_USE_TLS"))

	address := os.Getenv("VALKEY_ADDRESS")
	if address == "" {
		address = "localhost:6379"
	}

	return store.NewValkeyStore(store.ValkeyConfig{
		Address:  address,
		Password: os.Getenv("VALKEY_PASSWORD"),
		UseTLS:   useTLS,
	})
}

func connectConsumer() (consumer *kafka.Consumer, err error) {
	cfg := events.GetKafkaConfig()

	for attempt := 0; attempt < events.MAX_RETRIES; attempt++ {
		consumer, err = events.NewConsumer(cfg)
		if err == nil {
			return consumer, nil
		}
		slog.Warn("[Main] Kafka init failed, retrying...",
			slog.String("error", err.Error()))
		time.Sleep(5 * time.Second)
	}
	return nil, err
}

func registerCrons(sched *scheduler.CronScheduler, forwarder *transport.Forwarder, pipe *pipeline.Pipeline, sweeper *liveness.Sweeper) {
	jobs := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{CRON_FORWARD_EVENTS, "forward events", forwarder.OnForwardEvents},
		{CRON_PROCESS_QUEUE, "process queue", pipe.OnProcessQueue},
		{CRON_SIGNS_OF_LIFE, "check signs of life", sweeper.OnCheckSignsOfLife},
	}

	for _, job := range jobs {
		job := job
		err := sched.Cron(job.spec, func() {
			if err := job.run(context.Background()); err != nil {
				slog.Error("[Main] Scheduled job failed",
					slog.String("job", job.name),
					slog.String("error", err.Error()))
			}
		})
		if err != nil {
			slog.Error("[Main] Failed to register job",
				slog.String("job", job.name),
				slog.String("error", err.Error()))
		}
	}
}
