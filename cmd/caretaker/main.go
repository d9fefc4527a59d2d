package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"caretaker/internal/application/port"
	"caretaker/internal/application/usecase/caretaker"
	"caretaker/internal/domain/service"
	"caretaker/internal/infrastructure/bridge"
	"caretaker/internal/infrastructure/config"
	"caretaker/internal/infrastructure/logger"
	"caretaker/internal/infrastructure/notify"
	"caretaker/internal/infrastructure/storage/composite"
	"caretaker/internal/infrastructure/storage/jsonl"
	"caretaker/internal/infrastructure/storage/postgres"
	storageredis "caretaker/internal/infrastructure/storage/redis"
	"caretaker/internal/infrastructure/storage/sqlite"
	"caretaker/internal/infrastructure/traderspost"
	"caretaker/internal/interfaces/httpapi"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup(false)
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	windows := make([]service.WindowConfig, 0, len(cfg.Session.Windows))
	for _, w := range cfg.Session.Windows {
		windows = append(windows, service.WindowConfig{Name: w.Name, Start: w.Start, End: w.End})
	}
	session, err := service.NewSessionClock(
		cfg.Session.Timezone,
		service.ParseWeekdays(cfg.Session.TradingDays),
		windows,
		cfg.Session.EODCheck,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("session clock setup failed")
	}

	// audit trail backends
	var repos []port.Repository
	fileRepo, err := jsonl.New(cfg.Storage.JSONLPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.JSONLPath).Msg("audit log init failed")
	}
	repos = append(repos, fileRepo)

	if cfg.Storage.SQLite.Enabled {
		sq, err := sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Storage.SQLite.Path).Msg("sqlite init failed")
		}
		repos = append(repos, sq)
	}
	if cfg.Storage.Postgres.Enabled {
		pg, err := postgres.New(cfg.Storage.Postgres.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres init failed")
		}
		repos = append(repos, pg)
	}
	if cfg.Storage.Redis.Enabled {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Storage.Redis.Addr})
		repos = append(repos, storageredis.New(rdb, cfg.Storage.Redis.Prefix, cfg.Storage.Redis.Stream, cfg.Storage.Redis.Channel))
	}

	repo := composite.New(repos...)
	defer repo.Close()

	sink := traderspost.New(cfg.Bots.Webhooks, cfg.Bots.DefaultWebhook)

	var alerter port.Alerter = notify.NewLogAlerter()
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramAlerter(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram setup failed")
		}
		alerter = tg
	}

	var feeds []port.PositionFeed
	if cfg.Bridge.Enabled {
		feeds = append(feeds, bridge.NewFeed(cfg.Bridge.WsURL, cfg.Bridge.Account))
	} else {
		log.Warn().Msg("bridge feed disabled; expecting position pushes over HTTP")
	}

	svc := caretaker.NewService(caretaker.Deps{
		Repo:          repo,
		Sink:          sink,
		Alerter:       alerter,
		Session:       session,
		Feeds:         feeds,
		GracePeriod:   time.Duration(cfg.App.GraceSeconds) * time.Second,
		MaxRetries:    cfg.App.MaxRetries,
		CheckInterval: time.Duration(cfg.App.CheckIntervalSeconds) * time.Second,
	})

	api := httpapi.NewServer(svc, cfg.Accounts)
	httpSrv := &http.Server{Addr: cfg.HTTP.Addr, Handler: api.Handler()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server exited")
			stop()
		}
	}()

	log.Info().
		Str("config", *configPath).
		Str("addr", cfg.HTTP.Addr).
		Int("bots", len(cfg.Bots.Webhooks)).
		Int("accounts", len(cfg.Accounts)).
		Bool("telegram", cfg.Telegram.Enabled).
		Bool("bridge", cfg.Bridge.Enabled).
		Msg("caretaker started")

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("caretaker service exited")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
