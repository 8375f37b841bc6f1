package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/subosito/gotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Spok95/smeta-bot/internal/api"
	"github.com/Spok95/smeta-bot/internal/bot"
	"github.com/Spok95/smeta-bot/internal/config"
	"github.com/Spok95/smeta-bot/internal/dialog"
	"github.com/Spok95/smeta-bot/internal/domain/backup"
	"github.com/Spok95/smeta-bot/internal/domain/documents"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/finance"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/domain/notes"
	"github.com/Spok95/smeta-bot/internal/domain/photos"
	"github.com/Spok95/smeta-bot/internal/domain/profile"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/domain/scratchpad"
	"github.com/Spok95/smeta-bot/internal/domain/settings"
	"github.com/Spok95/smeta-bot/internal/domain/stages"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
	"github.com/Spok95/smeta-bot/internal/infra/ai"
	"github.com/Spok95/smeta-bot/internal/infra/db"
	httpx "github.com/Spok95/smeta-bot/internal/infra/http"
	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/Spok95/smeta-bot/internal/infra/logger"
	"github.com/Spok95/smeta-bot/internal/infra/mailer"
	"github.com/Spok95/smeta-bot/internal/infra/metrics"
	"github.com/Spok95/smeta-bot/internal/infra/pdf"
	"github.com/Spok95/smeta-bot/internal/infra/webapp"
	"github.com/Spok95/smeta-bot/migrations"
)

// openStore выбирает хранилище документов; closer освобождает соединения.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (kv.Store, io.Closer, error) {
	st := cfg.Storage
	switch st.Driver {
	case "postgres":
		if st.Postgres.Migrate {
			if err := migrations.Up(st.Postgres.DSN); err != nil {
				return nil, nil, err
			}
			log.Info("migrations applied")
		}
		pool, err := db.Connect(ctx, st.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewPostgres(pool), closerFunc(func() error { pool.Close(); return nil }), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: st.Redis.Addr, Password: st.Redis.Password, DB: st.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis: ping: %w", err)
		}
		return kv.NewRedis(client, st.Redis.Prefix), client, nil
	case "sqlite":
		s, err := kv.OpenSQLite(st.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		log.Warn("in-memory storage: data is lost on restart")
		return kv.NewMemory(), closerFunc(func() error { return nil }), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func main() {
	path := flag.String("config", "config/example.yaml", "path to config file")
	flag.Parse()

	// .env необязателен
	_ = gotenv.Load()

	cfg, err := config.Load(*path)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.App.Env)
	// даты смет и сроки задач считаются в часовом поясе мастера
	time.Local = cfg.Location()
	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
	log.Info("graceful shutdown complete")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	docs := kv.NewDocs(store, log)
	docs.CountErrors(m)

	estimates := estimate.NewStore(docs, log)
	estimates.CountMigrations(m)
	estimates.CountSaves(m)

	svc := bot.Services{
		Estimates: estimates,
		Projects:  projects.NewService(docs),
		Finance:   finance.NewService(docs),
		Stages:    stages.NewService(docs),
		Notes:     notes.NewService(docs),
		Tasks:     tasks.NewService(docs),
		Inventory: inventory.NewService(docs),
		Scratch:   scratchpad.NewService(docs),
		Library:   library.NewService(docs),
		Profile:   profile.NewService(docs),
		Settings:  settings.NewService(docs),
		Backup:    backup.NewService(docs),
		Links:     webapp.NewLinks(cfg.WebApp.URL),
		Metrics:   m,
	}
	photoSvc := photos.NewService(docs)
	docSvc := documents.NewService(docs)
	svc.Projects.OnDelete(
		estimates.RemoveProject,
		svc.Finance.RemoveProject,
		photoSvc.RemoveProject,
		docSvc.RemoveProject,
		svc.Stages.RemoveProject,
		svc.Notes.RemoveProject,
	)

	if svc.PDF, err = pdf.New(cfg.PDF.FontPath, cfg.PDF.BoldFontPath); err != nil {
		return err
	}
	if cfg.PDF.FontPath == "" {
		log.Warn("pdf: no font configured, Cyrillic may render incorrectly")
	}
	svc.Mailer = mailer.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	if svc.AI, err = ai.New(ctx, cfg.AI.APIKey, cfg.AI.Model); err != nil {
		return err
	}
	log.Info("adapters", "mail", svc.Mailer.Enabled(), "ai", svc.AI.Enabled(), "webapp", svc.Links.Enabled())

	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	tg.Debug = cfg.Telegram.Debug
	log.Info("authorized", "bot", tg.Self.UserName)

	h := api.New(api.Deps{
		Log:       log,
		Auth:      webapp.NewValidator(cfg.Telegram.Token, cfg.WebApp.InitMaxAge),
		Docs:      docs,
		Estimates: estimates,
		Projects:  svc.Projects,
		Finance:   svc.Finance,
		Photos:    photoSvc,
		Documents: docSvc,
		Stages:    svc.Stages,
		Notes:     svc.Notes,
		Tasks:     svc.Tasks,
		Inventory: svc.Inventory,
		Scratch:   svc.Scratch,
		Library:   svc.Library,
		Profile:   svc.Profile,
		Settings:  svc.Settings,
		Backup:    svc.Backup,
		PDF:       svc.PDF,
		Mailer:    svc.Mailer,
		AI:        svc.AI,
		Metrics:   m,
	})
	srv := httpx.New(httpx.Options{
		Addr:       cfg.HTTP.Addr,
		RateLimit:  cfg.HTTP.RateLimit,
		Production: cfg.App.Env == "prod",
		Metrics:    m,
		Mount:      h.Routes,
		Log:        log,
	})

	b := bot.New(tg, log, dialog.NewRepo(docs), svc, cfg.Telegram.RatePerSecond)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := tg.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server started", "addr", cfg.HTTP.Addr)
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		tg.StopReceivingUpdates()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		err := b.Run(gctx, updates)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
