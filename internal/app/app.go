package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/emoticon-bot/internal/config"
	"github.com/haytac/emoticon-bot/internal/database"
	"github.com/haytac/emoticon-bot/internal/emoticon"
	"github.com/haytac/emoticon-bot/internal/formatter"
	"github.com/haytac/emoticon-bot/internal/llm"
	"github.com/haytac/emoticon-bot/internal/logging"
	"github.com/haytac/emoticon-bot/internal/metrics"
	"github.com/haytac/emoticon-bot/internal/proxy"
	"github.com/haytac/emoticon-bot/internal/scheduler"
	"github.com/haytac/emoticon-bot/internal/telegram"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// Listener yields inbound chat messages until ctx ends.
type Listener interface {
	Listen(ctx context.Context) (<-chan telegram.Incoming, error)
}

// Application holds all dependencies for the bot.
type Application struct {
	Config     *config.AppConfig
	DB         *database.DB
	Deliveries *database.DeliveryStore
	Plugin     *emoticon.Plugin
	Worker     *ChatWorker
	Scheduler  *scheduler.Scheduler
	Listener   Listener
}

// BuildPlugin creates and loads the emoticon plugin described by cfg. recorder may be nil.
func BuildPlugin(cfg *config.AppConfig, recorder interfaces.DeliveryRecorder) (*emoticon.Plugin, error) {
	syntax, err := emoticon.ParseSyntax(cfg.MarkerSyntax)
	if err != nil {
		return nil, err
	}
	policy, err := emoticon.ParsePolicy(cfg.ResponsePolicy)
	if err != nil {
		return nil, err
	}
	repair, err := emoticon.ParseRepairPolicy(cfg.RepairPolicy)
	if err != nil {
		return nil, err
	}

	plugin, err := emoticon.New(emoticon.Options{
		ImagesDir:      cfg.ImagesDir,
		SettingsPath:   cfg.SettingsPath,
		Syntax:         syntax,
		SingleEmoticon: cfg.SingleEmoticon,
		ResponsePolicy: policy,
		RepairPolicy:   repair,
		PromptTemplate: cfg.PromptTemplate,
		Recorder:       recorder,
		Logger:         logging.Component("emoticon"),
	})
	if err != nil {
		return nil, err
	}
	if err := plugin.Load(); err != nil {
		return nil, fmt.Errorf("loading emoticon catalog: %w", err)
	}
	return plugin, nil
}

// NewApplication creates and initializes a new application instance.
func NewApplication(cfg *config.AppConfig) (*Application, error) {
	var (
		db         *database.DB
		deliveries *database.DeliveryStore
		recorder   interfaces.DeliveryRecorder
	)
	if cfg.DatabasePath != "" {
		var err error
		db, err = database.Connect(cfg.DatabasePath, true)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deliveries = database.NewDeliveryStore(db)
		recorder = deliveries
	} else {
		log.Warn().Msg("No database_path configured, delivery history is disabled")
	}

	plugin, err := BuildPlugin(cfg, recorder)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	httpClientFactory := proxy.NewHTTPClientFactory(0)
	var proxyCfg *config.ProxyConfig
	if cfg.Telegram.Proxy.Enabled() {
		proxyCfg = &cfg.Telegram.Proxy
	}
	completer, err := llm.NewClient(cfg.LLM, httpClientFactory, proxyCfg)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to create chat model client: %w", err)
	}

	tgClient := telegram.NewClient(cfg.Telegram, httpClientFactory, formatter.NewTextFormatter(cfg.RenderEmojiShortcodes))
	var sender interfaces.Sender = tgClient
	if cfg.DryRun {
		log.Warn().Msg("Dry run enabled, replies are logged instead of sent")
		sender = NewLogSender(logging.Component("dry_run"))
	}

	worker := NewChatWorker(plugin, completer, sender, NewHistory(cfg.HistoryTurns), cfg.SystemPrompt, logging.Component("worker"))

	return &Application{
		Config:     cfg,
		DB:         db,
		Deliveries: deliveries,
		Plugin:     plugin,
		Worker:     worker,
		Scheduler:  scheduler.New(),
		Listener:   tgClient,
	}, nil
}

func closeDB(db *database.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}
}

// ScheduleJobs registers the periodic catalog rescan and history pruning jobs.
func (app *Application) ScheduleJobs() error {
	if app.Config.RescanIntervalSeconds > 0 {
		err := app.Scheduler.Add(scheduler.Job{
			Name:     "catalog_rescan",
			Interval: time.Duration(app.Config.RescanIntervalSeconds) * time.Second,
			Run: func(context.Context) {
				if err := app.Plugin.Reload(); err != nil {
					log.Error().Err(err).Msg("Scheduled catalog rescan failed")
				}
			},
		})
		if err != nil {
			return err
		}
	}
	if app.Deliveries != nil && app.Config.HistoryRetentionDays > 0 {
		retention := time.Duration(app.Config.HistoryRetentionDays) * 24 * time.Hour
		err := app.Scheduler.Add(scheduler.Job{
			Name:     "history_prune",
			Interval: time.Hour,
			Run: func(ctx context.Context) {
				removed, err := app.Deliveries.PruneBefore(ctx, time.Now().Add(-retention))
				if err != nil {
					log.Error().Err(err).Msg("Failed to prune delivery history")
					return
				}
				if removed > 0 {
					log.Info().Int64("removed", removed).Msg("Pruned delivery history")
				}
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Serve dispatches messages from in to the worker, at most limit at a time, until in
// closes. It waits for in-flight messages before returning.
func (app *Application) Serve(ctx context.Context, in <-chan telegram.Incoming, limit int) {
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for msg := range in {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}
		wg.Add(1)
		go func(msg telegram.Incoming) {
			defer wg.Done()
			defer func() { <-sem }()
			app.Worker.HandleMessage(ctx, msg)
		}(msg)
	}
	wg.Wait()
}

// Run starts the metrics server, scheduler and update loop, and blocks until SIGINT,
// SIGTERM or ctx cancellation. SIGHUP rescans the catalog.
func (app *Application) Run(ctx context.Context) error {
	log.Info().Msg("Starting application...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.StartServer(ctx, app.Config.MetricsPort)

	if err := app.ScheduleJobs(); err != nil {
		return fmt.Errorf("scheduling jobs: %w", err)
	}
	app.Scheduler.Start(ctx)

	updates, err := app.Listener.Listen(ctx)
	if err != nil {
		app.Scheduler.Stop()
		return fmt.Errorf("starting Telegram listener: %w", err)
	}
	served := make(chan struct{})
	go func() {
		defer close(served)
		app.Serve(ctx, updates, app.Config.MaxConcurrentChats)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

loop:
	for {
		select {
		case s := <-sigCh:
			if s == syscall.SIGHUP {
				log.Info().Msg("Received SIGHUP, rescanning emoticon catalog")
				if err := app.Plugin.Reload(); err != nil {
					log.Error().Err(err).Msg("Catalog rescan failed")
				}
				continue
			}
			log.Info().Str("signal", s.String()).Msg("Received shutdown signal")
			break loop
		case <-ctx.Done():
			log.Info().Msg("Application context done, shutting down")
			break loop
		case <-served:
			log.Warn().Msg("Update stream closed, shutting down")
			break loop
		}
	}

	cancel()
	<-served

	log.Info().Msg("Shutting down scheduler...")
	app.Scheduler.Stop()

	log.Info().Msg("Closing database connection...")
	closeDB(app.DB)

	log.Info().Msg("Application shut down gracefully.")
	return nil
}
