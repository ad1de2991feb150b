package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
	"unreadwatch/internal/badge"
	"unreadwatch/internal/bot"
	"unreadwatch/internal/control"
	"unreadwatch/internal/credential"
	"unreadwatch/internal/database"
	"unreadwatch/internal/domain"
	"unreadwatch/internal/feed"
	"unreadwatch/internal/monitor"
	"unreadwatch/internal/notify"
	"unreadwatch/internal/preferences"
	"unreadwatch/internal/scheduler"
	"unreadwatch/internal/sound"
	"unreadwatch/internal/summarizer"

	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
}

func (a *app) run(parent context.Context) error {
	cfg, log := a.cfg, a.log
	start := time.Now()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := control.Listen(cfg.ControlAddr)
	if err != nil {
		log.ErrorContext(ctx, "Failed to bind control address",
			"error", err,
			"controlAddr", cfg.ControlAddr)

		return err
	}

	trigger := monitor.TriggerStartup
	if _, statErr := os.Stat(cfg.DBPath); errors.Is(statErr, os.ErrNotExist) {
		trigger = monitor.TriggerInstall
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	prefsStore, err := preferences.Open(cfg.PreferencesPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open preferences",
			"error", err,
			"preferencesPath", cfg.PreferencesPath)

		return err
	}

	password, err := credential.ResolvePassword(cfg.FeedPassword)
	if err != nil {
		log.WarnContext(ctx, "Failed to read feed password from keyring",
			"error", err)
	}

	fetcher := feed.NewFetcher(feed.Options{
		Timeout:  cfg.FetchTimeout,
		CacheTTL: cfg.CacheTTL,
		Username: cfg.FeedUsername,
		Password: password,
	}, log)
	discoverer := feed.NewDiscoverer(fetcher, cfg.FeedURLTemplate, log)

	sched := scheduler.New(ctx, log)
	sched.Start()
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started")

	player := sound.Router{Bell: sound.Beep{}, File: sound.Command{Program: cfg.SoundCommand}}
	sounds := sound.NewDispatcher(player, sound.DefaultRetryDelay, log)
	defer sounds.Stop()

	iconPath := ""
	if cfg.IconDir != "" {
		iconPath = badge.IconPath(cfg.IconDir, badge.IconSizes[len(badge.IconSizes)-1])
	}
	notifiers := notify.Multi{notify.NewDesktop(iconPath)}

	deps := monitor.Deps{
		Fetcher:     fetcher,
		Discoverer:  discoverer,
		Store:       db,
		Preferences: prefsStore,
		Badge:       badge.NewPresenter(os.Stderr, cfg.IconDir, log),
		Timer:       sched,
		Sound:       sounds,
		MaxSlots:    cfg.MaxAccountSlots,
	}

	if s := a.initOpenAISummarizer(ctx); s != nil {
		deps.Summarizer = s
	}

	proxy := &monitorProxy{}

	var botInst *bot.Bot
	if cfg.TelegramToken != "" {
		botInst, err = bot.New(cfg.TelegramToken, cfg.TelegramChatID, proxy, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to initialize bot",
				"error", err,
				"chatID", cfg.TelegramChatID)

			return err
		}

		notifiers = append(notifiers, botInst)
	}

	deps.Notifier = notifiers
	mon := monitor.New(deps, log)
	proxy.mon.Store(mon)

	if botInst != nil {
		go botInst.Start(ctx)
	}

	if err = mon.Initialize(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to initialize monitor",
			"error", err)

		return err
	}

	prefsStore.Watch(func(domain.Preferences) {
		mon.RequestSettingsChanged()
	})

	go func() {
		if err := control.NewServer(mon, log).Serve(ctx, ln); err != nil {
			log.ErrorContext(ctx, "Control server stopped",
				"error", err)
		}
	}()

	mon.Fire(trigger)
	log.InfoContext(ctx, "Monitor is started",
		"trigger", string(trigger),
		"maxAccountSlots", cfg.MaxAccountSlots)

	mon.Run(ctx)

	log.Info("Shutdown signal is received")
	log.Info("Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

// monitorProxy lets the bot be built before the monitor it talks to.
type monitorProxy struct {
	mon atomic.Pointer[monitor.Monitor]
}

func (p *monitorProxy) RequestRefresh() {
	if mon := p.mon.Load(); mon != nil {
		mon.RequestRefresh()
	}
}

func (p *monitorProxy) Status(ctx context.Context) (domain.Status, error) {
	mon := p.mon.Load()
	if mon == nil {
		return domain.Status{}, errors.New("monitor is not ready")
	}

	return mon.Status(ctx)
}

func (a *app) initOpenAISummarizer(ctx context.Context) summarizer.Summarizer {
	if a.cfg.OpenAIAPIKey == "" {
		a.log.InfoContext(ctx, "OPENAI_API_KEY is missing so notifications list messages",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(a.cfg.OpenAIAPIKey)
	if err != nil {
		a.log.ErrorContext(ctx, "Failed to create OpenAI summarizer so messages will be listed",
			"error", fmt.Errorf("create summarizer: %w", err),
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	a.log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
