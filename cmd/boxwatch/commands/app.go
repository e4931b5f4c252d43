package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"boxwatch/internal/cache"
	"boxwatch/internal/components/chrono"
	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/daemon"
	"boxwatch/internal/feed"
	"boxwatch/internal/fighters"
	"boxwatch/internal/notify"
	"boxwatch/internal/operator"
	"boxwatch/internal/scrapers/boxrec"
	"boxwatch/internal/tracker"
	"boxwatch/pkg/serviceutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// app is everything a tracking command needs, wired from the config.
type app struct {
	otel     telemetry.Telemetry
	client   *boxrec.Client
	telegram *notify.Telegram
	daemon   *daemon.Daemon
}

func newNotifier(cfg Config, clock chrono.API, tel telemetry.API) (tracker.Notifier, *notify.Telegram, error) {
	notifiers := notify.Multi{notify.NewLog(os.Stdout)}

	var telegram *notify.Telegram
	if cfg.Telegram.Token != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return nil, nil, fmt.Errorf("connect telegram bot: %w", err)
		}
		slog.Info("telegram bot authorized", "account", bot.Self.UserName)
		telegram = notify.NewTelegram(bot, cfg.Telegram.Chats, clock, tel)
		notifiers = append(notifiers, telegram)
	}
	if cfg.Email.Smtp.Server != "" {
		notifiers = append(notifiers, notify.NewEmail(cfg.Email.Smtp, cfg.Email.To))
	}
	return notifiers, telegram, nil
}

func setupApp(ctx context.Context) *app {
	cfg, err := loadConfig(configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	otel, err := telemetry.Setup(ctx, "boxwatch", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	var tel telemetry.API = telemetry.SlogAPI{}
	if cfg.Telemetry.Enabled() {
		tel = telemetry.NewMeteredAPI(tel)
		telemetry.InstrumentPerfStats(ctx, tel)
	}

	state, err := cache.Load(cfg.Tracker.CacheDir)
	if err != nil {
		serviceutil.Fatal("failed to load cache", err)
	}
	slog.Info(
		"loaded cache",
		"dir", cfg.Tracker.CacheDir,
		"fighters", state.Fighters.Len(),
		"matchups", len(state.Matchups),
	)

	clock := chrono.NewStandardImpl()
	term := operator.NewTerminal(os.Stdin, os.Stdout, cfg.Boxrec.Username, cfg.Boxrec.Password)
	client, err := boxrec.NewClient(boxrec.ClientOptions{
		BaseUrl:      cfg.Boxrec.BaseUrl,
		RequestDelay: cfg.RequestDelay(),
		Credentials:  term,
		Chooser:      term,
		Captcha:      term,
		Time:         clock,
		Tel:          tel,
	})
	if err != nil {
		serviceutil.Fatal("failed to create boxrec client", err)
	}

	notifier, telegram, err := newNotifier(cfg, clock, tel)
	if err != nil {
		serviceutil.Fatal("failed to setup notifiers", err)
	}

	t := tracker.New(
		state,
		fighters.NewResolver(client, !cfg.Boxrec.AllFighters, tel),
		client,
		notifier,
		tracker.Options{
			NotifyThreshold:  *cfg.Tracker.NotifyThreshold,
			WarningThreshold: *cfg.Tracker.WarningThreshold,
		},
		tel,
	)

	var source daemon.Feed = feed.Static{}
	if cfg.Feed.Path != "" {
		source = feed.NewFileFeed(cfg.Feed.Path, tel)
	} else {
		slog.Warn("no feed configured, only cached matchups will be tracked")
	}

	opts := daemon.Options{
		CacheDir:     cfg.Tracker.CacheDir,
		RecheckDelay: cfg.RecheckDelay(),
	}
	if telegram != nil {
		opts.StatusRequests = telegram.StatusRequests()
	}

	return &app{
		otel:     otel,
		client:   client,
		telegram: telegram,
		daemon:   daemon.New(source, t, opts, clock, tel),
	}
}

// login signs in up front so credential prompts happen before anything
// else is printed.
func (a *app) login(ctx context.Context) {
	err := a.client.Login(ctx)
	if err != nil {
		serviceutil.Fatal("failed to login to boxrec", err)
	}
}

func (a *app) shutdown() {
	err := a.otel.Shutdown(context.Background())
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
}
