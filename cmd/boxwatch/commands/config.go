package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/notify"
	"boxwatch/pkg/configutil"
)

type BoxrecConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// RequestDelayMs is the minimum time between two requests to boxrec.
	RequestDelayMs *int `json:"request_delay_ms"`
	// AllFighters includes retired fighters in searches.
	AllFighters bool `json:"all_fighters"`
}

type TrackerConfig struct {
	CacheDir            string   `json:"cache_dir"`
	NotifyThreshold     *float64 `json:"notify_threshold"`
	WarningThreshold    *float64 `json:"warning_threshold"`
	RecheckDelayMinutes int      `json:"recheck_delay_minutes"`
}

type FeedConfig struct {
	Path string `json:"path"`
}

type TelegramConfig struct {
	Token string  `json:"token"`
	Chats []int64 `json:"chats"`
}

type EmailConfig struct {
	Smtp notify.SmtpConfig `json:"smtp"`
	To   []string          `json:"to"`
}

type Config struct {
	Boxrec    BoxrecConfig     `json:"boxrec"`
	Tracker   TrackerConfig    `json:"tracker"`
	Feed      FeedConfig       `json:"feed"`
	Telegram  TelegramConfig   `json:"telegram"`
	Email     EmailConfig      `json:"email"`
	Telemetry telemetry.Config `json:"telemetry"`
}

const (
	defaultCacheDir            = "./.cache"
	defaultRequestDelayMs      = 500
	defaultNotifyThreshold     = 15
	defaultWarningThreshold    = 2
	defaultRecheckDelayMinutes = 60
)

func (c Config) withDefaults() Config {
	if c.Tracker.CacheDir == "" {
		c.Tracker.CacheDir = defaultCacheDir
	}
	if c.Boxrec.RequestDelayMs == nil {
		v := defaultRequestDelayMs
		c.Boxrec.RequestDelayMs = &v
	}
	if c.Tracker.NotifyThreshold == nil {
		v := float64(defaultNotifyThreshold)
		c.Tracker.NotifyThreshold = &v
	}
	if c.Tracker.WarningThreshold == nil {
		v := float64(defaultWarningThreshold)
		c.Tracker.WarningThreshold = &v
	}
	if c.Tracker.RecheckDelayMinutes == 0 {
		c.Tracker.RecheckDelayMinutes = defaultRecheckDelayMinutes
	}
	return c
}

func (c Config) Validate() error {
	var errs []error
	if *c.Tracker.NotifyThreshold < 0 || *c.Tracker.NotifyThreshold > 100 {
		errs = append(errs, fmt.Errorf("tracker.notify_threshold must be within 0..100, got %v", *c.Tracker.NotifyThreshold))
	}
	if *c.Tracker.WarningThreshold < 0 {
		errs = append(errs, fmt.Errorf("tracker.warning_threshold must not be negative, got %v", *c.Tracker.WarningThreshold))
	}
	if *c.Boxrec.RequestDelayMs < 0 {
		errs = append(errs, fmt.Errorf("boxrec.request_delay_ms must not be negative, got %d", *c.Boxrec.RequestDelayMs))
	}
	if c.Tracker.RecheckDelayMinutes < 0 {
		errs = append(errs, fmt.Errorf("tracker.recheck_delay_minutes must not be negative, got %d", c.Tracker.RecheckDelayMinutes))
	}
	if c.Email.Smtp.Server != "" && c.Email.Smtp.EmailAddress == "" {
		errs = append(errs, errors.New("email.smtp.email_address is required when email.smtp.server is set"))
	}
	return errors.Join(errs...)
}

func (c Config) RequestDelay() time.Duration {
	return time.Duration(*c.Boxrec.RequestDelayMs) * time.Millisecond
}

func (c Config) RecheckDelay() time.Duration {
	return time.Duration(c.Tracker.RecheckDelayMinutes) * time.Minute
}

// loadConfig reads the config at path, a missing config is not an error and
// gives the defaults.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no config file found, using defaults", "path", path)
		err = nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.withDefaults()
	return cfg, cfg.Validate()
}
