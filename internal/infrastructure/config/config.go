package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Window struct {
	Name  string `toml:"name"`
	Start string `toml:"start"`
	End   string `toml:"end"`
}

type Account struct {
	Name string   `toml:"name"`
	Bots []string `toml:"bots"`
}

type Config struct {
	App struct {
		Debug                bool `toml:"debug"`
		GraceSeconds         int  `toml:"grace_seconds"`
		MaxRetries           int  `toml:"max_retries"`
		CheckIntervalSeconds int  `toml:"check_interval_seconds"`
	} `toml:"app"`

	HTTP struct {
		Addr string `toml:"addr"`
	} `toml:"http"`

	Session struct {
		Timezone    string   `toml:"timezone"`
		TradingDays []string `toml:"trading_days"`
		EODCheck    string   `toml:"eod_check"`
		Windows     []Window `toml:"windows"`
	} `toml:"session"`

	Bots struct {
		DefaultWebhook string            `toml:"default_webhook"`
		Webhooks       map[string]string `toml:"webhooks"`
	} `toml:"bots"`

	Accounts map[string]Account `toml:"accounts"`

	Storage struct {
		JSONLPath string `toml:"jsonl_path"`

		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`

		Redis struct {
			Enabled bool   `toml:"enabled"`
			Addr    string `toml:"addr"`
			Prefix  string `toml:"prefix"`
			Stream  string `toml:"stream"`
			Channel string `toml:"channel"`
		} `toml:"redis"`
	} `toml:"storage"`

	Telegram struct {
		Enabled  bool   `toml:"enabled"`
		BotToken string `toml:"bot_token"`
		ChatID   string `toml:"chat_id"`
	} `toml:"telegram"`

	Bridge struct {
		Enabled bool   `toml:"enabled"`
		WsURL   string `toml:"ws_url"`
		Account string `toml:"account"`
	} `toml:"bridge"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.GraceSeconds <= 0 {
		cfg.App.GraceSeconds = 30
	}
	if cfg.App.MaxRetries <= 0 {
		cfg.App.MaxRetries = 3
	}
	if cfg.App.CheckIntervalSeconds <= 0 {
		cfg.App.CheckIntervalSeconds = 60
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8090"
	}
	if strings.TrimSpace(cfg.Session.Timezone) == "" {
		cfg.Session.Timezone = "America/New_York"
	}
	if len(cfg.Session.TradingDays) == 0 {
		cfg.Session.TradingDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}
	}
	if strings.TrimSpace(cfg.Session.EODCheck) == "" {
		cfg.Session.EODCheck = "16:00"
	}
	if len(cfg.Session.Windows) == 0 {
		cfg.Session.Windows = []Window{
			{Name: "NY_AM", Start: "09:45", End: "11:00"},
			{Name: "NY_PM", Start: "13:45", End: "16:00"},
		}
	}
	if strings.TrimSpace(cfg.Storage.JSONLPath) == "" {
		cfg.Storage.JSONLPath = "logs/caretaker.jsonl"
	}
	if strings.TrimSpace(cfg.Storage.Redis.Prefix) == "" {
		cfg.Storage.Redis.Prefix = "caretaker"
	}
}

func validate(cfg *Config) error {
	for _, w := range cfg.Session.Windows {
		if strings.TrimSpace(w.Start) == "" || strings.TrimSpace(w.End) == "" {
			return fmt.Errorf("session window %q missing start or end", w.Name)
		}
	}
	if cfg.Storage.SQLite.Enabled && strings.TrimSpace(cfg.Storage.SQLite.Path) == "" {
		return errors.New("storage.sqlite.path empty but enabled")
	}
	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	if cfg.Telegram.Enabled && (cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id required when enabled")
	}
	if cfg.Bridge.Enabled && strings.TrimSpace(cfg.Bridge.WsURL) == "" {
		return errors.New("bridge.ws_url empty but enabled")
	}
	cfg.Bots.Webhooks = normalizeWebhooks(cfg.Bots.Webhooks)
	return nil
}

func normalizeWebhooks(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for bot, url := range in {
		b := strings.TrimSpace(bot)
		u := strings.TrimSpace(url)
		if b == "" || u == "" {
			continue
		}
		out[b] = u
	}
	return out
}

// AccountForBot resolves which broker account a bot trades on.
func (c *Config) AccountForBot(bot string) (string, bool) {
	for id, acct := range c.Accounts {
		for _, b := range acct.Bots {
			if b == bot {
				return id, true
			}
		}
	}
	return "", false
}
