package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[app]
debug = true
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.App.Debug {
		t.Error("debug flag not read")
	}
	if cfg.App.GraceSeconds != 30 || cfg.App.MaxRetries != 3 || cfg.App.CheckIntervalSeconds != 60 {
		t.Errorf("app defaults wrong: %+v", cfg.App)
	}
	if cfg.HTTP.Addr != ":8090" {
		t.Errorf("addr default wrong: %s", cfg.HTTP.Addr)
	}
	if cfg.Session.Timezone != "America/New_York" {
		t.Errorf("timezone default wrong: %s", cfg.Session.Timezone)
	}
	if len(cfg.Session.TradingDays) != 5 {
		t.Errorf("trading days default wrong: %v", cfg.Session.TradingDays)
	}
	if len(cfg.Session.Windows) != 2 || cfg.Session.Windows[0].Name != "NY_AM" {
		t.Errorf("windows default wrong: %+v", cfg.Session.Windows)
	}
	if cfg.Session.EODCheck != "16:00" {
		t.Errorf("eod default wrong: %s", cfg.Session.EODCheck)
	}
	if cfg.Storage.JSONLPath != "logs/caretaker.jsonl" {
		t.Errorf("jsonl path default wrong: %s", cfg.Storage.JSONLPath)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[app]
grace_seconds = 45
max_retries = 5

[session]
timezone = "UTC"
trading_days = ["Mon", "Wed"]
eod_check = "17:30"

[[session.windows]]
name = "AM"
start = "09:00"
end = "12:00"

[bots]
default_webhook = "https://hooks.example.com/default"

[bots.webhooks]
"mnq-scalper" = "https://hooks.example.com/mnq"
" padded " = "  https://hooks.example.com/padded  "

[accounts.BOT-ALPHA]
name = "Alpha"
bots = ["mnq-scalper"]

[storage.sqlite]
enabled = true
path = "data/events.db"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.GraceSeconds != 45 || cfg.App.MaxRetries != 5 {
		t.Errorf("app overrides lost: %+v", cfg.App)
	}
	if len(cfg.Session.Windows) != 1 || cfg.Session.Windows[0].End != "12:00" {
		t.Errorf("windows not read: %+v", cfg.Session.Windows)
	}
	if cfg.Bots.Webhooks["mnq-scalper"] != "https://hooks.example.com/mnq" {
		t.Errorf("webhook map not read: %v", cfg.Bots.Webhooks)
	}
	if _, ok := cfg.Bots.Webhooks[" padded "]; ok {
		t.Error("webhook keys should be trimmed")
	}
	if cfg.Bots.Webhooks["padded"] != "https://hooks.example.com/padded" {
		t.Errorf("trimmed webhook missing: %v", cfg.Bots.Webhooks)
	}

	account, ok := cfg.AccountForBot("mnq-scalper")
	if !ok || account != "BOT-ALPHA" {
		t.Errorf("AccountForBot = %q, %v", account, ok)
	}
	if _, ok := cfg.AccountForBot("ghost"); ok {
		t.Error("unknown bot should not resolve")
	}
}

func TestValidateRejectsIncompleteSections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"sqlite enabled without path", "[storage.sqlite]\nenabled = true\n"},
		{"postgres enabled without dsn", "[storage.postgres]\nenabled = true\n"},
		{"redis enabled without addr", "[storage.redis]\nenabled = true\n"},
		{"telegram enabled without token", "[telegram]\nenabled = true\nchat_id = \"123\"\n"},
		{"bridge enabled without url", "[bridge]\nenabled = true\n"},
		{"window without end", "[[session.windows]]\nname = \"AM\"\nstart = \"09:00\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("missing file should error")
	}
}
