package config

import (
	"testing"
	"time"
)

// setBaseEnv provides the minimum valid environment for webhook mode.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("GROUP_ID", "-100500")
	t.Setenv("WEBHOOK_URL", "https://relay.example/webhook")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != TransportWebhook {
		t.Fatalf("Transport = %q, want webhook", cfg.Transport)
	}
	if cfg.GroupID != -100500 {
		t.Fatalf("GroupID = %d, want -100500", cfg.GroupID)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.DBPath != "userdata.db" {
		t.Fatalf("DBPath = %q, want userdata.db", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout = %v, want 15s", cfg.ReadTimeout)
	}
}

func TestLoad_RequiresToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BOT_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing BOT_TOKEN")
	}
}

func TestLoad_RequiresGroupID(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GROUP_ID", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing GROUP_ID")
	}
}

func TestLoad_WebhookModeRequiresSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WEBHOOK_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing WEBHOOK_SECRET")
	}
}

func TestLoad_PollModeNeedsNoWebhook(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("GROUP_ID", "-100500")
	t.Setenv("TRANSPORT", "poll")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != TransportPoll {
		t.Fatalf("Transport = %q, want poll", cfg.Transport)
	}
}

func TestLoad_RejectsUnknownTransport(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TRANSPORT", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown TRANSPORT")
	}
}

func TestLoad_NormalizesWarning(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LOG_LEVEL", "WARNING")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_RejectsBadSampleRatio(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for sample ratio out of range")
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("GROUP_ID", "")
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad did not panic")
		}
	}()
	MustLoad()
}
