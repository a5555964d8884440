package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patgov/audiomon/internal/watchdog"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"HTTP_ADDR", "LOG_LEVEL", "NATS_URL", "PIN_SYSTEM_DEFAULT",
		"LAST_SELECTED_UID", "EXCLUDED_DEVICES", "POLL_INTERVAL_MS",
		"LEVEL_RATE_HZ",
	} {
		os.Unsetenv(v)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LevelRateHz != 25 {
		t.Errorf("LevelRateHz = %d, want 25", cfg.LevelRateHz)
	}

	// Untouched config must reproduce the built-in tunables exactly.
	wd := watchdog.DefaultParams()
	if got := cfg.WatchdogParams(); got != wd {
		t.Errorf("WatchdogParams = %+v, want defaults %+v", got, wd)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9001")
	t.Setenv("PIN_SYSTEM_DEFAULT", "true")
	t.Setenv("EXCLUDED_DEVICES", "blackhole, teams ,")
	t.Setenv("LEVEL_RATE_HZ", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9001" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9001")
	}
	if !cfg.PinSystemDefault {
		t.Error("PinSystemDefault not overridden")
	}
	if len(cfg.ExcludedDevices) != 2 || cfg.ExcludedDevices[0] != "blackhole" || cfg.ExcludedDevices[1] != "teams" {
		t.Errorf("ExcludedDevices = %v", cfg.ExcludedDevices)
	}
	if cfg.LevelRateHz != 10 {
		t.Errorf("LevelRateHz = %d, want 10", cfg.LevelRateHz)
	}
}

func TestYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "audiomon.yaml")
	body := `
http_addr: ":8800"
log_level: debug
watchdog:
  low_signal_db: -60
  dead_silence_min_run: 200
  min_recovery_interval_sec: 5
  bluetooth_grace_sec: 2
recovery:
  retarget_debounce_ms: 500
  silence_fallback_sec: 8
  max_start_attempts: 4
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8800" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}

	wd := cfg.WatchdogParams()
	if wd.LowSignalDB != -60 {
		t.Errorf("LowSignalDB = %v, want -60", wd.LowSignalDB)
	}
	if wd.DeadSilenceMinRun != 200 {
		t.Errorf("DeadSilenceMinRun = %v, want 200", wd.DeadSilenceMinRun)
	}
	if wd.MinRecoveryInterval != 5*time.Second {
		t.Errorf("MinRecoveryInterval = %v", wd.MinRecoveryInterval)
	}

	mp := cfg.MonitorParams()
	if mp.RetargetDebounce != 500*time.Millisecond {
		t.Errorf("RetargetDebounce = %v", mp.RetargetDebounce)
	}
	if mp.MaxStartAttempts != 4 {
		t.Errorf("MaxStartAttempts = %d", mp.MaxStartAttempts)
	}
}

func TestValidationRejectsBadValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "audiomon.yaml")
	body := `
log_level: loud
watchdog:
  low_signal_db: 10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for bad log level and positive dB threshold")
	}
}

func TestMissingFileIsAnError(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
