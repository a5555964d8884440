// Package config handles monitor configuration
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/patgov/audiomon/internal/classify"
	"github.com/patgov/audiomon/internal/monitor"
	"github.com/patgov/audiomon/internal/watchdog"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	HTTPAddr string `yaml:"http_addr" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	NATSURL  string `yaml:"nats_url" validate:"omitempty,url"`

	PinSystemDefault bool     `yaml:"pin_system_default"`
	LastSelectedUID  string   `yaml:"last_selected_uid"`
	ExcludedDevices  []string `yaml:"excluded_devices"`
	PollIntervalMs   int      `yaml:"poll_interval_ms" validate:"gte=100,lte=60000"`
	LevelRateHz      int      `yaml:"level_rate_hz" validate:"gte=1,lte=200"`

	Classifier ClassifierConfig `yaml:"classifier"`
	Watchdog   WatchdogConfig   `yaml:"watchdog"`
	Recovery   RecoveryConfig   `yaml:"recovery"`
}

// ClassifierConfig exposes the headline signal-shaping tunables. The full
// set of heuristic constants stays in the classify package; these are the
// ones worth adjusting per install.
type ClassifierConfig struct {
	DisplayIdleCeilingDB  float64 `yaml:"display_idle_ceiling_db" validate:"gte=-120,lte=0"`
	NoiseFloorLearnFrames int     `yaml:"noise_floor_learn_frames" validate:"gte=1,lte=10000"`
	MaxSlewDBPerFrame     float64 `yaml:"max_slew_db_per_frame" validate:"gt=0,lte=120"`
}

type WatchdogConfig struct {
	LowSignalDB            float64 `yaml:"low_signal_db" validate:"gte=-120,lte=0"`
	DeadSilenceMinRun      int     `yaml:"dead_silence_min_run" validate:"gte=1,lte=100000"`
	MinRecoveryIntervalSec float64 `yaml:"min_recovery_interval_sec" validate:"gt=0,lte=3600"`
	BluetoothGraceSec      float64 `yaml:"bluetooth_grace_sec" validate:"gte=0,lte=60"`
}

type RecoveryConfig struct {
	RetargetDebounceMs int     `yaml:"retarget_debounce_ms" validate:"gte=10,lte=5000"`
	SilenceFallbackSec float64 `yaml:"silence_fallback_sec" validate:"gt=0,lte=300"`
	MaxStartAttempts   int     `yaml:"max_start_attempts" validate:"gte=1,lte=20"`
}

// Default returns a configuration mirroring the built-in tunables, so an
// untouched config file changes nothing.
func Default() *Config {
	cp := classify.DefaultParams()
	wp := watchdog.DefaultParams()
	mp := monitor.DefaultParams()

	return &Config{
		HTTPAddr:       ":8000",
		LogLevel:       "info",
		PollIntervalMs: 2000,
		LevelRateHz:    25,
		Classifier: ClassifierConfig{
			DisplayIdleCeilingDB:  cp.DisplayIdleCeilingDB,
			NoiseFloorLearnFrames: cp.NoiseFloorLearnFrames,
			MaxSlewDBPerFrame:     cp.MaxSlewDBPerFrame,
		},
		Watchdog: WatchdogConfig{
			LowSignalDB:            wp.LowSignalDB,
			DeadSilenceMinRun:      wp.DeadSilenceMinRun,
			MinRecoveryIntervalSec: wp.MinRecoveryInterval.Seconds(),
			BluetoothGraceSec:      wp.BluetoothGrace.Seconds(),
		},
		Recovery: RecoveryConfig{
			RetargetDebounceMs: int(mp.RetargetDebounce / time.Millisecond),
			SilenceFallbackSec: mp.SilenceFallbackAfter.Seconds(),
			MaxStartAttempts:   mp.MaxStartAttempts,
		},
	}
}

// Load builds the configuration: defaults, then the yaml file (if path is
// non-empty), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.PinSystemDefault = getEnvBool("PIN_SYSTEM_DEFAULT", c.PinSystemDefault)
	c.LastSelectedUID = getEnv("LAST_SELECTED_UID", c.LastSelectedUID)
	c.ExcludedDevices = getEnvList("EXCLUDED_DEVICES", c.ExcludedDevices)
	c.PollIntervalMs = getEnvInt("POLL_INTERVAL_MS", c.PollIntervalMs)
	c.LevelRateHz = getEnvInt("LEVEL_RATE_HZ", c.LevelRateHz)
}

// ClassifierParams overlays the configured values on the defaults.
func (c *Config) ClassifierParams() classify.Params {
	p := classify.DefaultParams()
	p.DisplayIdleCeilingDB = c.Classifier.DisplayIdleCeilingDB
	p.NoiseFloorLearnFrames = c.Classifier.NoiseFloorLearnFrames
	p.MaxSlewDBPerFrame = c.Classifier.MaxSlewDBPerFrame
	return p
}

// WatchdogParams overlays the configured values on the defaults.
func (c *Config) WatchdogParams() watchdog.Params {
	p := watchdog.DefaultParams()
	p.LowSignalDB = c.Watchdog.LowSignalDB
	p.DeadSilenceMinRun = c.Watchdog.DeadSilenceMinRun
	p.MinRecoveryInterval = time.Duration(c.Watchdog.MinRecoveryIntervalSec * float64(time.Second))
	p.BluetoothGrace = time.Duration(c.Watchdog.BluetoothGraceSec * float64(time.Second))
	return p
}

// MonitorParams overlays the configured values on the defaults.
func (c *Config) MonitorParams() monitor.Params {
	p := monitor.DefaultParams()
	p.RetargetDebounce = time.Duration(c.Recovery.RetargetDebounceMs) * time.Millisecond
	p.SilenceFallbackAfter = time.Duration(c.Recovery.SilenceFallbackSec * float64(time.Second))
	p.MaxStartAttempts = c.Recovery.MaxStartAttempts
	return p
}

// PollInterval returns the registry watcher cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
