package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// SchedulingConfig holds the knobs of the availability engine.
type SchedulingConfig struct {
	WorkStart            string  `yaml:"work_start"`             // "HH:MM"
	WorkEnd              string  `yaml:"work_end"`               // "HH:MM"
	SlotIncrementMinutes int     `yaml:"slot_increment_minutes"` // candidate slot granularity
	DefaultDurationHours float64 `yaml:"default_duration_hours"`
	LowPowerThresholdKW  float64 `yaml:"low_power_threshold_kw"` // cutoff for the efficient-slot shortlist
	PowerTieWindowKW     float64 `yaml:"power_tie_window_kw"`    // slots closer than this count as power-tied
	PeakSpikeThreshold   float64 `yaml:"peak_spike_threshold"`   // spike % above which an available slot is annotated
}

// OptimizerConfig holds the knobs of the multi-slot optimizer.
type OptimizerConfig struct {
	// BaseLoadCurve is the synthetic power floor per hour of day, kW.
	// Leave empty to use the built-in curve.
	BaseLoadCurve        []float64 `yaml:"base_load_curve"`
	PreferredDiscount    float64   `yaml:"preferred_discount"`     // multiplier applied inside preferred windows
	MaxDailyCapacityKWH  float64   `yaml:"max_daily_capacity_kwh"` // denominator for capacity utilization
	DefaultBudgetKW      float64   `yaml:"default_budget_kw"`
	EfficiencyThreshold  float64   `yaml:"efficiency_threshold"` // kW reference in the slot score formula
	BudgetOverrunPercent float64   `yaml:"budget_overrun_percent"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// defaultBaseLoadCurve is the built-in 24-hour base load: low overnight,
// moderate morning, higher during working hours, tapering evening.
var defaultBaseLoadCurve = []float64{
	0.5, 0.5, 0.5, 0.5, 0.5, 0.8, // 00-05
	1.2, 1.8, 2.5, 3.0, 3.2, 3.2, // 06-11
	3.0, 3.2, 3.5, 3.5, 3.2, 2.8, // 12-17
	2.2, 1.8, 1.5, 1.0, 0.8, 0.6, // 18-23
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults backfills zero-valued fields with defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Scheduling.WorkStart == "" {
		cfg.Scheduling.WorkStart = "08:00"
	}
	if cfg.Scheduling.WorkEnd == "" {
		cfg.Scheduling.WorkEnd = "18:00"
	}
	if cfg.Scheduling.SlotIncrementMinutes <= 0 {
		cfg.Scheduling.SlotIncrementMinutes = 30
	}
	if cfg.Scheduling.DefaultDurationHours <= 0 {
		cfg.Scheduling.DefaultDurationHours = 2
	}
	if cfg.Scheduling.LowPowerThresholdKW <= 0 {
		cfg.Scheduling.LowPowerThresholdKW = 3.0
	}
	if cfg.Scheduling.PowerTieWindowKW <= 0 {
		cfg.Scheduling.PowerTieWindowKW = 0.5
	}
	if cfg.Scheduling.PeakSpikeThreshold <= 0 {
		cfg.Scheduling.PeakSpikeThreshold = 50
	}

	if len(cfg.Optimizer.BaseLoadCurve) != 24 {
		if len(cfg.Optimizer.BaseLoadCurve) != 0 {
			log.Printf("optimizer.base_load_curve must have 24 entries, got %d; using built-in curve", len(cfg.Optimizer.BaseLoadCurve))
		}
		cfg.Optimizer.BaseLoadCurve = defaultBaseLoadCurve
	}
	if cfg.Optimizer.PreferredDiscount <= 0 || cfg.Optimizer.PreferredDiscount > 1 {
		cfg.Optimizer.PreferredDiscount = 0.8
	}
	if cfg.Optimizer.MaxDailyCapacityKWH <= 0 {
		cfg.Optimizer.MaxDailyCapacityKWH = 500
	}
	if cfg.Optimizer.DefaultBudgetKW <= 0 {
		cfg.Optimizer.DefaultBudgetKW = 10
	}
	if cfg.Optimizer.EfficiencyThreshold <= 0 {
		cfg.Optimizer.EfficiencyThreshold = 5
	}
	if cfg.Optimizer.BudgetOverrunPercent <= 0 {
		cfg.Optimizer.BudgetOverrunPercent = 20
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
