// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for the journal database, always absolute
	ScenarioConfigPath string // TOML scenario document; empty uses the built-in scenarios
	LogLevel           string
	MetricsNamespace   string
	Port               int
	DevMode            bool

	Watchdog WatchdogConfig
	Engine   EngineConfig
}

// WatchdogConfig controls the stale-tick reset and journal maintenance jobs
type WatchdogConfig struct {
	Schedule           string
	CheckpointSchedule string
	StaleAfter         time.Duration
	Enabled            bool
}

// EngineConfig holds the decision thresholds that can be tuned from the environment
type EngineConfig struct {
	// MinQualityScore overrides the scenario document's quality floor when > 0
	MinQualityScore     float64
	MinConfidence       float64
	MilestoneStepPoints float64
	MaxStopLossPoints   float64
	TotalTargetPoints   float64
	BlockNearLevel      bool
	BlockRoundFigure    bool
}

// DefaultRiskManagement returns the exit parameters used when a scenario declares none
func (e EngineConfig) DefaultRiskManagement() domain.RiskManagement {
	return domain.RiskManagement{
		MilestonePoints:   e.MilestoneStepPoints,
		MaxStopLossPoints: e.MaxStopLossPoints,
		TotalTargetPoints: e.TotalTargetPoints,
	}
}

// JournalPath returns the journal database location
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		ScenarioConfigPath: getEnv("SCENARIO_CONFIG_PATH", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "option_scalper"),
		Port:               getEnvAsInt("GO_PORT", 8001),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		Watchdog: WatchdogConfig{
			Schedule:           getEnv("WATCHDOG_SCHEDULE", "@every 30s"),
			CheckpointSchedule: getEnv("JOURNAL_CHECKPOINT_SCHEDULE", "@every 10m"),
			StaleAfter:         getEnvAsDuration("WATCHDOG_STALE_AFTER", 5*time.Minute),
			Enabled:            getEnvAsBool("WATCHDOG_ENABLED", true),
		},
		Engine: EngineConfig{
			MinQualityScore:     getEnvAsFloat("MIN_QUALITY_SCORE", 0),
			MinConfidence:       getEnvAsFloat("MIN_CONFIDENCE", 6),
			MilestoneStepPoints: getEnvAsFloat("MILESTONE_STEP_POINTS", 5),
			MaxStopLossPoints:   getEnvAsFloat("MAX_STOP_LOSS_POINTS", 0),
			TotalTargetPoints:   getEnvAsFloat("TOTAL_TARGET_POINTS", 0),
			BlockNearLevel:      getEnvAsBool("BLOCK_NEAR_LEVEL", false),
			BlockRoundFigure:    getEnvAsBool("BLOCK_ROUND_FIGURE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Watchdog.StaleAfter <= 0 {
		return fmt.Errorf("WATCHDOG_STALE_AFTER must be positive, got %s", c.Watchdog.StaleAfter)
	}
	if c.Engine.MinConfidence < 0 || c.Engine.MinConfidence > 10 {
		return fmt.Errorf("MIN_CONFIDENCE must be within [0, 10], got %v", c.Engine.MinConfidence)
	}
	if c.Engine.MinQualityScore < 0 || c.Engine.MinQualityScore > 10 {
		return fmt.Errorf("MIN_QUALITY_SCORE must be within [0, 10], got %v", c.Engine.MinQualityScore)
	}
	if c.Engine.MilestoneStepPoints < 0 || c.Engine.MaxStopLossPoints < 0 || c.Engine.TotalTargetPoints < 0 {
		return fmt.Errorf("risk management points must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
