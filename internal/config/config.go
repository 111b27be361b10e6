// Package config loads Deco configuration from environment variables.
// Every knob has a default that matches the deployed tent setup, so a
// bare `deco serve` works on the Pi.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Vault    VaultConfig
	Detector DetectorConfig
}

type ServerConfig struct {
	Addr        string // listen address (default :8080)
	CORSOrigins string // allowed CORS origins (default *)
}

type DatabaseConfig struct {
	Path      string // SQLite database file (default deco.db)
	ImagesDir string // directory for stored person photos (default images)
}

type VaultConfig struct {
	MatchThreshold float64       // per-pose similarity an attempt must reach
	AddWindow      time.Duration // how long the lock stays open after adding an item
	TakeWindow     time.Duration // how long the lock stays open after an unlock
}

type DetectorConfig struct {
	ScriptPath string // landmark extractor script (default: discover under ~/.deco)
	PythonBin  string // python interpreter (default: discover venv)
	Mock       bool   // serve with the mock detector, no Python required
}

// ActuatorConfig drives the relay poll loop on the lock controller.
type ActuatorConfig struct {
	APIURL       string        // base URL of the Deco server
	PollInterval time.Duration // how often to poll /api/lock/state
	StaleAfter   time.Duration // relock after this long without a good poll
	RelayPath    string        // GPIO value file for the relay
	ActiveLow    bool          // relay energizes on 0 instead of 1
}

// envFloat reads an environment variable and parses it as a float in
// (0, 1]. Returns the default if unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a positive
// duration. Returns the default if unset, empty, or invalid.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString reads an environment variable with a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean. Returns the
// default if unset, empty, or invalid.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        envString("DECO_ADDR", ":8080"),
			CORSOrigins: envString("DECO_CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Path:      envString("DECO_DB_PATH", "deco.db"),
			ImagesDir: envString("DECO_IMAGES_DIR", "images"),
		},
		Vault: VaultConfig{
			MatchThreshold: envFloat("DECO_MATCH_THRESHOLD", 0.8),
			AddWindow:      envDuration("DECO_ADD_WINDOW", 30*time.Second),
			TakeWindow:     envDuration("DECO_TAKE_WINDOW", 30*time.Second),
		},
		Detector: DetectorConfig{
			ScriptPath: os.Getenv("DECO_DETECTOR_SCRIPT"),
			PythonBin:  os.Getenv("DECO_PYTHON_BIN"),
			Mock:       envBool("DECO_MOCK_DETECTOR", false),
		},
	}
}

// LoadActuator reads the actuator poll loop configuration.
func LoadActuator() *ActuatorConfig {
	return &ActuatorConfig{
		APIURL:       envString("DECO_API_URL", "http://localhost:8080"),
		PollInterval: envDuration("DECO_POLL_INTERVAL", time.Second),
		StaleAfter:   envDuration("DECO_STALE_AFTER", 5*time.Second),
		RelayPath:    envString("DECO_RELAY_PATH", "/sys/class/gpio/gpio17/value"),
		ActiveLow:    envBool("DECO_RELAY_ACTIVE_LOW", false),
	}
}
