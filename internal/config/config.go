package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	ListenAddr string

	// DatabaseURL selects the store: a postgres:// URL, or a SQLite
	// file path. Empty means <DataDir>/business_data.db.
	DatabaseURL string

	// DataDir is where the generator writes raw CSVs (under <DataDir>/raw)
	// and where the default SQLite database lives.
	DataDir string

	// GeminiAPIKey enables the external insight call. An empty key is a
	// supported state: the insight generator then returns a deterministic
	// placeholder and never touches the network.
	GeminiAPIKey string
	GeminiModel  string

	// InsightTimeout bounds the single external text-completion call.
	// Expiry is treated as a transport failure, not surfaced to clients.
	InsightTimeout time.Duration

	// GenerateOnStart regenerates the raw CSVs at boot.
	// ETLOnStart runs the aggregation pipeline at boot; a failed startup
	// run is logged, not fatal (queries report "not ready" until a run
	// succeeds).
	GenerateOnStart bool
	ETLOnStart      bool
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		ListenAddr:      getenv("APP_LISTEN_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("APP_DATABASE_URL"),
		DataDir:         getenv("APP_DATA_DIR", "data"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		InsightTimeout:  30 * time.Second,
		GenerateOnStart: getenvBool("APP_GENERATE_ON_START", false),
		ETLOnStart:      getenvBool("APP_ETL_ON_START", false),
	}

	if v := os.Getenv("APP_INSIGHT_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.InsightTimeout = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
