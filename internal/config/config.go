package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream disaster-message API.
	DisasterAPIURL  string
	DisasterAPIKey  string
	FetchTimeout    time.Duration
	PollInterval    time.Duration

	// Deduplication cache. Empty RedisAddr selects the in-memory cache.
	DedupTTL  time.Duration
	RedisAddr string

	// Generative backend.
	OllamaEndpoint    string
	OllamaModel       string
	OllamaTimeout     time.Duration
	OllamaTemperature float64
	GenerateAttempts  int

	// Push gateway credentials; empty leaves the dispatcher uninitialized.
	FirebaseCredentials string

	// Persistence. Driver is one of "postgres", "sqlite", "memory".
	StorageDriver   string
	StorageDSN      string
	ShelterDataPath string

	// Notification audit stream.
	KafkaBrokers []string
	AuditTopic   string
	AuditEnabled bool

	// Shelter ranking.
	SearchRadiusKM  float64
	RadiusCeilingKM float64
	MaxShelters     int
	WalkingSpeedKMH float64

	// Eligibility.
	ActiveWindow time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		DisasterAPIURL: envOrDefault("DISASTER_API_URL", "https://www.safetydata.go.kr/api/disasterMsg"),
		DisasterAPIKey: os.Getenv("DISASTER_API_KEY"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		OllamaEndpoint: envOrDefault("OLLAMA_ENDPOINT", "http://localhost:11434"),
		OllamaModel:    envOrDefault("OLLAMA_MODEL", "qwen3:8b-instruct"),

		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS"),

		StorageDriver:   envOrDefault("STORAGE_DRIVER", "memory"),
		StorageDSN:      os.Getenv("STORAGE_DSN"),
		ShelterDataPath: envOrDefault("SHELTER_DATA_PATH", "data/shelters.yaml"),

		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		AuditTopic:   envOrDefault("AUDIT_TOPIC", "notification-audit"),
		AuditEnabled: envOrDefault("AUDIT_ENABLED", "false") == "true",
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = durationEnv("FETCH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.DedupTTL, err = durationEnv("DEDUP_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OllamaTimeout, err = durationEnv("OLLAMA_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.ActiveWindow, err = durationEnv("ACTIVE_WINDOW", time.Hour); err != nil {
		return nil, err
	}

	if cfg.OllamaTemperature, err = floatEnv("OLLAMA_TEMPERATURE", 0.3); err != nil {
		return nil, err
	}
	if cfg.SearchRadiusKM, err = floatEnv("SEARCH_RADIUS_KM", 2.0); err != nil {
		return nil, err
	}
	if cfg.RadiusCeilingKM, err = floatEnv("RADIUS_CEILING_KM", 10.0); err != nil {
		return nil, err
	}
	if cfg.WalkingSpeedKMH, err = floatEnv("WALKING_SPEED_KMH", 4.8); err != nil {
		return nil, err
	}

	if cfg.GenerateAttempts, err = intEnv("GENERATE_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.MaxShelters, err = intEnv("MAX_SHELTERS", 3); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DisasterAPIURL == "" {
		return errors.New("DISASTER_API_URL is required")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if cfg.DedupTTL <= 0 {
		return errors.New("DEDUP_TTL must be positive")
	}
	if cfg.GenerateAttempts < 1 {
		return errors.New("GENERATE_ATTEMPTS must be at least 1")
	}
	switch cfg.StorageDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver != "memory" && cfg.StorageDSN == "" {
		return fmt.Errorf("STORAGE_DSN is required for driver %q", cfg.StorageDriver)
	}
	if cfg.AuditEnabled && len(cfg.KafkaBrokers) == 0 {
		return errors.New("AUDIT_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.SearchRadiusKM <= 0 || cfg.SearchRadiusKM > cfg.RadiusCeilingKM {
		return errors.New("SEARCH_RADIUS_KM must be positive and within RADIUS_CEILING_KM")
	}
	if cfg.MaxShelters < 1 {
		return errors.New("MAX_SHELTERS must be at least 1")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}
