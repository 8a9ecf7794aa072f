package config

import (
	"errors"
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
	CORSOrigins     []string

	// Imagery platform configuration.
	EEProject            string
	EEBaseURL            string
	EEAuthMode           string // "service-account", "adc", or "emulator"
	EEServiceAccountFile string
	EEServiceAccountJSON string // inline key JSON, takes precedence over the file
	EETimeout            time.Duration

	// Query tuning. Defaults match the published study parameters.
	CloudCoverMax     float64
	NDVIScaleM        float64
	SeriesConcurrency int
	SeriesMaxScenes   int
	MapCacheTTL       time.Duration
	SeriesCacheTTL    time.Duration

	StudyAreaFile string
	PrewarmLayers bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	eeTimeout, err := parseDurationEnv("EE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	mapCacheTTL, err := parseDurationEnv("MAP_CACHE_TTL", 4*time.Hour)
	if err != nil {
		return nil, err
	}
	seriesCacheTTL, err := parseDurationEnv("SERIES_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	seriesConcurrency, err := parseIntEnv("SERIES_CONCURRENCY", 4, 1, 32)
	if err != nil {
		return nil, err
	}
	seriesMaxScenes, err := parseIntEnv("SERIES_MAX_SCENES", 60, 1, 500)
	if err != nil {
		return nil, err
	}
	cloudCoverMax, err := parseFloatEnv("CLOUD_COVER_MAX", 26, 0, 100)
	if err != nil {
		return nil, err
	}
	ndviScale, err := parseFloatEnv("NDVI_SCALE_M", 20, 1, 1000)
	if err != nil {
		return nil, err
	}

	keyFile := os.Getenv("EE_SERVICE_ACCOUNT_FILE")
	keyJSON := os.Getenv("EE_SERVICE_ACCOUNT_JSON")
	authMode := os.Getenv("EE_AUTH_MODE")
	if authMode == "" {
		// A configured key implies service-account auth; otherwise fall back
		// to ambient default credentials, the local-development path.
		authMode = "adc"
		if keyFile != "" || keyJSON != "" {
			authMode = "service-account"
		}
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     splitList(envOrDefault("CORS_ORIGINS", "*")),

		EEProject:            envOrDefault("EE_PROJECT", "ee-unipvgee"),
		EEBaseURL:            envOrDefault("EE_BASE_URL", "https://earthengine.googleapis.com"),
		EEAuthMode:           authMode,
		EEServiceAccountFile: keyFile,
		EEServiceAccountJSON: keyJSON,
		EETimeout:            eeTimeout,

		CloudCoverMax:     cloudCoverMax,
		NDVIScaleM:        ndviScale,
		SeriesConcurrency: seriesConcurrency,
		SeriesMaxScenes:   seriesMaxScenes,
		MapCacheTTL:       mapCacheTTL,
		SeriesCacheTTL:    seriesCacheTTL,

		StudyAreaFile: os.Getenv("STUDY_AREA_FILE"),
		PrewarmLayers: os.Getenv("PREWARM_LAYERS") == "true",
	}

	if cfg.EEProject == "" {
		return nil, errors.New("EE_PROJECT is required")
	}
	if cfg.EEBaseURL == "" {
		return nil, errors.New("EE_BASE_URL is required")
	}
	switch cfg.EEAuthMode {
	case "service-account":
		if cfg.EEServiceAccountFile == "" && cfg.EEServiceAccountJSON == "" {
			return nil, errors.New("EE_AUTH_MODE is service-account but neither EE_SERVICE_ACCOUNT_FILE nor EE_SERVICE_ACCOUNT_JSON is set")
		}
	case "adc", "emulator":
	default:
		return nil, errors.New("EE_AUTH_MODE must be service-account, adc, or emulator")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseIntEnv(key string, def, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, errors.New("invalid " + key + " (must be " + strconv.Itoa(min) + ".." + strconv.Itoa(max) + ")")
	}
	return n, nil
}

func parseFloatEnv(key string, def, min, max float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < min || f > max {
		return 0, errors.New("invalid " + key)
	}
	return f, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
