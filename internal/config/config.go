package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the store and identity server configuration.
type Config struct {
	Port               string
	DatabaseURL        string
	JWTSecret          string
	GoogleAudience     string
	AllowOrigins       []string
	LogstashTCPAddr    string
	SessionTTL         time.Duration
	RecentLoginWindow  time.Duration
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketProfile string
	MinIOPublicURL     string
	AvatarMaxDimension int
	SwaggerSpecPath    string
	SeedFile           string
}

// UsesMemoryStore is true when no database is configured; data then lives
// only as long as the process.
func (c Config) UsesMemoryStore() bool {
	return c.DatabaseURL == ""
}

// AvatarsEnabled reports whether object storage is configured.
func (c Config) AvatarsEnabled() bool {
	return c.MinIOEndpoint != ""
}

func Load() Config {
	loadDotEnv()

	cfg := Config{
		Port:               getenv("PORT", "8080"),
		DatabaseURL:        getenv("DATABASE_URL", ""),
		JWTSecret:          must("JWT_SECRET"),
		GoogleAudience:     getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:       splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr:    getenv("LOGSTASH_TCP_ADDR", ""),
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		RecentLoginWindow:  getDuration("RECENT_LOGIN_WINDOW", 5*time.Minute),
		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOUseSSL:        getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketProfile: getenv("MINIO_BUCKET_PROFILE", "mealmission-avatars"),
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),
		AvatarMaxDimension: getInt("AVATAR_MAX_DIMENSION", 1024),
		SwaggerSpecPath:    getenv("SWAGGER_SPEC_PATH", filepath.Join("docs", "swagger.yaml")),
		SeedFile:           getenv("SEED_FILE", ""),
	}
	if cfg.AvatarsEnabled() {
		cfg.MinIOAccessKey = must("MINIO_ACCESS_KEY")
		cfg.MinIOSecretKey = must("MINIO_SECRET_KEY")
	}
	return cfg
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	APIURL          string
	SessionFile     string
	DataDir         string
	LogstashTCPAddr string
}

func LoadClient() ClientConfig {
	loadDotEnv()

	dataDir := getenv("MEALMISSION_DATA_DIR", "")
	if dataDir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			dataDir = filepath.Join(base, "mealmission")
		} else {
			dataDir = ".mealmission"
		}
	}
	return ClientConfig{
		APIURL:          strings.TrimRight(getenv("MEALMISSION_API_URL", "http://localhost:8080"), "/"),
		SessionFile:     getenv("MEALMISSION_SESSION_FILE", filepath.Join(dataDir, "session.json")),
		DataDir:         dataDir,
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
	}
}

// SeedConfig configures the catalog seeding tool, which writes to the
// database directly.
type SeedConfig struct {
	DatabaseURL     string
	LogstashTCPAddr string
}

func LoadSeed() SeedConfig {
	loadDotEnv()
	return SeedConfig{
		DatabaseURL:     must("DATABASE_URL"),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
	}
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: .env file not loaded: %v", err)
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getDuration(k string, d time.Duration) time.Duration {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", k, raw, d)
		return d
	}
	return v
}

func getInt(k string, d int) int {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", k, raw, d)
		return d
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
