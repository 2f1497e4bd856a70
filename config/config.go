package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Port string
	Env  string

	MongoURI     string
	DatabaseName string

	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string

	B2ApplicationKeyID string
	B2ApplicationKey   string
	B2BucketName       string

	MaxFileSize       int64
	DefaultQuotaLimit int64

	TrashCleanupInterval time.Duration

	AllowedOrigins []string
}

// Load reads the configuration from the environment. Missing required
// variables make it fail rather than letting the server come up half-wired.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "nimbusdrive"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		JWTIssuer:     getEnv("JWT_ISSUER", "nimbusdrive"),

		B2ApplicationKeyID: getEnv("B2_APPLICATION_KEY_ID", ""),
		B2ApplicationKey:   getEnv("B2_APPLICATION_KEY", ""),
		B2BucketName:       getEnv("B2_BUCKET_NAME", ""),

		// 100 MiB per file, 2 GiB free tier.
		MaxFileSize:       parseInt64(getEnv("MAX_FILE_SIZE", "104857600")),
		DefaultQuotaLimit: parseInt64(getEnv("DEFAULT_QUOTA_LIMIT", "2147483648")),

		TrashCleanupInterval: parseDuration(getEnv("TRASH_CLEANUP_INTERVAL", "1h"), time.Hour),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"JWT_SECRET":            c.JWTSecret,
		"B2_APPLICATION_KEY_ID": c.B2ApplicationKeyID,
		"B2_APPLICATION_KEY":    c.B2ApplicationKey,
		"B2_BUCKET_NAME":        c.B2BucketName,
	}

	var missing []string
	for key, value := range required {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Log prints the effective configuration with secrets masked.
func (c *Config) Log(logger *zap.SugaredLogger) {
	logger.Infow("configuration loaded",
		"port", c.Port,
		"env", c.Env,
		"database", c.DatabaseName,
		"mongoURI", maskConnectionString(c.MongoURI),
		"jwtSecret", maskSecret(c.JWTSecret),
		"jwtExpiration", c.JWTExpiration,
		"b2KeyID", maskSecret(c.B2ApplicationKeyID),
		"b2Bucket", c.B2BucketName,
		"maxFileSize", c.MaxFileSize,
		"defaultQuotaLimit", c.DefaultQuotaLimit,
		"trashCleanupInterval", c.TrashCleanupInterval,
		"allowedOrigins", c.AllowedOrigins,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseStringSlice(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func maskSecret(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	if len(secret) <= 8 {
		return "[HIDDEN]"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func maskConnectionString(uri string) string {
	if uri == "" {
		return "[NOT SET]"
	}
	if idx := strings.LastIndex(uri, "@"); idx >= 0 {
		return "[CREDENTIALS_HIDDEN]@" + uri[idx+1:]
	}
	return uri
}
