package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
	Version         string

	Log       LogConfig
	Whisper   WhisperConfig
	YouTube   YouTubeConfig
	Download  DownloadConfig
	RateLimit RateLimitConfig
	Spaces    SpacesConfig

	CompressEnabled bool
	// DBPath enables the request history store when non-empty.
	DBPath string
}

type LogConfig struct {
	Level  string
	Format string
	Dir    string
}

type WhisperConfig struct {
	APIKey          string
	Model           string
	URL             string
	DefaultLanguage string
}

type YouTubeConfig struct {
	PreferredItag int
}

type DownloadConfig struct {
	MaxBytes  int64
	Timeout   time.Duration
	UserAgent string
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

type SpacesConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

func Load() *Config {
	return &Config{
		ServerPort:      GetEnv("SERVER_PORT", "8080"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 180*time.Second),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 170*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Debug:           getEnvAsBool("DEBUG", false),
		Version:         GetEnv("VERSION", "dev"),

		Log: LogConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "json"),
			Dir:    GetEnv("LOG_DIR", ""),
		},
		Whisper: WhisperConfig{
			APIKey:          GetEnv("OPENAI_API_KEY", ""),
			Model:           GetEnv("WHISPER_MODEL", "whisper-1"),
			URL:             GetEnv("WHISPER_URL", "https://api.openai.com/v1/audio/transcriptions"),
			DefaultLanguage: GetEnv("DEFAULT_LANG", "pt"),
		},
		YouTube: YouTubeConfig{
			PreferredItag: getEnvAsInt("PREFERRED_ITAG", 140),
		},
		Download: DownloadConfig{
			MaxBytes:  getEnvAsInt64("MAX_AUDIO_BYTES", 25*1024*1024),
			Timeout:   getEnvAsDuration("DOWNLOAD_TIMEOUT", 45*time.Second),
			UserAgent: GetEnv("DOWNLOAD_USER_AGENT", "Mozilla/5.0"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 30),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
		Spaces: SpacesConfig{
			Endpoint:  GetEnv("SPACES_ENDPOINT", ""),
			Region:    GetEnv("SPACES_REGION", "us-east-1"),
			Bucket:    GetEnv("SPACES_BUCKET", ""),
			AccessKey: GetEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: GetEnv("SPACES_SECRET_KEY", ""),
		},

		CompressEnabled: getEnvAsBool("COMPRESS_ENABLED", true),
		DBPath:          GetEnv("DB_PATH", ""),
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

// Validate rejects settings the server cannot start with. A missing API key
// is allowed; requests then fail with missing_open_ai_key.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return errors.Wrapf(err, "invalid server port %q", c.ServerPort)
	}
	for name, d := range map[string]time.Duration{
		"read timeout":     c.ReadTimeout,
		"write timeout":    c.WriteTimeout,
		"idle timeout":     c.IdleTimeout,
		"request timeout":  c.RequestTimeout,
		"shutdown timeout": c.ShutdownTimeout,
		"download timeout": c.Download.Timeout,
	} {
		if d <= 0 {
			return errors.Errorf("%s must be greater than 0", name)
		}
	}
	if c.Download.MaxBytes <= 0 {
		return errors.New("max audio bytes must be greater than 0")
	}
	if c.YouTube.PreferredItag <= 0 {
		return errors.New("preferred itag must be greater than 0")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive requests per minute and burst")
	}
	if c.Spaces.Bucket != "" && c.Spaces.Endpoint == "" {
		return errors.New("spaces endpoint is required when a bucket is set")
	}
	return nil
}
