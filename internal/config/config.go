package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageMySQL  = "mysql"

	CacheMemory = "memory"
	CacheRedis  = "redis"

	NotifierLog   = "log"
	NotifierSMTP  = "smtp"
	NotifierKafka = "kafka"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string
	LogLevel string

	Storage  string
	MySQLDSN string

	Cache     string
	RedisAddr string

	Notifier      string
	NotifyWorkers int
	NotifyQueue   int
	SMTPAddr      string
	SMTPHost      string
	SMTPUser      string
	SMTPPassword  string
	MailFrom      string
	KafkaBrokers  []string
	NotifyTopic   string

	OTPTTL    time.Duration
	JWTSecret string
	JWTTTL    time.Duration

	RateLimit float64
	RateBurst int
}

// Load reads the configuration from the environment, falling back to
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:     getEnv("GRPC_ADDR", ":50051"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Storage:      getEnv("STORAGE", StorageMemory),
		MySQLDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/livemart?parseTime=true"),
		Cache:        getEnv("CACHE", CacheMemory),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		Notifier:     getEnv("NOTIFIER", NotifierLog),
		SMTPAddr:     getEnv("SMTP_ADDR", "localhost:587"),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "noreply.livemart@gmail.com"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		NotifyTopic:  getEnv("NOTIFY_TOPIC", "livemart.notifications"),
		JWTSecret:    getEnv("JWT_SECRET", "livemart-dev-secret"),
	}

	var err error
	if cfg.NotifyWorkers, err = getInt("NOTIFY_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.NotifyQueue, err = getInt("NOTIFY_QUEUE", 1024); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = getInt("RATE_BURST", 100); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = getFloat("RATE_LIMIT", 50); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageMemory, StorageMySQL:
	default:
		return fmt.Errorf("STORAGE: unknown value %q", c.Storage)
	}
	switch c.Cache {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("CACHE: unknown value %q", c.Cache)
	}
	switch c.Notifier {
	case NotifierLog, NotifierSMTP, NotifierKafka:
	default:
		return fmt.Errorf("NOTIFIER: unknown value %q", c.Notifier)
	}
	if c.NotifyWorkers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS: must be at least 1")
	}
	if c.NotifyQueue < 1 {
		return fmt.Errorf("NOTIFY_QUEUE: must be at least 1")
	}
	if c.Notifier == NotifierKafka && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS: required when NOTIFIER=kafka")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
