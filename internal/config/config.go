package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		ENV  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Component string `yaml:"component"`
		Source    bool   `yaml:"source"`
	} `yaml:"log"`

	DB struct {
		Driver        string        `yaml:"driver"`
		DSN           string        `yaml:"dsn"`
		Host          string        `yaml:"host"`
		Port          string        `yaml:"port"`
		User          string        `yaml:"user"`
		Password      string        `yaml:"password"`
		Name          string        `yaml:"name"`
		SlowThreshold time.Duration `yaml:"slow_threshold"`
	} `yaml:"db"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	GRPC struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"grpc"`

	HTTP struct {
		Host           string   `yaml:"host"`
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`

	S3 struct {
		Region    string        `yaml:"region"`
		Bucket    string        `yaml:"bucket"`
		URLExpiry time.Duration `yaml:"url_expiry"`
	} `yaml:"s3"`

	Telemetry struct {
		TraceExporter string `yaml:"trace_exporter"`
		OTLPEndpoint  string `yaml:"otlp_endpoint"`
		OTLPInsecure  bool   `yaml:"otlp_insecure"`
	} `yaml:"telemetry"`
}

// New builds the configuration from, in increasing priority: defaults, a .env file,
// the YAML file named by CONFIG_FILE, and the process environment.
func New() *Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			// fall back to env-only config; the server logs the effective values on boot
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		}
	}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", orDefault(cfg.App.ENV, "development"))
	cfg.App.Name = getEnvDefault("APP_NAME", orDefault(cfg.App.Name, "us-matching"))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", orDefault(cfg.Log.Level, "info"))
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", orDefault(cfg.Log.Format, "text"))
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", orDefault(cfg.Log.Component, "matching"))
	if v, ok := os.LookupEnv("LOG_SOURCE"); ok {
		cfg.Log.Source = isTruthy(v)
	}

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", orDefault(cfg.DB.Driver, "mysql")))
	cfg.DB.DSN = getEnvDefault("DB_DSN", cfg.DB.DSN)
	if cfg.DB.DSN == "" {
		// kept for deployments that still export the old variable
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	}
	cfg.DB.SlowThreshold = getDurationDefault("DB_SLOW_THRESHOLD", orDuration(cfg.DB.SlowThreshold, 200*time.Millisecond))
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", orDefault(cfg.DB.Host, "localhost"))
		cfg.DB.User = getEnvDefault("DB_USER", orDefault(cfg.DB.User, "root"))
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", orDefault(cfg.DB.Password, "root"))
		cfg.DB.Name = getEnvDefault("DB_NAME", orDefault(cfg.DB.Name, "us"))
		cfg.DB.DSN = buildDSN(cfg)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", orDefault(cfg.Redis.Addr, "localhost:6379"))
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", orDefault(cfg.GRPC.Host, "127.0.0.1"))
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", orDefault(cfg.GRPC.Port, "50051"))

	// HTTP gateway
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", orDefault(cfg.HTTP.Host, "127.0.0.1"))
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", orDefault(cfg.HTTP.Port, "8080"))
	if origins := os.Getenv("HTTP_ALLOWED_ORIGINS"); origins != "" {
		cfg.HTTP.AllowedOrigins = splitList(origins)
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Issuer = getEnvDefault("JWT_ISSUER", cfg.Auth.Issuer)

	// AMQP (empty URL disables publishing)
	cfg.AMQP.URL = getEnvDefault("AMQP_URL", cfg.AMQP.URL)
	cfg.AMQP.Exchange = getEnvDefault("AMQP_EXCHANGE", orDefault(cfg.AMQP.Exchange, "us.events"))

	// S3 photo storage (empty bucket serves stored URLs as-is)
	cfg.S3.Region = getEnvDefault("AWS_REGION", orDefault(cfg.S3.Region, "us-east-1"))
	cfg.S3.Bucket = getEnvDefault("S3_BUCKET_NAME", cfg.S3.Bucket)
	cfg.S3.URLExpiry = getDurationDefault("S3_URL_EXPIRY", orDuration(cfg.S3.URLExpiry, 15*time.Minute))

	// Telemetry
	cfg.Telemetry.TraceExporter = getEnvDefault("OTEL_TRACES_EXPORTER", orDefault(cfg.Telemetry.TraceExporter, "none"))
	cfg.Telemetry.OTLPEndpoint = getEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", orDefault(cfg.Telemetry.OTLPEndpoint, "localhost:4317"))
	if v, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_INSECURE"); ok {
		cfg.Telemetry.OTLPInsecure = isTruthy(v)
	} else if cfg.Telemetry.TraceExporter == "otlp" && !cfg.Telemetry.OTLPInsecure {
		cfg.Telemetry.OTLPInsecure = cfg.App.ENV == "development"
	}

	return cfg
}

func buildDSN(cfg *Config) string {
	switch cfg.DB.Driver {
	case "postgres":
		cfg.DB.Port = getEnvDefault("DB_PORT", orDefault(cfg.DB.Port, "5432"))
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
		)
	case "sqlite":
		return fmt.Sprintf("file:%s.db?_foreign_keys=on&_busy_timeout=5000", cfg.DB.Name)
	default:
		cfg.DB.Port = getEnvDefault("DB_PORT", orDefault(cfg.DB.Port, "3306"))
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, cfg)
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
