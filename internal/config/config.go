// Package config loads service settings from the environment, reading
// a .env file first when one is present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const DefaultEnvFile = ".env"

type Config struct {
	LogLevel slog.Level

	DirBuildRoot     string
	DirOriginalsRoot string

	RabbitMQHost string
	RabbitMQPort string
	RabbitMQUser string
	RabbitMQPass string

	AMQPExchange             string
	AMQPQueueVariantsGenReqs string
	AMQPQueueVariantsDelReqs string

	OtelEnabled               bool
	OtelCollectorGrpcEndpoint string

	// Bytes of transcoding buffers allowed at once. Zero means the
	// transcoder default
	TranscodeMemoryBudget int64
}

// LoadEnvFile loads variables from path into the environment. A missing
// file is not an error; variables already set are not overridden.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("No .env file found, using environment variables directly.")
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s file: %w", path, err)
	}

	return nil
}

// Load reads the env file (if any) and then the environment.
func Load(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	return FromEnv(), nil
}

func FromEnv() *Config {
	return &Config{
		LogLevel: ParseLogLevel(os.Getenv("LOG_LEVEL")),

		DirBuildRoot:     os.Getenv("DIR_BUILD_ROOT"),
		DirOriginalsRoot: os.Getenv("DIR_ORIGINALS_ROOT"),

		RabbitMQHost: os.Getenv("RABBITMQ_HOST"),
		RabbitMQPort: os.Getenv("RABBITMQ_PORT"),
		RabbitMQUser: os.Getenv("RABBITMQ_USER"),
		RabbitMQPass: os.Getenv("RABBITMQ_PASS"),

		AMQPExchange:             os.Getenv("AMQP_EXCHANGE"),
		AMQPQueueVariantsGenReqs: os.Getenv("AMQP_QUEUE_VARIANT_GEN_REQUESTS"),
		AMQPQueueVariantsDelReqs: os.Getenv("AMQP_QUEUE_VARIANT_DEL_REQUESTS"),

		OtelEnabled:               os.Getenv("OTEL_ENABLED") == "true",
		OtelCollectorGrpcEndpoint: os.Getenv("OTEL_COLLECTOR_GRPC_ENDPOINT"),

		TranscodeMemoryBudget: parseMemoryBudget(
			os.Getenv("TRANSCODE_MEMORY_BUDGET_MB"),
		),
	}
}

// parseMemoryBudget converts a size in MiB to bytes. Empty, invalid
// or non-positive values yield 0.
func parseMemoryBudget(mb string) int64 {
	if mb == "" {
		return 0
	}

	n, err := strconv.ParseInt(mb, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn(
			"Ignoring invalid TRANSCODE_MEMORY_BUDGET_MB, using default",
			"value", mb,
		)
		return 0
	}

	return n << 20
}

func ParseLogLevel(level string) slog.Level {
	switch level {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "warn":
		return slog.LevelWarn
	case "ERROR", "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AMQPUri builds the broker URI, escaping credentials as needed.
func (c *Config) AMQPUri() string {
	uri := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQUser, c.RabbitMQPass),
		Host:   net.JoinHostPort(c.RabbitMQHost, c.RabbitMQPort),
		Path:   "/",
	}

	return uri.String()
}

// Validate checks settings needed by every command.
func (c *Config) Validate() error {
	if c.DirBuildRoot == "" {
		return errors.New("missing required environment variable DIR_BUILD_ROOT")
	}

	return nil
}

// ValidateAMQP checks settings needed to consume from the broker.
func (c *Config) ValidateAMQP() error {
	var errs []error
	required := map[string]string{
		"RABBITMQ_HOST":                   c.RabbitMQHost,
		"RABBITMQ_PORT":                   c.RabbitMQPort,
		"AMQP_EXCHANGE":                   c.AMQPExchange,
		"AMQP_QUEUE_VARIANT_GEN_REQUESTS": c.AMQPQueueVariantsGenReqs,
		"AMQP_QUEUE_VARIANT_DEL_REQUESTS": c.AMQPQueueVariantsDelReqs,
	}
	for name, value := range required {
		if value == "" {
			errs = append(errs, fmt.Errorf("missing required environment variable %s", name))
		}
	}

	return errors.Join(errs...)
}
