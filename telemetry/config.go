package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amp-labs/amp-spanbridge/envutil"
	"github.com/amp-labs/amp-spanbridge/logger"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
)

// Config holds the OpenTelemetry export configuration.
type Config struct {
	ServiceName    string        `yaml:"serviceName"`
	ServiceVersion string        `yaml:"serviceVersion"`
	Environment    string        `yaml:"environment"`
	Endpoint       string        `yaml:"endpoint"`
	LogsEndpoint   string        `yaml:"logsEndpoint"`
	Enabled        bool          `yaml:"enabled"`
	Timeout        time.Duration `yaml:"timeout"`
}

// LoadConfigFromEnv loads OpenTelemetry configuration from environment
// variables. The service name defaults to the logging subsystem configured via
// the logger package, so that traces and logs agree on who produced them.
func LoadConfigFromEnv(runningEnv string) (*Config, error) {
	serviceName := logger.GetSubsystem(context.Background())

	svcName, err := envutil.String("OTEL_SERVICE_NAME",
		envutil.Default(serviceName)).
		Value()
	if err != nil {
		return nil, err
	}

	svcVersion, err := envutil.String("OTEL_SERVICE_VERSION",
		envutil.Default(defaultServiceVersion)).
		Value()
	if err != nil {
		return nil, err
	}

	endpoint, err := envutil.String("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		envutil.Default("")).
		Value()
	if err != nil {
		return nil, err
	}

	logsEndpoint, err := envutil.String("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT",
		envutil.Default("")).
		Value()
	if err != nil {
		return nil, err
	}

	timeout, err := envutil.Duration("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT",
		envutil.Default(defaultTimeout)).
		Value()
	if err != nil {
		return nil, err
	}

	return &Config{
		ServiceName:    svcName,
		ServiceVersion: svcVersion,
		Environment:    runningEnv,
		Endpoint:       endpoint,
		LogsEndpoint:   logsEndpoint,
		Enabled:        envutil.Bool("OTEL_ENABLED", envutil.Default(false)).ValueOrElse(false),
		Timeout:        timeout,
	}, nil
}

// fileConfig mirrors Config for YAML decoding. The timeout is a string so the
// file can say "10s"; yaml.v3 has no native time.Duration support.
type fileConfig struct {
	ServiceName    string `yaml:"serviceName"`
	ServiceVersion string `yaml:"serviceVersion"`
	Environment    string `yaml:"environment"`
	Endpoint       string `yaml:"endpoint"`
	LogsEndpoint   string `yaml:"logsEndpoint"`
	Enabled        bool   `yaml:"enabled"`
	Timeout        string `yaml:"timeout"`
}

// ConfigFromFile loads a Config from a YAML file. Fields left empty fall back
// to the same defaults LoadConfigFromEnv uses.
func ConfigFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read telemetry config: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse telemetry config: %w", err)
	}

	config := Config{
		ServiceName:    file.ServiceName,
		ServiceVersion: file.ServiceVersion,
		Environment:    file.Environment,
		Endpoint:       file.Endpoint,
		LogsEndpoint:   file.LogsEndpoint,
		Enabled:        file.Enabled,
		Timeout:        defaultTimeout,
	}

	if file.Timeout != "" {
		timeout, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse telemetry config timeout: %w", err)
		}

		config.Timeout = timeout
	}

	if config.ServiceVersion == "" {
		config.ServiceVersion = defaultServiceVersion
	}

	if config.ServiceName == "" {
		config.ServiceName = logger.GetSubsystem(context.Background())
	}

	return &config, nil
}
