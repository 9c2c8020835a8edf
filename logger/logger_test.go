package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amp-labs/amp-spanbridge/logger"
)

// Logging configuration mutates process-wide state (slog default, subsystem),
// so these tests do not run in parallel.

func TestConfigureLoggingWithOptionsJSON(t *testing.T) {
	var buf bytes.Buffer

	log := logger.ConfigureLoggingWithOptions(logger.Options{
		Subsystem: "bridge-test",
		JSON:      true,
		MinLevel:  slog.LevelInfo,
		Output:    &buf,
	})

	log.Info("hello", "answer", 42)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.EqualValues(t, 42, record["answer"])
}

func TestConfigureLoggingWithOptionsText(t *testing.T) {
	var buf bytes.Buffer

	log := logger.ConfigureLoggingWithOptions(logger.Options{
		Subsystem: "bridge-test",
		MinLevel:  slog.LevelWarn,
		Output:    &buf,
	})

	log.Info("too quiet")
	assert.Empty(t, buf.String(), "below-minimum levels are dropped")

	log.Warn("loud enough")
	assert.True(t, strings.Contains(buf.String(), "loud enough"))
}

func TestSubsystem(t *testing.T) {
	logger.ConfigureLoggingWithOptions(logger.Options{
		Subsystem: "process-wide",
		Output:    &bytes.Buffer{},
	})

	assert.Equal(t, "process-wide", logger.GetSubsystem(context.Background()))

	ctx := logger.WithSubsystem(context.Background(), "scoped")
	assert.Equal(t, "scoped", logger.GetSubsystem(ctx))
	assert.Equal(t, "process-wide", logger.GetSubsystem(context.Background()),
		"context override must not leak")
}

func TestConfigureLoggingFromEnv(t *testing.T) {
	t.Setenv("LOG_JSON", "true")
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer

	log := logger.ConfigureLogging("env-test", func(o *logger.Options) {
		o.Output = &buf
	})

	log.Debug("visible at debug")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "visible at debug", record["msg"])
}
