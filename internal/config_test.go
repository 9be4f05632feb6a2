package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	config, err := Load()

	req.NoError(err)
	req.Equal("nats://127.0.0.1:4222", config.BrokerURL)
	req.Equal("chat_server", config.ServiceName)
	req.Equal("INFO", config.LogLevel)
	req.Equal(64, config.BufferSize)
	req.Equal(250*time.Millisecond, config.DrainWindow)
	req.Equal(3*time.Second, config.ResponseTimeout)
	req.Equal(5, config.ResolveRetries)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("BROKER_URL", "nats://broker.internal:4222")
	t.Setenv("SERVICE_NAME", "chat_staging")
	t.Setenv("RESPONSE_TIMEOUT", "500ms")

	config, err := Load()

	req.NoError(err)
	req.Equal("nats://broker.internal:4222", config.BrokerURL)
	req.Equal("chat_staging", config.ServiceName)
	req.Equal(500*time.Millisecond, config.ResponseTimeout)
}

func TestLoad_RejectsInvalidLogLevel(t *testing.T) {
	req := require.New(t)
	t.Setenv("LOG_LEVEL", "CHATTY")

	_, err := Load()

	req.Error(err)
}

func TestLoad_RejectsNonPositiveRetries(t *testing.T) {
	req := require.New(t)
	t.Setenv("RESOLVE_RETRIES", "0")

	_, err := Load()

	req.Error(err)
}
