package internal

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config is shared by the backend daemon and the client CLI. BROKER_URL is
// the single knob selecting the broker host; everything else has a default.
type Config struct {
	BrokerURL   string `env:"BROKER_URL,default=nats://127.0.0.1:4222" validate:"required"`
	ServiceName string `env:"SERVICE_NAME,default=chat_server" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`

	BufferSize  int           `env:"BUFFER_SIZE,default=64" validate:"gte=1"`
	DrainWindow time.Duration `env:"DRAIN_WINDOW,default=250ms"`

	ResponseTimeout time.Duration `env:"RESPONSE_TIMEOUT,default=3s"`
	ResolveRetries  int           `env:"RESOLVE_RETRIES,default=5" validate:"gte=1"`
	ResolveBackoff  time.Duration `env:"RESOLVE_BACKOFF,default=200ms"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	HistoryFile string `env:"CHAT_HISTORY_FILE"`
}

// Load reads the optional .env file, binds the environment and validates the
// result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return config, nil
}
