package env

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DotEnvFile is loaded, when present, before the environment is read.
const DotEnvFile = ".env.local"

type Config struct {
	Host        string        `env:"LOCKDOWN_HOST,default=127.0.0.1"`
	Port        int           `env:"LOCKDOWN_PORT,default=5050"`
	HTTPPort    string        `env:"LOCKDOWN_HTTP_PORT,default=5051"`
	DebugHTTP   bool          `env:"LOCKDOWN_DEBUG_HTTP"`
	MaxConns    int           `env:"LOCKDOWN_MAX_CONNS,default=64"`
	ReadTimeout time.Duration `env:"LOCKDOWN_READ_TIMEOUT,default=10s"`
	SendTimeout time.Duration `env:"LOCKDOWN_SEND_TIMEOUT,default=2500ms"`
	LogLevel    string        `env:"LOCKDOWN_LOG_LEVEL,default=info"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, DotEnvFile, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, dotEnv string, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(dotEnv); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", dotEnv, err)
	}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	return &config, nil
}
