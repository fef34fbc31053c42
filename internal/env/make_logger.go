package env

import (
	"fmt"

	zap "go.uber.org/zap"
)

// MakeLogger builds the JSON production logger at the given level, e.g.
// "debug" or "warn". An empty level means info.
func MakeLogger(level string) (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevelAt(zap.InfoLevel)

	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = logLevel
	logConfig.Encoding = "json"

	return logConfig.Build()
}
