package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/juju/errors"
)

type Config struct {
	Addr           string `toml:"addr"`            // Listen address for the client protocol.
	StatusAddr     string `toml:"status-addr"`     // HTTP address for /status and /metrics, empty to disable.
	LogLevel       string `toml:"log-level"`       // Log level: debug, info, warn, error, fatal.
	MaxConnections int    `toml:"max-connections"` // Max concurrent client connections, 0 for unlimited.
}

var DefaultConf = Config{
	Addr:           "0.0.0.0:5000",
	StatusAddr:     "0.0.0.0:9291",
	LogLevel:       getLogLevel(),
	MaxConnections: 0,
}

func getLogLevel() (logLevel string) {
	logLevel = "info"
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		logLevel = l
	}
	return
}

// Load returns the default configuration overlaid with the TOML file at
// path. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	conf := DefaultConf
	if path != "" {
		if _, err := toml.DecodeFile(path, &conf); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen addr must not be empty")
	}
	if c.MaxConnections < 0 {
		return errors.New("max-connections must not be negative")
	}
	return nil
}
