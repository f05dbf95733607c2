package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBlockCapacity is the block capacity used if none is configured.
	DefaultBlockCapacity = 64

	// DefaultLogLevel is the log level used if none is configured.
	DefaultLogLevel = "info"
)

// Config is the configuration of tools using the store.
type Config struct {
	Root          string `toml:"root"`
	Name          string `toml:"name"`
	Table         string `toml:"table"`
	BlockCapacity uint64 `toml:"block_capacity"`
	SyncWrites    bool   `toml:"sync_writes"`
	LogLevel      string `toml:"log_level"`
}

// Default returns default configuration.
func Default() Config {
	return Config{
		Root:          ".",
		BlockCapacity: DefaultBlockCapacity,
		LogLevel:      DefaultLogLevel,
	}
}

// Load loads configuration from TOML file. Values missing in the file are taken from the default configuration.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	return Parse(data)
}

// Parse parses TOML configuration.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "parsing configuration failed")
	}
	return c, nil
}

// Validate verifies that configuration is complete.
func (c Config) Validate() error {
	switch {
	case c.Root == "":
		return errors.New("root is not set")
	case c.Name == "":
		return errors.New("name is not set")
	case c.Table == "":
		return errors.New("table is not set")
	case c.BlockCapacity == 0:
		return errors.New("block capacity must be greater than 0")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Logger returns logger configured with the log level.
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	logger := logrus.New()
	logger.SetLevel(level)
	return logger, nil
}
