// Package config loads the settings of the wrs command from defaults, an
// optional config file and WRS_ prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "WRS"

type Config struct {
	Port      int      `mapstructure:"port"`
	Directory string   `mapstructure:"directory"`
	Root      string   `mapstructure:"root"`
	Protocol  string   `mapstructure:"protocol"`
	Origins   []string `mapstructure:"origins"`

	Log  LogConfig  `mapstructure:"log"`
	Nats NatsConfig `mapstructure:"nats"`

	ReadyTimeout    time.Duration `mapstructure:"ready_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type NatsConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("directory", ".")
	v.SetDefault("root", "public")
	v.SetDefault("protocol", "wrs_prtc")
	v.SetDefault("origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.prefix", "wrs")
	v.SetDefault("ready_timeout", 30*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Load reads the configuration. An empty file skips the config file.
func Load(file string) (*Config, error) {
	return load(viper.New(), file)
}

func load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", file)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.ReadyTimeout <= 0 {
		return errors.New("ready_timeout must be positive")
	}
	return nil
}
