package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Paths    PathsConfig   `mapstructure:"paths"`
	Encoder  EncoderConfig `mapstructure:"encoder"`
	Server   ServerConfig  `mapstructure:"server"`
}

type PathsConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

type EncoderConfig struct {
	Mode         string `mapstructure:"mode"`
	Cap          bool   `mapstructure:"cap"`
	MissingValue int64  `mapstructure:"missing_value"`
	Normalize    string `mapstructure:"normalize"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxInputBytes   int    `mapstructure:"max_input_bytes"`
	MaxBatch        int    `mapstructure:"max_batch"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Paths: PathsConfig{
			ModelPath: "models/encoder.safetensors",
		},
		Encoder: EncoderConfig{
			Mode:         ModeText,
			Cap:          false,
			MissingValue: -1,
			Normalize:    FormNone,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxInputBytes:   1 << 20,
			MaxBatch:        1024,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("paths-model-path", defaults.Paths.ModelPath, "Path to the fitted encoder model (.safetensors)")
	fs.String("mode", defaults.Encoder.Mode, "Symbol mode used when fitting (text|bytes)")
	fs.Bool("cap", defaults.Encoder.Cap, "Append the cap sentinel after each encoded sequence")
	fs.Int64("missing-value", defaults.Encoder.MissingValue, "Padding and unknown-symbol value for batch transforms")
	fs.String("normalize", defaults.Encoder.Normalize, "Unicode normalization applied to text input (none|nfc|nfd|nfkc|nfkd)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent transform requests")
	fs.Int("max-input-bytes", defaults.Server.MaxInputBytes, "Max request body size in bytes")
	fs.Int("max-batch", defaults.Server.MaxBatch, "Max number of values per batch request")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request deadline in seconds")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("VALUEENC")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("valueenc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("encoder.mode", c.Encoder.Mode)
	v.SetDefault("encoder.cap", c.Encoder.Cap)
	v.SetDefault("encoder.missing_value", c.Encoder.MissingValue)
	v.SetDefault("encoder.normalize", c.Encoder.Normalize)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_input_bytes", c.Server.MaxInputBytes)
	v.SetDefault("server.max_batch", c.Server.MaxBatch)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("log_level", "log-level")
	v.RegisterAlias("paths.model_path", "paths-model-path")
	v.RegisterAlias("encoder.mode", "mode")
	v.RegisterAlias("encoder.cap", "cap")
	v.RegisterAlias("encoder.missing_value", "missing-value")
	v.RegisterAlias("encoder.normalize", "normalize")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.workers", "workers")
	v.RegisterAlias("server.max_input_bytes", "max-input-bytes")
	v.RegisterAlias("server.max_batch", "max-batch")
	v.RegisterAlias("server.request_timeout", "request-timeout")
	v.RegisterAlias("server.shutdown_timeout", "shutdown-timeout")
}
