package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DISPATCHDEMO"

const (
	modeRandom = "random"
	modeSticky = "sticky"
	modePool   = "pool"
)

// Config holds the demo settings. Struct tag defaults seed the flag defaults, so a
// value can come from a flag, a DISPATCHDEMO_* variable or the config file.
type Config struct {
	Mode         string        `mapstructure:"mode" default:"random" validate:"oneof=random sticky pool"`
	Workers      uint          `mapstructure:"workers" default:"4" validate:"min=1,max=1024"`
	Tasks        int           `mapstructure:"tasks" default:"20" validate:"min=0"`
	Colors       uint32        `mapstructure:"colors" default:"2" validate:"min=1"`
	Delay        time.Duration `mapstructure:"delay" default:"0s" validate:"min=0"`
	Wait         time.Duration `mapstructure:"wait" default:"10s" validate:"gt=0"`
	LockOSThread bool          `mapstructure:"lock-os-thread"`
	LogLevel     string        `mapstructure:"log-level" default:"info" validate:"oneof=debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func newConfig() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// Tags are static; a failure here is a programming error.
		panic(err)
	}
	return cfg
}

// registerFlags declares one flag per Config field, defaulting to the struct tags.
func registerFlags(fs *pflag.FlagSet) {
	d := newConfig()
	fs.String("config", "", "optional YAML config file")
	fs.String("mode", d.Mode, "routing mode: random (round-robin), sticky (colored) or pool (shared queue)")
	fs.Uint("workers", d.Workers, "number of workers")
	fs.Int("tasks", d.Tasks, "number of tasks to push")
	fs.Uint32("colors", d.Colors, "number of colors used in sticky mode")
	fs.Duration("delay", d.Delay, "time each task sleeps")
	fs.Duration("wait", d.Wait, "upper bound on waiting for all tasks to run")
	fs.Bool("lock-os-thread", d.LockOSThread, "lock every worker to its OS thread")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
}

// newViper binds fs and the environment into a fresh viper instance.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	return v, nil
}

// loadConfig reads the optional config file, decodes v over the defaults and validates
// the result.
func loadConfig(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := newConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
