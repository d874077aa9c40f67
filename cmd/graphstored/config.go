// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"

	"github.com/diffeo/go-graphstore/backend"
)

// Config holds the complete daemon configuration.  Values come from
// built-in defaults, then the -config YAML file, then command-line
// flags.
type Config struct {
	// HTTP is the [ip]:port to listen on.
	HTTP string `mapstructure:"http" validate:"required"`

	// Backend is impl[:address] of the dataset store.
	Backend string `mapstructure:"backend" validate:"required"`

	LogRequests bool   `mapstructure:"log_requests"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=panic fatal error warn warning info debug trace"`

	// QueryCacheSize is the number of parsed queries and updates
	// to keep.  Zero disables the cache.
	QueryCacheSize int `mapstructure:"query_cache_size" validate:"gte=0"`

	// MetricsInterval is how often to count named graphs.  Zero
	// disables counting.
	MetricsInterval time.Duration `mapstructure:"metrics_interval" validate:"gte=0"`

	// MaxBodyBytes limits request bodies.  Zero means no limit.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing else is
// specified.
func DefaultConfig() Config {
	return Config{
		HTTP:            ":5980",
		Backend:         "memory",
		LogLevel:        "info",
		QueryCacheSize:  256,
		MetricsInterval: 30 * time.Second,
	}
}

var validate = validator.New()

// Validate checks every field, and that the backend names a known
// implementation.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return err
		}
		var msgs []string
		for _, e := range fieldErrors {
			msgs = append(msgs, formatFieldError(e))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	var b backend.Backend
	return b.Set(c.Backend)
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

// StoreBackend returns the store backend description.
func (c Config) StoreBackend() (backend.Backend, error) {
	var b backend.Backend
	err := b.Set(c.Backend)
	return b, err
}

// loadConfigYaml reads a YAML file on top of an existing
// configuration.
func loadConfigYaml(filename string, c *Config) error {
	var raw map[string]interface{}
	bytes, err := ioutil.ReadFile(filename)
	if err == nil {
		err = yaml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return err
	}
	var metadata mapstructure.Metadata
	config := mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Metadata:         &metadata,
		Result:           c,
	}
	decoder, err := mapstructure.NewDecoder(&config)
	if err == nil {
		err = decoder.Decode(raw)
	}
	if err == nil && len(metadata.Unused) > 0 {
		err = fmt.Errorf("unknown configuration keys %v", metadata.Unused)
	}
	return err
}

// parseConfig builds the configuration from command-line arguments.
// Flags given explicitly override the configuration file.
func parseConfig(args []string) (Config, error) {
	config := DefaultConfig()
	flags := DefaultConfig()

	fs := flag.NewFlagSet("graphstored", flag.ContinueOnError)
	configFile := fs.String("config", "", "global configuration YAML file")
	fs.StringVar(&flags.HTTP, "http", flags.HTTP,
		"[ip]:port for HTTP interface")
	b := backend.Backend{Implementation: "memory"}
	fs.Var(&b, "backend", "impl[:address] of the storage backend")
	fs.BoolVar(&flags.LogRequests, "log-requests", flags.LogRequests,
		"log all requests")
	fs.StringVar(&flags.LogLevel, "log-level", flags.LogLevel,
		"minimum level of log messages")
	fs.IntVar(&flags.QueryCacheSize, "query-cache-size", flags.QueryCacheSize,
		"number of parsed queries to cache")
	fs.DurationVar(&flags.MetricsInterval, "metrics-interval", flags.MetricsInterval,
		"how often to count graphs for metrics")
	fs.Int64Var(&flags.MaxBodyBytes, "max-body-bytes", flags.MaxBodyBytes,
		"largest request body accepted")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configFile != "" {
		if err := loadConfigYaml(*configFile, &config); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http":
			config.HTTP = flags.HTTP
		case "backend":
			config.Backend = b.String()
		case "log-requests":
			config.LogRequests = flags.LogRequests
		case "log-level":
			config.LogLevel = flags.LogLevel
		case "query-cache-size":
			config.QueryCacheSize = flags.QueryCacheSize
		case "metrics-interval":
			config.MetricsInterval = flags.MetricsInterval
		case "max-body-bytes":
			config.MaxBodyBytes = flags.MaxBodyBytes
		}
	})
	return config, config.Validate()
}
