// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package config loads the key pool configuration, the keys a pool
// starts with and the store holding key definitions, from a YAML file
// with environment overrides.
package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-core-stack/keypool/db"
	"github.com/go-core-stack/keypool/errors"
	"github.com/go-core-stack/keypool/rate"
)

const (
	// StoreMemory keeps key definitions in memory for the process lifetime
	StoreMemory = "memory"

	// StoreMongo keeps key definitions in a mongo collection
	StoreMongo = "mongo"
)

// Config of a key pool
type Config struct {
	// LogLevel is one of debug, info, warn or error
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Pool is the name of the pool, reported in metrics and logs
	Pool string `yaml:"pool,omitempty" mapstructure:"pool"`

	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Keys the pool starts with, in scan order
	Keys []KeyConfig `yaml:"keys" mapstructure:"keys" validate:"omitempty,unique=Identity,dive"`
}

// StoreConfig selects where key definitions are kept
type StoreConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver" validate:"required,oneof=memory mongo"`
	Uri        string `yaml:"uri,omitempty" mapstructure:"uri" validate:"omitempty,excluded_with=Host"`
	Host       string `yaml:"host,omitempty" mapstructure:"host" validate:"omitempty,hostname|ip"`
	Port       string `yaml:"port,omitempty" mapstructure:"port" validate:"omitempty,numeric"`
	Database   string `yaml:"database" mapstructure:"database" validate:"required_if=Driver mongo"`
	Collection string `yaml:"collection" mapstructure:"collection" validate:"required_if=Driver mongo"`

	// Username and Password authenticate with the mongo server when no
	// uri is given, the password is never exported
	Username string `yaml:"username,omitempty" mapstructure:"username" validate:"required_with=Password"`
	Password string `yaml:"-" mapstructure:"password"`
}

// KeyConfig is one key of the pool
type KeyConfig struct {
	Identity    string `yaml:"identity" mapstructure:"identity" validate:"required"`
	MaxRequests int    `yaml:"max_requests" mapstructure:"max_requests" validate:"required,min=1"`
	Window      string `yaml:"window" mapstructure:"window" validate:"required,duration"`
}

// Policy of the key
func (k *KeyConfig) Policy() (rate.Policy, error) {
	w, err := time.ParseDuration(k.Window)
	if err != nil {
		return rate.Policy{}, errors.Wrapf(errors.InvalidArgument, "invalid window %q: %s", k.Window, err)
	}
	return rate.NewPolicy(k.MaxRequests, w)
}

// Mongo returns the client configuration of a mongo store, a uri
// carries its own credentials
func (s *StoreConfig) Mongo() *db.MongoConfig {
	conf := &db.MongoConfig{
		Host: s.Host,
		Port: s.Port,
		Uri:  s.Uri,
	}
	if s.Uri == "" {
		conf.Username = s.Username
		conf.Password = s.Password
	}
	return conf
}

// Marshal exports the configuration as YAML
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
