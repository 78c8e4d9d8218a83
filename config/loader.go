// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/go-core-stack/keypool/errors"
	"github.com/go-core-stack/keypool/values"
)

const envPrefix = "KEYPOOL"

// mongo credentials are also read from the variables set for the mongo
// server container, the prefixed variables take precedence
var credentialEnv = map[string][]string{
	"store.username": {"KEYPOOL_STORE_USERNAME", "MONGO_CONFIGDB_USERNAME"},
	"store.password": {"KEYPOOL_STORE_PASSWORD", "MONGO_CONFIGDB_PASSWORD"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.database", "keypool")
	v.SetDefault("store.collection", "keys")
}

// scalar keys that can be overridden from the environment, for example
// KEYPOOL_STORE_DRIVER overrides store.driver
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"log_level",
		"pool",
		"store.driver",
		"store.uri",
		"store.host",
		"store.port",
		"store.database",
		"store.collection",
	} {
		_ = v.BindEnv(key)
	}
	for key, names := range credentialEnv {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
}

// Load reads the configuration file at path, the path from the
// environment when empty. A missing file is not an error, the
// configuration is then built from defaults and the environment alone.
// The loaded configuration is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = values.GetConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(errors.InvalidArgument, "failed to read config file: %s", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(errors.InvalidArgument, "failed to unmarshal config: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
