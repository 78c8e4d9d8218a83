// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package values

import "os"

const (
	// Environment variable name providing the path of the key pool
	// configuration file
	ConfigPathEnv = "KEYPOOL_CONFIG"

	// Default location of the key pool configuration file
	DefaultConfigPath = "/etc/keypool/config.yaml"
)

// Get configured path of the key pool configuration file
func GetConfigPath() string {
	path, ok := os.LookupEnv(ConfigPathEnv)
	if !ok || path == "" {
		return DefaultConfigPath
	}
	return path
}
