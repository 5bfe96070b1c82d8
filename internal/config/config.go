/*
SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates the runtime settings of the chaincode and the local CLI.
type Config struct {
	Chaincode ChaincodeConfig
	Logger    LoggerConfig
	Metrics   MetricsConfig
	State     StateConfig
}

type ChaincodeConfig struct {
	// ID is the package id the peer knows the external chaincode by.
	ID            string
	ServerAddress string
	TLSDisabled   bool
	Version       string
}

// External reports whether the chaincode runs as a service instead of being
// launched by the peer.
func (c ChaincodeConfig) External() bool {
	return c.ServerAddress != ""
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MetricsConfig struct {
	Address         string
	ShutdownTimeout time.Duration
}

// Enabled reports whether the metrics endpoint should be served.
func (c MetricsConfig) Enabled() bool {
	return c.Address != ""
}

type StateConfig struct {
	Dir string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	return &Config{
		Chaincode: ChaincodeConfig{
			ID:            os.Getenv("CHAINCODE_ID"),
			ServerAddress: os.Getenv("CHAINCODE_SERVER_ADDRESS"),
			TLSDisabled:   getBool("CHAINCODE_TLS_DISABLED", true),
			Version:       getString("CONTRACT_VERSION", "1.0.0"),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Metrics: MetricsConfig{
			Address:         os.Getenv("METRICS_ADDRESS"),
			ShutdownTimeout: getDuration("METRICS_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		State: StateConfig{
			Dir: getString("STATE_DIR", "./data/state"),
		},
	}, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
