// Package server implements the TaskNet HTTP API.
//
// This file defines the YAML server configuration. Command-line flags take
// precedence over file values; the file exists so deployments can keep
// their settings (and secrets, via env expansion) out of the unit file.
package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of the server configuration file.
type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	DataDir   string `yaml:"data_dir"`
	AuthToken string `yaml:"auth_token"`

	// Persistence tuning; zero values keep the engine defaults.
	AutoSaveInterval  time.Duration `yaml:"auto_save_interval"`
	AutoSaveThreshold int64         `yaml:"auto_save_threshold"`
}

// LoadConfig reads and parses the YAML configuration file from the given
// path. An empty path yields an empty config. Environment variables in the
// file are expanded, and unknown fields are rejected (strict mode) to
// prevent silent typos.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	expandedData := os.ExpandEnv(string(data))

	var config Config
	decoder := yaml.NewDecoder(strings.NewReader(expandedData))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	return &config, nil
}
