// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Overrides carries command-line flag values. Nil fields leave the loaded
// value untouched.
type Overrides struct {
	Port                *int
	OllamaURL           *string
	DefaultModel        *string
	StrictThinking      *bool
	SequentialToolCalls *bool
	LogLevel            *string
	LogFile             *string
	RequestTimeout      *time.Duration
}

// Load assembles the configuration snapshot. Precedence, lowest to
// highest: defaults, config file, environment variables, flags.
func Load(path string, overrides Overrides) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		rawMap, err := parseBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if err := decodeConfig(expandEnvVars(rawMap), cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyOverrides(cfg, overrides)

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// parseBytes parses raw bytes into a map.
// Supports YAML (primary) and JSON (fallback).
func parseBytes(data []byte) (map[string]any, error) {
	var result map[string]any

	// Try YAML first (YAML is a superset of JSON)
	if err := yaml.Unmarshal(data, &result); err == nil {
		return result, nil
	}

	// Fallback to JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse as YAML or JSON: %w", err)
	}

	return result, nil
}

// decodeConfig decodes a map into a Config struct using mapstructure.
func decodeConfig(input map[string]any, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}

	return nil
}

// envPrefix namespaces the gateway's environment variables.
const envPrefix = "OLLAMABRIDGE_"

// applyEnv overlays OLLAMABRIDGE_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(envPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %w", envPrefix, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv(envPrefix + "OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
	if v := os.Getenv(envPrefix + "DEFAULT_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv(envPrefix + "STRICT_THINKING"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTRICT_THINKING: %w", envPrefix, err)
		}
		cfg.StrictThinking = strict
	}
	if v := os.Getenv(envPrefix + "SEQUENTIAL_TOOL_CALLS"); v != "" {
		sequential, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSEQUENTIAL_TOOL_CALLS: %w", envPrefix, err)
		}
		cfg.SequentialToolCalls = &sequential
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv(envPrefix + "REQUEST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		cfg.RequestTimeout = timeout
	}
	return nil
}

// applyOverrides overlays flag values.
func applyOverrides(cfg *Config, o Overrides) {
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.OllamaURL != nil {
		cfg.OllamaURL = *o.OllamaURL
	}
	if o.DefaultModel != nil {
		cfg.DefaultModel = *o.DefaultModel
	}
	if o.StrictThinking != nil {
		cfg.StrictThinking = *o.StrictThinking
	}
	if o.SequentialToolCalls != nil {
		cfg.SequentialToolCalls = o.SequentialToolCalls
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.LogFile = *o.LogFile
	}
	if o.RequestTimeout != nil {
		cfg.RequestTimeout = *o.RequestTimeout
	}
}

// expandEnvVars recursively expands ${VAR} and $VAR patterns in a map.
func expandEnvVars(input map[string]any) map[string]any {
	result := make(map[string]any, len(input))
	for k, v := range input {
		result[k] = expandValue(v)
	}
	return result
}

func expandValue(v any) any {
	switch val := v.(type) {
	case string:
		return expandEnvString(val)
	case map[string]any:
		return expandEnvVars(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = expandValue(item)
		}
		return result
	default:
		return v
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default}, and $VAR
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnvString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Handle ${VAR} and ${VAR:-default}
		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1] // Remove ${ and }

			// Check for default value syntax: ${VAR:-default}
			if idx := strings.Index(inner, ":-"); idx != -1 {
				varName := inner[:idx]
				defaultVal := inner[idx+2:]
				if val := os.Getenv(varName); val != "" {
					return val
				}
				return defaultVal
			}

			// Simple ${VAR}
			return os.Getenv(inner)
		}

		// Handle $VAR
		return os.Getenv(match[1:])
	})
}
