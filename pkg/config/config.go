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

// Package config holds the gateway's configuration: a process-wide
// immutable snapshot assembled once at startup from defaults, an optional
// config file, environment variables, and command-line flags, in that
// precedence order.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Defaults.
const (
	DefaultPort           = 3000
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultModel          = "qwen3:8b"
	DefaultLogLevel       = "info"
	DefaultRequestTimeout = 2 * time.Minute
)

// Config is the gateway configuration snapshot. It is never mutated after
// Load returns; reload semantics are deliberately out of scope.
type Config struct {
	// Port is the TCP listen port.
	Port int `yaml:"port"`

	// OllamaURL is the base URL of the upstream Ollama server.
	OllamaURL string `yaml:"ollama_url"`

	// DefaultModel is used when the requested model begins with "claude"
	// and has no model_map entry.
	DefaultModel string `yaml:"default_model"`

	// ModelMap maps client-supplied model names to upstream ones.
	ModelMap map[string]string `yaml:"model_map"`

	// StrictThinking rejects thinking requests on incapable models instead
	// of silently stripping them.
	StrictThinking bool `yaml:"strict_thinking"`

	// SequentialToolCalls enables the parallel-to-sequential history
	// rewrite. Pointer so an explicit false in the file survives the
	// default of true.
	SequentialToolCalls *bool `yaml:"sequential_tool_calls"`

	// LogLevel is one of error, warn, info, debug.
	LogLevel string `yaml:"log_level"`

	// LogFile, when set, receives a copy of the logs. Truncated at startup.
	LogFile string `yaml:"log_file"`

	// RequestTimeout bounds each non-streaming upstream chat call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.OllamaURL == "" {
		c.OllamaURL = DefaultOllamaURL
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if c.ModelMap == nil {
		c.ModelMap = map[string]string{}
	}
	if c.SequentialToolCalls == nil {
		enabled := true
		c.SequentialToolCalls = &enabled
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks the snapshot for fatal misconfiguration.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	parsed, err := url.Parse(c.OllamaURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("ollama_url must be a valid URL, got %q", c.OllamaURL)
	}
	switch c.LogLevel {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("log_level must be one of error, warn, info, debug, got %q", c.LogLevel)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// SequentialEnabled reports whether the sequential rewrite is on.
func (c *Config) SequentialEnabled() bool {
	return c.SequentialToolCalls == nil || *c.SequentialToolCalls
}
