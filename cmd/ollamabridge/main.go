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

// Command ollamabridge runs a local gateway that speaks the Anthropic
// Messages API in front of an Ollama server.
//
// Usage:
//
//	ollamabridge serve --config config.yaml
//	ollamabridge serve --port 3000 --ollama-url http://localhost:11434
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/kadirpekel/ollamabridge"
	"github.com/kadirpekel/ollamabridge/pkg/config"
	"github.com/kadirpekel/ollamabridge/pkg/logger"
	"github.com/kadirpekel/ollamabridge/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Start the gateway."`

	Config string `short:"c" help:"Path to config file." type:"path"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(ollamabridge.GetVersion().String())
	return nil
}

// ServeCmd starts the gateway server.
type ServeCmd struct {
	Port                *int           `help:"TCP listen port."`
	OllamaURL           *string        `name:"ollama-url" help:"Base URL of the upstream Ollama server."`
	DefaultModel        *string        `name:"default-model" help:"Upstream model used for unmapped claude model names."`
	StrictThinking      *bool          `name:"strict-thinking" negatable:"" help:"Reject thinking requests on incapable models instead of stripping."`
	SequentialToolCalls *bool          `name:"sequential-tool-calls" negatable:"" help:"Rewrite parallel tool rounds into sequential ones."`
	LogLevel            *string        `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFile             *string        `name:"log-file" help:"Log file path, truncated at startup (empty = stdout only)."`
	RequestTimeout      *time.Duration `name:"request-timeout" help:"Timeout for upstream chat calls."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config, config.Overrides{
		Port:                c.Port,
		OllamaURL:           c.OllamaURL,
		DefaultModel:        c.DefaultModel,
		StrictThinking:      c.StrictThinking,
		SequentialToolCalls: c.SequentialToolCalls,
		LogLevel:            c.LogLevel,
		LogFile:             c.LogFile,
		RequestTimeout:      c.RequestTimeout,
	})
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	var logFile *os.File
	if cfg.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer cleanup()
		logFile = file
	}
	logger.Init(level, os.Stdout, logFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutdown signal received")
		cancel()
	}()

	srv := server.New(cfg, server.WithLogger(logger.GetLogger()))
	return srv.Start(ctx)
}

func main() {
	// best effort; a missing .env file is fine
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ollamabridge"),
		kong.Description("Anthropic Messages API gateway for local Ollama models"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
