// docchat TUI - chat with your documents and draft new ones from a
// terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/docchat-tui/internal/attach"
	"github.com/jeranaias/docchat-tui/internal/chat"
	"github.com/jeranaias/docchat-tui/internal/cli"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/gemini"
	"github.com/jeranaias/docchat-tui/internal/plan"
	"github.com/jeranaias/docchat-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.docchat/config.toml)")
		plainMode   = flag.Bool("plain", false, "use the line-oriented interface")
		modelName   = flag.String("model", "", "override the configured model")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("docchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath, *plainMode, *modelName); err != nil {
		fmt.Fprintln(os.Stderr, "docchat:", err)
		os.Exit(1)
	}
}

func run(configPath string, plainMode bool, modelName string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if modelName != "" {
		cfg.API.Model = modelName
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		return fmt.Errorf("no API key: set %s or api.key_env in the config", cfg.API.KeyEnv)
	}

	client := gemini.NewClient(&gemini.ClientConfig{
		BaseURL:           cfg.API.Endpoint,
		APIKey:            apiKey,
		Model:             cfg.API.Model,
		SystemPrompt:      chat.SystemPrompt(cfg.UI.StyleNotes),
		MaxAttempts:       cfg.Stream.MaxAttempts,
		RetryDelay:        time.Duration(cfg.Stream.RetryBackoffMs) * time.Millisecond,
		RequestsPerMinute: cfg.API.RequestsPerMinute,
	})
	resolver := attach.NewResolver(client, cfg.InlineAttachmentBytes(), cfg.MaxAttachmentBytes())
	session := chat.NewSession(client, resolver)
	orchestrator := plan.NewOrchestrator(session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startConfigWatcher(ctx, configPath, cfg)

	if plainMode || cfg.UI.PlainMode || !cli.IsTTY() || !cli.IsStdoutTTY() {
		repl := cli.NewREPL(cfg, session, orchestrator)
		defer repl.Close()
		return repl.Run(ctx)
	}
	return ui.Run(cfg, session, orchestrator)
}

// loadConfig reads the explicit path when given, otherwise the default
// location. A missing file yields defaults either way.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// startConfigWatcher hot-reloads edits to the config file for the rest
// of the process lifetime. Watch failures are not fatal; the session
// just keeps its startup config.
func startConfigWatcher(ctx context.Context, path string, cfg *config.Config) {
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return
		}
		path = p
	}

	w, err := config.NewWatcher(path, func(next *config.Config) {
		cfg.Limits = next.Limits
		cfg.UI.ExportDir = next.UI.ExportDir
	})
	if err != nil {
		return
	}
	go func() { _ = w.Watch(ctx) }()
}
