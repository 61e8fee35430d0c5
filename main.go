// ABOUTME: Entry point for the Lyricium player
// ABOUTME: Loads configuration, sets up logging and runs the player until quit
package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lyricium/lyricium-go/internal/app"
	"github.com/Lyricium/lyricium-go/internal/config"
	"github.com/Lyricium/lyricium-go/internal/version"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if cfg.NoTUI {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		// TUI mode: log only to file
		log.SetOutput(f)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)
	if cfg.Path != "" {
		log.Printf("Config loaded from %s", cfg.Path)
	}

	p := app.New(cfg)
	if err := p.Start(); err != nil {
		p.Stop()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		log.Fatalf("Failed to start player: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case <-p.Done():
	}

	p.Stop()
}
