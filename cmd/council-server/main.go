// Command council-server hosts the tool collection over HTTP: conversation
// management backed by the council orchestrator, plus one endpoint per
// standalone tool adapter.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/matheusbuniotto/openwebui-tools/internal/config"
)

func main() {
	config.LoadDotenv()

	configPath := os.Getenv("TOOLS_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv := newServer(cfg)

	log.Printf("Starting OpenWebUI tools backend on port %d...", cfg.Server.Port)
	if err := srv.router().Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
