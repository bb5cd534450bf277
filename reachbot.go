package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/reachloop/reachbot/cmd/reachbot"
	"github.com/reachloop/reachbot/internal/config"
)

//go:embed etc/reachbot.yaml
var embeddedConfig []byte

func main() {
	// Load .env if present; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadBytes(embeddedConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.SetupRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
