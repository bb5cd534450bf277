// Package cli wires the reachbot commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reachloop/reachbot/internal/agent/ai"
	"github.com/reachloop/reachbot/internal/agent/orchestrator"
	"github.com/reachloop/reachbot/internal/agent/runner"
	"github.com/reachloop/reachbot/internal/agent/tools"
	"github.com/reachloop/reachbot/internal/automation"
	"github.com/reachloop/reachbot/internal/cascade"
	"github.com/reachloop/reachbot/internal/config"
	"github.com/reachloop/reachbot/internal/logging"
	"github.com/reachloop/reachbot/internal/screenshot"
	"github.com/reachloop/reachbot/internal/selectors"
	"github.com/reachloop/reachbot/internal/server"
)

// SetupRootCmd builds the command tree over a loaded configuration.
func SetupRootCmd(cfg *config.Config) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "reachbot",
		Short: "Self-healing browser-automation agent for outreach actions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return nil
			}
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file overriding the embedded defaults")

	root.AddCommand(serveCmd(cfg))
	root.AddCommand(actCmd(cfg))
	return root
}

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the action API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}
}

func actCmd(cfg *config.Config) *cobra.Command {
	var req orchestrator.Request
	var action string

	cmd := &cobra.Command{
		Use:   "act",
		Short: "Run a single action and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Disable()
			req.Action = orchestrator.Action(action)

			orch, client, _, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			resp, err := orch.Do(ctx, req)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "read_chat", "action to run: read_chat, send_message, send_connection")
	cmd.Flags().StringVar(&req.ProfileURL, "profile-url", "", "target profile URL")
	cmd.Flags().IntVar(&req.Limit, "limit", 10, "number of messages to read (read_chat)")
	cmd.Flags().StringVar(&req.ThreadHint, "thread-hint", "", "free-text hint identifying the thread (read_chat)")
	cmd.Flags().StringVar(&req.Message, "message", "", "message body (send_message)")
	cmd.Flags().StringVar(&req.Note, "note", "", "invitation note (send_connection)")
	_ = cmd.MarkFlagRequired("profile-url")
	return cmd
}

func runServe(cfg *config.Config) error {
	orch, client, store, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	srv := server.New(cfg.Listen, orch, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildOrchestrator assembles the full stack from configuration. The caller
// owns closing the automation client.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, *automation.Client, *selectors.Store, error) {
	seeds, err := seedsFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	store := selectors.NewStore(seeds)

	client := automation.NewClient(cfg.Automation.Endpoint)
	engine := cascade.New(automation.NewDOM(client), store, cascade.Config{
		Settle:     cfg.Cascade.Settle(),
		PollBudget: cfg.Cascade.PollBudget(),
		PollEvery:  cfg.Cascade.PollEvery(),
	})
	shots := screenshot.NewClient(cfg.Screenshot.BaseURL)

	registry := tools.NewCatalog(engine, client, shots, store)

	apiKey := cfg.Model.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	completer := ai.NewOpenAIProvider(apiKey, cfg.Model.Name)
	loop := runner.New(completer, registry, cfg.Model.Name, cfg.Agent.MaxIterations)

	return orchestrator.New(loop), client, store, nil
}

// seedsFromConfig merges configured seed overrides over the defaults.
func seedsFromConfig(cfg *config.Config) (selectors.SeedTable, error) {
	seeds := selectors.DefaultSeeds()
	for name, list := range cfg.Seeds {
		feature, ok := selectors.Parse(name)
		if !ok {
			return nil, fmt.Errorf("config: unknown seed feature %q", name)
		}
		seeds[feature] = list
	}
	return seeds, nil
}
