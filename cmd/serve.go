package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medflow-cli/internal/agents"
	"github.com/KaramelBytes/medflow-cli/internal/logger"
	"github.com/KaramelBytes/medflow-cli/internal/quality"
	"github.com/KaramelBytes/medflow-cli/internal/server"
)

var (
	serveAddr     string
	serveDataPath string
	serveFlags    assistFlags
	serveAgents   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over an in-memory dataset",
	Example: `  medflow serve --data deliveries.json
  medflow serve --addr 0.0.0.0:9000 --provider ollama --model llama3.1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		srv := server.New()
		srv.MaxNodes = c.MaxNodes
		srv.MaxContextTokens = c.MaxContextTokens
		srv.BodyLimit = c.ServerBodyLimit
		srv.Limiter = agents.NewLimiter(c.AIRequestsPerMinute)

		if path := firstNonEmpty(serveAgents, c.AgentsFile); path != "" {
			specs, err := agents.LoadSpecs(path)
			if err != nil {
				return err
			}
			srv.Specs = specs
		}

		provider, model, err := serveFlags.resolve()
		if err == nil {
			srv.Model = model
			srv.Runtime, err = newRuntime(provider)
		}
		if err != nil {
			cmd.PrintErrf("⚠ Warning: AI endpoints disabled: %v\n", err)
			srv.Runtime = nil
		}

		if serveDataPath != "" {
			res, err := readInput(cmd, serveDataPath)
			if err != nil {
				return err
			}
			ds := srv.Store.Put(res)
			cmd.PrintErrf("✓ Loaded %d rows from %s (%s)\n", ds.Rows, serveDataPath, ds.Format)
			if u := quality.FromResult(res).Unresolved(); len(u) > 0 {
				cmd.PrintErrf("⚠ Warning: unmapped headers: %s\n", strings.Join(u, ", "))
			}
		}

		addr := serveAddr
		if addr == "" {
			addr = c.ServerAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.PrintErrf("✓ Listening on http://%s\n", addr)
		logger.Named("cmd").Infow("serve", logger.FieldAddress, addr, logger.FieldProvider, provider)
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (config: server_addr)")
	serveCmd.Flags().StringVar(&serveDataPath, "data", "", "file imported at startup")
	serveCmd.Flags().StringVar(&serveFlags.provider, "provider", "", "runtime for the AI endpoints: openrouter|ollama")
	serveCmd.Flags().StringVar(&serveFlags.model, "model", "", "model override for the AI endpoints")
	serveCmd.Flags().StringVar(&serveAgents, "agents", "", "YAML file of agent specs for /api/pipeline")
}
