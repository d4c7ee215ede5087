package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/query"
	"github.com/KaramelBytes/datalens-cli/internal/server"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
	serveData     dataFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (/api/upload, /api/query)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := serveData.options(cmd)
		if err != nil {
			return err
		}
		lo, err := serveData.loadOptions()
		if err != nil {
			return err
		}
		classifier, err := aiClassifier(c, serveProvider, serveModel)
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		svc := query.NewService(classifier, opt, logger)
		srv := server.New(server.Config{Addr: addr, MaxBodyBytes: c.MaxUploadBytes, Load: lo}, svc, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Listening on %s\n", addr)
		if err := srv.ListenAndServe(ctx); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveData.register(serveCmd.Flags())
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides listen_addr)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "AI provider: openrouter|ollama (default from config)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name (default from config)")
}
