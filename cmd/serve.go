package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/keygate/internal/api"
	"github.com/darmiel/keygate/internal/auth"
	"github.com/darmiel/keygate/internal/config"
	"github.com/darmiel/keygate/internal/service"
	"github.com/darmiel/keygate/internal/token"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Keygate server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		// initialize: load config, credential backend, token builder
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log.Info().Str("type", cfg.Authenticator.Type).Msg("Initializing credential backend...")
		authenticator, err := auth.Build(cfg.Authenticator)
		if err != nil {
			return fmt.Errorf("building authenticator: %w", err)
		}
		defer func() {
			if closer, ok := authenticator.(io.Closer); ok {
				_ = closer.Close()
			}
		}()

		builder, err := token.NewBuilder(cfg)
		if err != nil {
			return fmt.Errorf("resolving token signer: %w", err)
		}

		// setup server
		srv, err := api.NewServer(cfg, service.NewTokenService(builder, authenticator))
		if err != nil {
			return fmt.Errorf("building server: %w", err)
		}

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes(),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}
