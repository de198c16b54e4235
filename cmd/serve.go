package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bryant005/NerdsMedia/internal/config"
	"github.com/Bryant005/NerdsMedia/internal/kv"
	"github.com/Bryant005/NerdsMedia/internal/repo"
	"github.com/Bryant005/NerdsMedia/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		store, err := kv.Open(cfg.StorePath)
		if err != nil {
			// Run on an in-memory store rather than refuse to start;
			// content added this session will not survive a restart.
			log.Printf("Warning: could not open store at %s: %v", cfg.StorePath, err)
			log.Printf("Running with in-memory storage for this session.")
			store, err = kv.OpenMemory()
			if err != nil {
				return fmt.Errorf("opening in-memory store: %w", err)
			}
		}
		defer store.Close()

		rep := repo.New(store, cfg.DataDir)
		rep.Load()

		srv, err := server.New(rep, server.Config{
			SiteTitle:      cfg.SiteTitle,
			BaseURL:        cfg.BaseURL,
			MaxUploadBytes: cfg.MaxUploadBytes,
		})
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}

		httpSrv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Server starting on %s", cfg.Addr)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			log.Printf("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
