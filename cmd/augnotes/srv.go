package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"augnotes/internal/blobstore"
	"augnotes/internal/config"
	"augnotes/internal/server"
	"augnotes/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "srv",
		Short: "Run the augnotes web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if _, err := configureLogger(logLevel, cfg.LogLevel); err != nil {
					return err
				}
			}

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
			}
			defer st.Close()

			blobs, err := blobstore.NewLocalCAS(cfg.BlobRoot)
			if err != nil {
				return fmt.Errorf("failed to open blob store %s: %w", cfg.BlobRoot, err)
			}

			logger := slog.Default()
			logger.Info("augnotes starting",
				"version", version,
				"db", cfg.DBPath,
				"blobs", cfg.BlobRoot,
				"admin_emails", len(cfg.AdminEmails))

			srv := server.New(addr, st, blobs, cfg, logger)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}
