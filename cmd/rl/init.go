package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/ribbonlog/internal/db"
)

// starterConfig is written by rl init when no config exists yet.
const starterConfig = `# Ribbonlog configuration
site: Ribbon
timezone: America/Sao_Paulo
log_level: silent

storage:
  driver: sqlite        # sqlite or mysql
  path: ribbonlog.db
  key: ribbon-lots

dashboard:
  port: 8080
  max_upload_bytes: 5242880

# notify:
#   slack:
#     bot_token: xoxb-...
#     channel_id: C0123456
#   discord:
#     bot_token: ...
#     channel_id: "123456789"

# digest:
#   schedule: "0 7 * * 1-5"
#   limit: 5
`

func newInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file and the storage table",
		Long:  "Writes a starter ribbonlog.yaml if none exists, then connects to storage and migrates the entries table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	return cmd
}

func runInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	_, err := os.Stat(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", configPath, err)
		}
		fmt.Fprintf(out, "Wrote %s\n", configPath)
	case err != nil:
		return fmt.Errorf("stat %s: %w", configPath, err)
	default:
		fmt.Fprintf(out, "Using existing %s\n", configPath)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}
	fmt.Fprintf(out, "Migrated %d table(s) on %s\n", len(db.AllModels()), cfg.Storage.Driver)
	fmt.Fprintf(out, "Records are stored under key %q\n", cfg.Storage.Key)
	return nil
}
