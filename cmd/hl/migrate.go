package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/helpline/internal/config"
	"github.com/zulandar/helpline/internal/db"
	"github.com/zulandar/helpline/internal/ticket"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ticket database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "helpline.yaml", "path to Helpline config file")
	return cmd
}

func runMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DB.Memory {
		return fmt.Errorf("migrate: db.memory is set; nothing to migrate")
	}

	gdb, err := db.Connect(cfg.DB.Path)
	if err != nil {
		return err
	}
	if _, err := ticket.NewGormStore(gdb); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s migrated\n", cfg.DB.Path)
	return nil
}
