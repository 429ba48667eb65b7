package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zulandar/helpline/internal/callcentre"
	"github.com/zulandar/helpline/internal/config"
	"github.com/zulandar/helpline/internal/db"
	"github.com/zulandar/helpline/internal/escalation"
	"github.com/zulandar/helpline/internal/httpapi"
	"github.com/zulandar/helpline/internal/notify"
	"github.com/zulandar/helpline/internal/session"
	"github.com/zulandar/helpline/internal/ticket"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Helpline API server",
		Long:  "Runs the escalation, call-centre and admin ticket API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "helpline.yaml", "path to Helpline config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	// Load .env if present; already-set environment variables win.
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.Port = port
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	var notifier escalation.Notifier = notify.Nop{}
	var slackNotifier *notify.Slack
	if cfg.Slack.Channel != "" {
		slackNotifier, err = notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.Channel,
		})
		if err != nil {
			return fmt.Errorf("slack notifier: %w", err)
		}
		notifier = slackNotifier
		fmt.Fprintf(out, "Slack notifications enabled for channel %s\n", cfg.Slack.Channel)
	}

	orch, err := escalation.New(escalation.Opts{
		Tracker:  session.NewTracker(),
		Store:    store,
		Dialer:   callcentre.NewSimDialer(nil),
		Notifier: notifier,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Slack.DigestSchedule != "" && slackNotifier != nil {
		digester, err := notify.NewDigester(store, slackNotifier, cfg.Slack.DigestSchedule)
		if err != nil {
			return fmt.Errorf("digester: %w", err)
		}
		go digester.Run(ctx)
		fmt.Fprintf(out, "Ticket digest scheduled: %s\n", cfg.Slack.DigestSchedule)
	}

	return httpapi.Start(ctx, httpapi.StartOpts{
		Orchestrator: orch,
		Store:        store,
		Port:         cfg.Port,
		Out:          out,
	})
}

// openStore picks the ticket store backing from config: volatile in-memory,
// or the sqlite file (migrated on open).
func openStore(cfg *config.Config) (ticket.Store, error) {
	if cfg.DB.Memory {
		return ticket.NewMemoryStore(), nil
	}
	gdb, err := db.Connect(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	store, err := ticket.NewGormStore(gdb)
	if err != nil {
		return nil, err
	}
	return store, nil
}
