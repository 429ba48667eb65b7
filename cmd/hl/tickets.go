package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/helpline/internal/config"
	"github.com/zulandar/helpline/internal/db"
	"github.com/zulandar/helpline/internal/models"
	"github.com/zulandar/helpline/internal/ticket"
)

func newTicketsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Inspect and manage escalation tickets",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "helpline.yaml", "path to Helpline config file")

	cmd.AddCommand(newTicketsListCmd(&configPath))
	cmd.AddCommand(newTicketsShowCmd(&configPath))
	cmd.AddCommand(newTicketsResolveCmd(&configPath))
	cmd.AddCommand(newTicketsDeleteCmd(&configPath))
	return cmd
}

func newTicketsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tickets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			tickets, err := store.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TICKET\tSESSION\tSTATUS\tATTEMPTS\tCREATED\tISSUES")
			for _, t := range tickets {
				issues := ""
				if t.Summary != nil {
					issues = strings.Join(t.Summary.KeyIssues, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					t.TicketID, t.SessionID, t.Status, t.Attempts,
					t.CreatedAt.Format("2006-01-02 15:04"), issues)
			}
			return w.Flush()
		},
	}
}

func newTicketsShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show one ticket in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			t, err := store.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ticket:   %s\n", t.TicketID)
			fmt.Fprintf(out, "Session:  %s\n", t.SessionID)
			fmt.Fprintf(out, "Status:   %s\n", t.Status)
			fmt.Fprintf(out, "Reason:   %s\n", t.Reason)
			fmt.Fprintf(out, "Attempts: %d\n", t.Attempts)
			fmt.Fprintf(out, "Created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
			if t.AssignedAgent != "" {
				fmt.Fprintf(out, "Agent:    %s\n", t.AssignedAgent)
			}
			if t.PhoneNumber != "" {
				fmt.Fprintf(out, "Phone:    %s\n", t.PhoneNumber)
			}
			if t.Summary != nil {
				fmt.Fprintf(out, "\nSentiment: %s\n", t.Summary.CustomerSentiment)
				fmt.Fprintf(out, "Issues:    %s\n", strings.Join(t.Summary.KeyIssues, ", "))
				fmt.Fprintf(out, "Duration:  %s (%d messages)\n", t.Summary.Duration, t.Summary.MessageCount)
				fmt.Fprintf(out, "Summary:   %s\n", t.Summary.Summary)
			}
			return nil
		},
	}
}

func newTicketsResolveCmd(configPath *string) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "resolve <ticket-id>",
		Short: "Mark a ticket resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			status := models.StatusResolved
			fields := ticket.UpdateFields{Status: &status}
			if agent != "" {
				fields.AssignedAgent = &agent
			}
			t, err := store.Update(args[0], fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s resolved\n", t.TicketID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "agent closing the ticket")
	return cmd
}

func newTicketsDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ticket-id>",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s deleted\n", args[0])
			return nil
		},
	}
}

// storeFromConfig opens the sqlite-backed store named in the config file.
// CLI ticket management needs the durable store; the in-memory store only
// exists inside a running server process.
func storeFromConfig(configPath string) (ticket.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	return ticket.NewGormStore(gdb)
}
