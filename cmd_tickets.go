package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/internal/agent/repo"
)

func init() {
	ticketsListCmd.Flags().String("status", "", "filter by status (open, in_progress, resolved, closed)")
	ticketsListCmd.Flags().String("session", "", "filter by session id")
	ticketsListCmd.Flags().Int("limit", 50, "maximum tickets to show")

	ticketsCmd.AddCommand(ticketsListCmd, ticketsShowCmd, ticketsSetStatusCmd, ticketsResolveCmd)
	rootCmd.AddCommand(ticketsCmd)
}

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Inspect and update escalation tickets",
}

func openTickets() (repo.TicketStore, error) {
	return repo.NewSQLiteTicketStore(appCfg.Ticket.DBPath)
}

func statusColor(s model.TicketStatus) string {
	switch s {
	case model.TicketOpen:
		return color.YellowString(string(s))
	case model.TicketInProgress:
		return color.CyanString(string(s))
	case model.TicketResolved, model.TicketClosed:
		return color.GreenString(string(s))
	}
	return string(s)
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		session, _ := cmd.Flags().GetString("session")
		limit, _ := cmd.Flags().GetInt("limit")
		if status != "" && !model.TicketStatus(status).Valid() {
			return fmt.Errorf("unknown status %q", status)
		}

		store, err := openTickets()
		if err != nil {
			return err
		}
		defer store.Close()

		tickets, err := store.List(cmd.Context(), repo.ListOptions{
			Status:    model.TicketStatus(status),
			SessionID: session,
			Limit:     limit,
		})
		if err != nil {
			return err
		}
		if len(tickets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no tickets")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKET\tSTATUS\tSESSION\tCREATED\tMESSAGE")
		for _, t := range tickets {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				t.ID, statusColor(t.Status), t.SessionID,
				t.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(t.UserMessage, 60))
		}
		return tw.Flush()
	},
}

var ticketsShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show one ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTickets()
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := store.Get(cmd.Context(), args[0])
		if errors.Is(err, repo.ErrTicketNotFound) {
			return fmt.Errorf("ticket %s not found", args[0])
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", color.CyanString("ticket: "), t.ID)
		fmt.Fprintf(out, "%s %s\n", color.CyanString("status: "), statusColor(t.Status))
		fmt.Fprintf(out, "%s %s\n", color.CyanString("session:"), t.SessionID)
		fmt.Fprintf(out, "%s %s\n", color.CyanString("created:"), t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "%s %s\n", color.CyanString("updated:"), t.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "%s\n%s\n", color.CyanString("message:"), t.UserMessage)
		return nil
	},
}

var ticketsSetStatusCmd = &cobra.Command{
	Use:   "set-status <ticket-id> <status>",
	Short: "Move a ticket to another status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTicketStatus(cmd, args[0], model.TicketStatus(args[1]))
	},
}

var ticketsResolveCmd = &cobra.Command{
	Use:   "resolve <ticket-id>",
	Short: "Mark a ticket resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTicketStatus(cmd, args[0], model.TicketResolved)
	},
}

func setTicketStatus(cmd *cobra.Command, id string, status model.TicketStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	store, err := openTickets()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.UpdateStatus(cmd.Context(), id, status); err != nil {
		if errors.Is(err, repo.ErrTicketNotFound) {
			return fmt.Errorf("ticket %s not found", id)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, statusColor(status))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
