package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/internal/agent/repo"
)

func init() {
	sessionsHistoryCmd.Flags().Int("limit", 50, "maximum turns to show")
	sessionsCmd.AddCommand(sessionsHistoryCmd, sessionsClearCmd)
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect or clear session history stored in Redis",
}

// sessionAdmin is the subset of the session stores used by operators.
type sessionAdmin interface {
	model.SessionStore
	Count(ctx context.Context, sessionID string) (int, error)
	Clear(ctx context.Context, sessionID string) error
}

func withSessionStore(cmd *cobra.Command, fn func(sessionAdmin) error) error {
	if !appCfg.Redis.Enabled() {
		return errors.New("REDIS_URL is not set; in-memory history belongs to the serving process")
	}
	rdb, err := appCfg.Redis.New(cmd.Context())
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	return fn(repo.NewRedisSessionStore(rdb, appCfg.Session))
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print the stored turns of a session, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withSessionStore(cmd, func(s sessionAdmin) error {
			return printHistory(cmd.Context(), cmd.OutOrStdout(), s, args[0], limit)
		})
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Delete the stored history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessionStore(cmd, func(s sessionAdmin) error {
			return clearSession(cmd.Context(), cmd.OutOrStdout(), s, args[0])
		})
	},
}

func printHistory(ctx context.Context, out io.Writer, s sessionAdmin, sessionID string, limit int) error {
	total, err := s.Count(ctx, sessionID)
	if err != nil {
		return err
	}
	turns, err := s.Recent(ctx, sessionID, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s (%d of %d turns)\n", color.CyanString("session:"), sessionID, len(turns), total)
	for _, t := range turns {
		role := color.GreenString("%-9s", t.Role)
		if t.Role == model.RoleAssistant {
			role = color.BlueString("%-9s", t.Role)
		}
		fmt.Fprintf(out, "%s %s %s\n", t.Timestamp.Local().Format("15:04:05"), role, t.Content)
	}
	return nil
}

func clearSession(ctx context.Context, out io.Writer, s sessionAdmin, sessionID string) error {
	n, err := s.Count(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.Clear(ctx, sessionID); err != nil {
		return err
	}
	fmt.Fprintf(out, "cleared %d turns from %s\n", n, sessionID)
	return nil
}
