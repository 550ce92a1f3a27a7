package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chative/supportdesk/internal/agent/model"
	logx "github.com/chative/supportdesk/pkg/logger"
)

func init() {
	askCmd.Flags().String("session", "", "session id (defaults to a new random id)")
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message, or start an interactive session when no message is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx, appCfg)
		if err != nil {
			return err
		}
		defer app.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			return askOnce(cmd, app, sessionID, args[0], out)
		}

		fmt.Fprintf(out, "%s %s\n", color.CyanString("session:"), sessionID)
		fmt.Fprintln(out, color.HiBlackString("type a message, or /quit to exit"))
		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, color.GreenString("you> "))
			if !sc.Scan() {
				fmt.Fprintln(out)
				return sc.Err()
			}
			line := strings.TrimSpace(sc.Text())
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			}
			if err := askOnce(cmd, app, sessionID, line, out); err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
			}
		}
	},
}

// askOnce runs one turn and persists it the same way the HTTP channel does.
func askOnce(cmd *cobra.Command, app *App, sessionID, text string, out io.Writer) error {
	ctx := cmd.Context()
	userTurn := model.NewTurn(model.RoleUser, text)
	reply, err := app.Orchestrator.Invoke(ctx, model.QueryInput{SessionID: sessionID, Text: text})
	if err != nil {
		return err
	}
	for _, t := range []model.Turn{userTurn, model.NewTurn(model.RoleAssistant, reply)} {
		if err := app.Sessions.Append(ctx, sessionID, t); err != nil {
			logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to persist turn")
		}
	}
	fmt.Fprintf(out, "%s %s\n", color.BlueString("bot>"), reply)
	return nil
}
