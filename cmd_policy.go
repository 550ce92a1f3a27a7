package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chative/supportdesk/internal/agent/policy"
)

func init() {
	policyCmd.Flags().String("check", "", "evaluate a reply against the policy")
	rootCmd.AddCommand(policyCmd)
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show the active escalation policy, or check a reply against it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := policy.Load(appCfg.Escalation.PolicyFile)
		if err != nil {
			return fmt.Errorf("escalation policy: %w", err)
		}
		check, _ := cmd.Flags().GetString("check")
		printPolicy(cmd.OutOrStdout(), p, check)
		return nil
	},
}

func printPolicy(out io.Writer, p *policy.Policy, check string) {
	if check != "" {
		d := p.Explain(check)
		if !d.Escalate {
			fmt.Fprintln(out, color.GreenString("pass"))
			return
		}
		fmt.Fprintf(out, "%s %s (%q)\n", color.YellowString("escalate:"), d.Reason, d.Match)
		return
	}

	fmt.Fprintln(out, color.CyanString("low confidence phrases:"))
	printList(out, p.Phrases())
	fmt.Fprintln(out, color.CyanString("risk patterns:"))
	printList(out, p.Patterns())
}

func printList(out io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	fmt.Fprintln(out, "  "+strings.Join(items, "\n  "))
}
