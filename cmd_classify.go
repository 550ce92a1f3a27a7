package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chative/supportdesk/internal/agent/graph/nodes"
)

func init() {
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Print the detected intent and confidence for a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var cms *nodes.ChatModels
		if mcfg := classifierModelConfig(appCfg); mcfg != nil {
			var err error
			cms, err = nodes.NewChatModels(ctx, nodes.ChatModelConfig{
				APIKey:     appCfg.APIKey,
				BaseURL:    appCfg.BaseURL,
				Generator:  &appCfg.Generator,
				Classifier: mcfg,
			})
			if err != nil {
				return err
			}
		}

		c, err := buildClassifier(appCfg, cms)
		if err != nil {
			return err
		}

		res, err := c.Classify(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		res = res.Normalized()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s %.2f\n",
			color.CyanString("intent:"), res.Label,
			color.CyanString("confidence:"), res.Confidence)
		return nil
	},
}
