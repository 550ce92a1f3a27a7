package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chative/supportdesk/internal/agent/knowledge"
)

func init() {
	ingestCmd.Flags().String("dir", "", "knowledge directory (overrides KNOWLEDGE_DIR)")
	ingestCmd.Flags().String("query", "", "run a retrieval query against the built index")
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk the knowledge documents and report what was indexed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := *appCfg
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			cfg.Knowledge.Dir = dir
		}

		docs, err := knowledge.LoadDir(ctx, cfg.Knowledge.Dir, knowledge.Splitter{
			Size:    cfg.Knowledge.ChunkSize,
			Overlap: cfg.Knowledge.ChunkOverlap,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		perSource := map[string]int{}
		for _, d := range docs {
			src, _ := d.MetaData[knowledge.MetaSource].(string)
			perSource[src]++
		}
		sources := make([]string, 0, len(perSource))
		for s := range perSource {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		for _, s := range sources {
			fmt.Fprintf(out, "%-40s %d chunks\n", s, perSource[s])
		}
		fmt.Fprintf(out, "%s %d chunks from %d documents\n", color.GreenString("indexed"), len(docs), len(sources))

		query, _ := cmd.Flags().GetString("query")
		if query == "" {
			return nil
		}

		ix := knowledge.NewIndex(cfg.Retriever.TopK)
		ix.Add(docs...)
		ix.Seal()
		snippets, err := knowledge.NewPortRetriever(ix, cfg.Retriever.Timeout).Retrieve(ctx, query, cfg.Retriever.TopK)
		if err != nil {
			return err
		}
		for i, s := range snippets {
			fmt.Fprintf(out, "\n%s %s\n%s\n", color.CyanString("#%d", i+1), s.Source, s.Content)
		}
		return nil
	},
}
