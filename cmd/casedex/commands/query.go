package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/letters"
	"github.com/kailas-cloud/casedex/internal/repository/snapshot"
	"github.com/kailas-cloud/casedex/internal/retrieval"
)

// NewQueryCmd constructs the `casedex query` command: case-scoped retrieval
// against a saved snapshot.
func NewQueryCmd() *cobra.Command {
	var caseID string
	var query string
	var topK int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Retrieve the most relevant chunks for a query, scoped to one case",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			emb, err := a.embedder(ctx)
			if err != nil {
				return err
			}

			store := corpus.NewStore(emb, a.logger)
			letterProc := letters.NewProcessor(store, a.logger)
			if _, err := a.loadSnapshot(ctx, snapshot.Components{Corpus: store, Letters: letterProc}); err != nil {
				return err
			}

			if topK <= 0 {
				topK = a.cfg.Retrieval.DefaultTopK
			}

			cc := retrieval.NewCaseContext(store, caseID, a.logger)
			results, err := cc.RetrieveForCase(ctx, query, topK)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no chunks found for case %q\n", caseID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), retrieval.FormatForPrompt(query, results))
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case id to scope retrieval to (required)")
	cmd.Flags().StringVar(&query, "query", "", "Retrieval query (required)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of chunks to return (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw results as JSON")
	_ = cmd.MarkFlagRequired("case")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}
