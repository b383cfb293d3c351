package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/generate"
	"github.com/kailas-cloud/casedex/internal/letters"
	"github.com/kailas-cloud/casedex/internal/memory"
	"github.com/kailas-cloud/casedex/internal/repository/snapshot"
	"github.com/kailas-cloud/casedex/internal/template"
)

// NewGenerateCmd constructs the `casedex generate` command: draft a full
// petition letter for one case from a saved snapshot.
func NewGenerateCmd() *cobra.Command {
	var caseID string
	var visaType string
	var profession string
	var useExamples bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a petition letter document for a case",
		Long: `Generate a full petition letter for one case: the section list comes
from the template registry for the given profession and visa type (or the
default section order), evidence is retrieved per section from the case's
chunks, classified into template parts, synthesized, and assembled.

Without a configured generation provider the engine emits labeled
placeholder paragraphs, which is useful for pipeline dry runs.`,
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

			opts := generate.DefaultOptions()
			if a.cfg.Retrieval.CategoryTopK > 0 {
				opts.CategoryTopK = a.cfg.Retrieval.CategoryTopK
			}
			if a.cfg.Retrieval.DefaultTopK > 0 {
				opts.DefaultTopK = a.cfg.Retrieval.DefaultTopK
			}
			if a.cfg.Retrieval.ExampleTopK > 0 {
				opts.ExampleTopK = a.cfg.Retrieval.ExampleTopK
			}

			gen := generate.New(
				store,
				memory.New(a.logger),
				template.NewRegistry(a.logger),
				letterProc,
				a.textGenerator(),
				opts,
				a.logger,
			)

			result, err := gen.GenerateDocument(ctx, generate.DocumentRequest{
				CaseID:      caseID,
				Profession:  profession,
				VisaType:    visaType,
				UseExamples: useExamples,
			})
			if err != nil {
				return err
			}

			a.logger.Info("Document generated",
				zap.String("case_id", caseID),
				zap.Int("sections", len(result.SectionOrder)))

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(result.FullText), 0o644); err != nil {
					return fmt.Errorf("write document: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d sections)\n", outPath, len(result.SectionOrder))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.FullText)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case id to generate for (required)")
	cmd.Flags().StringVar(&visaType, "visa", "", "Visa type, e.g. EB1 or EB2 (required)")
	cmd.Flags().StringVar(&profession, "profession", "", "Beneficiary profession, e.g. engineer")
	cmd.Flags().BoolVar(&useExamples, "use-examples", false, "Blend in exemplar letters from successful cases")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the document to a file instead of stdout")
	_ = cmd.MarkFlagRequired("case")
	_ = cmd.MarkFlagRequired("visa")

	return cmd
}
