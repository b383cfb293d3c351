package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/letters"
	"github.com/kailas-cloud/casedex/internal/memory"
	"github.com/kailas-cloud/casedex/internal/repository/snapshot"
)

// NewLetterCmd constructs the `casedex letter` command group.
func NewLetterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "letter",
		Short: "Manage exemplar letters from successful cases",
	}
	cmd.AddCommand(newLetterAddCmd(), newLetterListCmd())
	return cmd
}

func newLetterAddCmd() *cobra.Command {
	var filePath string
	var sectionsPath string
	var visaType string
	var profession string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Index an exemplar letter into the snapshot",
		Long: `Index a successful letter as an exemplar. The letter is embedded either
whole or per section: pass --sections with a JSON file mapping section
names to text to index sections individually. The updated snapshot is
saved back to the configured backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("read letter: %w", err)
			}

			var sections map[string]string
			if sectionsPath != "" {
				raw, err := os.ReadFile(sectionsPath)
				if err != nil {
					return fmt.Errorf("read sections: %w", err)
				}
				if err := json.Unmarshal(raw, &sections); err != nil {
					return fmt.Errorf("parse sections: %w", err)
				}
				for _, name := range sortedSectionNames(sections) {
					if _, ok := memory.Spec(name); !ok {
						return fmt.Errorf("section %q (known: %s): %w",
							name, strings.Join(memory.SectionNames(), ", "), domain.ErrUnknownSection)
					}
				}
			}

			emb, err := a.embedder(ctx)
			if err != nil {
				return err
			}

			store := corpus.NewStore(emb, a.logger)
			letterProc := letters.NewProcessor(store, a.logger)
			result, err := a.loadSnapshot(ctx, snapshot.Components{Corpus: store, Letters: letterProc})
			if err != nil {
				return err
			}

			md := domain.Metadata{
				domain.KeyVisaType:   visaType,
				domain.KeyProfession: profession,
			}
			letterID, err := letterProc.ProcessLetter(ctx, string(text), md, sections)
			if err != nil {
				return err
			}

			repo, err := a.snapshotRepo(ctx)
			if err != nil {
				return err
			}
			err = repo.Save(ctx, snapshot.Components{
				Corpus:    store,
				Graph:     result.Graph,
				Bipartite: result.Bipartite,
				Tree:      result.Tree,
				Letters:   letterProc,
			})
			if err != nil {
				return err
			}

			a.logger.Info("Letter indexed",
				zap.String("letter_id", letterID),
				zap.String("visa_type", visaType),
				zap.String("profession", profession))
			fmt.Fprintf(cmd.OutOrStdout(), "indexed letter %s\n", letterID)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Path to the letter text (required)")
	cmd.Flags().StringVar(&sectionsPath, "sections", "", "JSON file mapping section names to text for per-section indexing")
	cmd.Flags().StringVar(&visaType, "visa", "", "Visa type of the successful case (required)")
	cmd.Flags().StringVar(&profession, "profession", "", "Beneficiary profession of the successful case")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("visa")

	return cmd
}

func sortedSectionNames(sections map[string]string) []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newLetterListCmd() *cobra.Command {
	var visaType string
	var profession string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed exemplar letters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			// Listing never embeds, so no provider is needed.
			store := corpus.NewStore(nil, a.logger)
			letterProc := letters.NewProcessor(store, a.logger)
			if _, err := a.loadSnapshot(ctx, snapshot.Components{Corpus: store, Letters: letterProc}); err != nil {
				return err
			}

			entries := letterProc.Letters(visaType, profession)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no letters indexed")
				return nil
			}
			for _, md := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tvisa=%s\tprofession=%s\n",
					md.LetterID(), md.VisaType(), md.Profession())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&visaType, "visa", "", "Filter by visa type")
	cmd.Flags().StringVar(&profession, "profession", "", "Filter by profession")

	return cmd
}
