package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/kg"
	"github.com/kailas-cloud/casedex/internal/letters"
	"github.com/kailas-cloud/casedex/internal/repository/snapshot"
)

// manifestEntry is one line of the JSONL ingest manifest. Entries tagged as
// letter examples are routed through the exemplar processor; everything else
// is a case document.
type manifestEntry struct {
	Text     string            `json:"text"`
	Metadata domain.Metadata   `json:"metadata"`
	Sections map[string]string `json:"sections,omitempty"`
}

// maxManifestLine bounds a single JSONL line (large documents are expected).
const maxManifestLine = 16 * 1024 * 1024

// NewBuildCmd constructs the `casedex build` command: ingest a manifest,
// build the knowledge graph, and persist the snapshot.
func NewBuildCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Ingest a JSONL manifest, build the knowledge graph, and save a snapshot",
		Long: `Read case documents and exemplar letters from a JSONL manifest, embed
and index them, build the per-case knowledge graph (document links,
similarity links, PageRank, keyword index, customer tree), and persist
everything as one snapshot.

Each manifest line is a JSON object:
  {"text": "...", "metadata": {"case_id": "case_001", "visa_type": "EB1", ...}}

Lines whose metadata carries "is_letter_example": true (or an optional
"sections" object mapping section names to text) are indexed as exemplar
letters instead of case documents.`,
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

			docs, letterCount, err := ingestManifest(cmd, manifestPath, store, letterProc)
			if err != nil {
				return err
			}
			if store.Len() == 0 {
				return fmt.Errorf("manifest %s produced no chunks: %w", manifestPath, domain.ErrEmptyCorpus)
			}

			params := kg.BuildParams{
				SimilarityThreshold: a.cfg.Graph.SimilarityThreshold,
				ExplicitEdgeWeight:  a.cfg.Graph.ExplicitEdgeWeight,
				PageRank: kg.PageRankParams{
					Damping:   a.cfg.Graph.PageRankDamping,
					Tolerance: a.cfg.Graph.PageRankTolerance,
					MaxIter:   a.cfg.Graph.PageRankMaxIter,
				},
			}
			builder := kg.NewBuilder(params, a.tagger(), a.logger)
			result, err := builder.Build(ctx, store)
			if err != nil {
				return fmt.Errorf("build graph: %w", err)
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

			a.logger.Info("Build complete",
				zap.Int("documents", docs),
				zap.Int("letters", letterCount),
				zap.Int("chunks", store.Len()),
				zap.Int("graph_nodes", result.Graph.NodeCount()),
				zap.Int("graph_edges", result.Graph.EdgeCount()),
				zap.Int("tree_nodes", result.Tree.NodeCount()))
			fmt.Fprintf(cmd.OutOrStdout(),
				"built corpus: %d documents, %d letters, %d chunks, %d graph nodes, %d graph edges\n",
				docs, letterCount, store.Len(), result.Graph.NodeCount(), result.Graph.EdgeCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to the JSONL ingest manifest (required)")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func ingestManifest(
	cmd *cobra.Command,
	path string,
	store *corpus.Store,
	letterProc *letters.Processor,
) (docs, letterCount int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), maxManifestLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var entry manifestEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return docs, letterCount, fmt.Errorf("manifest line %d: %w", line, err)
		}

		if entry.Metadata.IsLetterExample() || len(entry.Sections) > 0 {
			if _, err := letterProc.ProcessLetter(cmd.Context(), entry.Text, entry.Metadata, entry.Sections); err != nil {
				return docs, letterCount, fmt.Errorf("manifest line %d: %w", line, err)
			}
			letterCount++
			continue
		}

		if _, err := store.ProcessDocument(cmd.Context(), entry.Text, entry.Metadata); err != nil {
			return docs, letterCount, fmt.Errorf("manifest line %d: %w", line, err)
		}
		docs++
	}
	if err := scanner.Err(); err != nil {
		return docs, letterCount, fmt.Errorf("read manifest: %w", err)
	}
	return docs, letterCount, nil
}
