// Package snapshot persists the built engine state (corpus, graph,
// bipartite index, customer tree, letter registry) as one versioned
// JSON document, behind pluggable storage backends.
package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/kg"
	"github.com/kailas-cloud/casedex/internal/letters"
)

// Backend stores and retrieves the encoded snapshot document.
type Backend interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// Components names the engine parts a snapshot covers. Corpus is required;
// nil Graph/Bipartite/Tree/Letters encode as empty sections.
type Components struct {
	Corpus    *corpus.Store
	Graph     *kg.Graph
	Bipartite *kg.Bipartite
	Tree      *kg.CustomerTree
	Letters   *letters.Processor
}

// Repository saves and loads snapshots through a backend.
type Repository struct {
	backend Backend
	logger  *zap.Logger
}

func NewRepository(backend Backend, logger *zap.Logger) *Repository {
	return &Repository{backend: backend, logger: logger}
}

// Save encodes the components and writes the document to the backend.
func (r *Repository) Save(ctx context.Context, c Components) error {
	data, err := encode(c)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	r.logger.Info("Snapshot saved",
		zap.Int("bytes", len(data)),
		zap.Int("chunks", c.Corpus.Len()))
	return nil
}

// Load reads the document from the backend, rehydrates the corpus store and
// letter registry in place, and returns the rebuilt graph structures.
func (r *Repository) Load(ctx context.Context, c Components) (*kg.Result, error) {
	data, err := r.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	result, err := decode(data, c)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Snapshot loaded",
		zap.Int("chunks", c.Corpus.Len()),
		zap.Int("graph_nodes", result.Graph.NodeCount()),
		zap.Int("graph_edges", result.Graph.EdgeCount()))
	return result, nil
}
