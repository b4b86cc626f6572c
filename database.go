// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package triad

import (
	"log/slog"

	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/ai/openai"
	"github.com/poiesic/triad/graph"
	"github.com/poiesic/triad/ingestion"
	"github.com/poiesic/triad/retrieve"
	"github.com/poiesic/triad/storage"
	"github.com/poiesic/triad/storage/badger"
)

// Database bundles the storage backend, repositories, AI provider and the
// canonical graph store behind one handle. It is the assembly point the
// commands build on: open it once, then create pipelines, expanders and
// retrievers from it.
type Database struct {
	backend        *badger.Backend
	graphRepo      storage.GraphRepository
	passageRepo    storage.PassageRepository
	checkpointRepo storage.CheckpointRepository
	store          *graph.Store
	provider       ai.AIProvider
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider supplies a pre-built AI provider instead of constructing
// the default OpenAI-compatible one. Used by tests and embedders that run
// without a model server.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// NewDatabase opens (or creates) a database at the given path.
// An empty path opens an in-memory database.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	// Create graph repository
	graphRepo, err := badger.NewGraphRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create passage repository
	passageRepo, err := badger.NewPassageRepository(backend)
	if err != nil {
		graphRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create checkpoint repository
	checkpointRepo := badger.NewCheckpointRepository(backend)

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			passageRepo.Close()
			graphRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	// The canonicalizing store sits in front of the graph repository
	store, err := graph.NewStore(graphRepo)
	if err != nil {
		provider.Close()
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:        backend,
		graphRepo:      graphRepo,
		passageRepo:    passageRepo,
		checkpointRepo: checkpointRepo,
		store:          store,
		provider:       provider,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.passageRepo.Close(); err != nil {
		db.logger.Error("error closing passage repository", "err", err)
		return err
	}
	if err := db.graphRepo.Close(); err != nil {
		db.logger.Error("error closing graph repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) GraphRepository() storage.GraphRepository {
	return db.graphRepo
}

func (db *Database) PassageRepository() storage.PassageRepository {
	return db.passageRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

// GraphStore returns the canonicalizing store over the graph repository.
func (db *Database) GraphStore() *graph.Store {
	return db.store
}

// Provider returns the configured AI provider.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewIngestionPipeline creates a pipeline writing into this database.
// Embedding checkpoints are wired in by default.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithCheckpoints(db.checkpointRepo)}, opts...)
	return ingestion.NewPipeline(db.store, db.passageRepo, db.provider, opts...)
}

// NewExpander creates a graph expander over this database's store.
func (db *Database) NewExpander(opts ...graph.ExpanderOption) (*graph.Expander, error) {
	return graph.NewExpander(db.store, opts...)
}

// NewRetriever creates a hybrid retriever over this database.
func (db *Database) NewRetriever(opts ...retrieve.Option) (*retrieve.Retriever, error) {
	expander, err := graph.NewExpander(db.store)
	if err != nil {
		return nil, err
	}
	return retrieve.NewRetriever(expander, db.passageRepo, db.provider.Embedder(), opts...)
}
