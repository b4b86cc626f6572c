package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/storage"
)

// passageEmbeddingCheckpoint identifies this processor's progress marker.
const passageEmbeddingCheckpoint = "passage-embedding"

// passageEmbeddingProcessor generates embeddings for stored passages.
type passageEmbeddingProcessor struct {
	passageRepository    storage.PassageRepository
	checkpointRepository storage.CheckpointRepository
	embedder             ai.Embedder
	logger               *slog.Logger

	// lastID is the checkpoint high-water mark, advanced by pool workers.
	mu     sync.Mutex
	lastID core.ID
}

var _ processor = (*passageEmbeddingProcessor)(nil)

// newPassageEmbeddingProcessor creates a new passage embedding processor.
// The checkpoint repository may be nil, in which case checkpoint is a no-op.
func newPassageEmbeddingProcessor(
	passageRepository storage.PassageRepository,
	checkpointRepository storage.CheckpointRepository,
	embedder ai.Embedder,
	logger *slog.Logger,
) (processor, error) {
	if passageRepository == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &passageEmbeddingProcessor{
		passageRepository:    passageRepository,
		checkpointRepository: checkpointRepository,
		embedder:             embedder,
		logger:               logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified passages.
func (pp *passageEmbeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	pp.logger.Info("processing passages for embeddings", "passages", len(ids))

	// Sort first so checkpointing works correctly
	slices.Sort(ids)

	passages := make([]*core.Passage, 0, len(ids))
	for _, id := range ids {
		passage, err := pp.passageRepository.GetPassage(ctx, id)
		if err != nil {
			pp.logger.Error("error retrieving passage", "id", id, "err", err)
			return err
		}
		passages = append(passages, passage)
	}
	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}

	pp.logger.Debug("generating embeddings for passages", "passages", len(texts))
	embeddings, err := pp.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		pp.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(passages) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(passages), len(embeddings))
	}

	for i := range embeddings {
		passages[i].Vector = embeddings[i]
	}

	updated, err := pp.passageRepository.UpdatePassages(ctx, passages...)
	if err != nil {
		return err
	}

	highestID := updated[len(updated)-1].Id
	pp.mu.Lock()
	if highestID > pp.lastID {
		pp.lastID = highestID
	}
	pp.mu.Unlock()

	return nil
}

// checkpoint persists the highest embedded passage id, so an interrupted
// build can be diagnosed and resumed from where embedding stopped.
func (pp *passageEmbeddingProcessor) checkpoint() error {
	pp.mu.Lock()
	lastID := pp.lastID
	pp.mu.Unlock()

	if pp.checkpointRepository == nil || lastID == 0 {
		return nil
	}
	return pp.checkpointRepository.SaveCheckpoint(context.Background(), &core.Checkpoint{
		ProcessorType: passageEmbeddingCheckpoint,
		LastId:        lastID,
		UpdatedAt:     time.Now().UTC(),
	})
}
