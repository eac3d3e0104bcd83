package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/clausemind/internal/config"
	"github.com/kirillkom/clausemind/internal/core/ports"
	"github.com/kirillkom/clausemind/internal/core/usecase"
	"github.com/kirillkom/clausemind/internal/infrastructure/chunking"
	"github.com/kirillkom/clausemind/internal/infrastructure/extractor"
	pdfextract "github.com/kirillkom/clausemind/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/clausemind/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/clausemind/internal/infrastructure/extractor/spreadsheet"
	"github.com/kirillkom/clausemind/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/clausemind/internal/infrastructure/queue/nats"
	"github.com/kirillkom/clausemind/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/clausemind/internal/infrastructure/resilience"
	"github.com/kirillkom/clausemind/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/clausemind/internal/infrastructure/vector/exact"
	"github.com/kirillkom/clausemind/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.CatalogRepository
	Index ports.VectorIndex

	IngestUC ports.DocumentIngestor
	IndexUC  ports.DocumentIndexer
	DecideUC ports.DecisionService
	DeleteUC ports.DocumentDeleter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewCatalogRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	reasoner := ollama.NewReasoner(ollamaClient)
	entities := ollama.NewEntityExtractor(ollamaClient)

	index, err := buildIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chunker, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	texts := extractor.NewRegistry(plaintext.NewExtractor(storage))
	texts.Register("application/pdf", pdfextract.NewExtractor(storage))
	texts.Register("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", spreadsheet.NewExtractor(storage))
	texts.Register("text/plain", plaintext.NewExtractor(storage))

	locks := usecase.NewDocumentLocks()
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	indexUC := usecase.NewIndexDocumentUseCase(repo, texts, chunker, embedder, index, locks)
	deleteUC := usecase.NewDeleteDocumentUseCase(repo, index, storage, locks)
	decideUC := usecase.NewDecideUseCase(embedder, index, entities, usecase.NewDecisionEngine(reasoner), cfg.RetrievalTopK)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,
		Index:  index,

		IngestUC: ingestUC,
		IndexUC:  indexUC,
		DecideUC: decideUC,
		DeleteUC: deleteUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// buildIndex selects the vector index backend. The exact backend restores
// its snapshot at startup; a missing snapshot means a cold start with an
// empty index, which is valid.
func buildIndex(ctx context.Context, cfg config.Config) (ports.VectorIndex, error) {
	switch cfg.IndexBackend {
	case "", "exact":
		index := exact.New(cfg.IndexSnapshotPath)
		if err := index.Load(ctx); err != nil {
			return nil, fmt.Errorf("load index snapshot: %w", err)
		}
		return index, nil
	case "qdrant":
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
