package bootstrap

import (
	"context"
	"fmt"
	"time"

	httpadapter "github.com/kirillkom/bank-statement-extractor/internal/adapters/http"
	"github.com/kirillkom/bank-statement-extractor/internal/config"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
	"github.com/kirillkom/bank-statement-extractor/internal/core/usecase"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/llm/vision"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/pdf/chain"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/pdf/native"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/pdf/plumber"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/resilience"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue      ports.JobQueue
	Templates  ports.TemplateAdmin
	ExtractUC  ports.StatementExtractor
	BulkUC     ports.BulkExtractor
	FeedbackUC ports.FeedbackService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := httpadapter.LoadOpenAPIDocument(ctx); err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	templateRepo := postgres.NewTemplateRepository(db)
	if err := templateRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure template schema: %w", err)
	}
	feedbackRepo := postgres.NewFeedbackRepository(db)
	if err := feedbackRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure feedback schema: %w", err)
	}

	store, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init feedback storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init job queue: %w", err)
	}

	parser := chain.New(
		plumber.New(plumber.Options{
			Python:        cfg.PythonBinary,
			ParseScript:   cfg.ParseScriptPath,
			DecryptScript: cfg.DecryptScript,
			Timeout:       time.Duration(cfg.ParseTimeoutSecs) * time.Second,
		}),
		native.New(),
	)

	visionClient := vision.New(cfg.VisionURL, vision.Options{
		Models:            cfg.VisionModels,
		RequestsPerMinute: cfg.VisionRequestsPerMin,
		Timeout:           time.Duration(cfg.VisionTimeoutSeconds) * time.Second,
		Executor:          resilience.NewExecutor(resilience.DefaultConfig()),
	})

	templates := usecase.NewTemplateManager(templateRepo)
	extractUC := usecase.NewExtractUseCase(
		parser,
		templates,
		usecase.NewTemplateExtractor(),
		usecase.NewValidator(),
		visionClient,
	)
	bulkUC := usecase.NewBulkUseCase(extractUC, cfg.BulkConcurrency)
	feedbackUC := usecase.NewFeedbackUseCase(feedbackRepo, store, queue, visionClient, templates)

	return &App{
		Config: cfg,

		Queue:      queue,
		Templates:  templates,
		ExtractUC:  extractUC,
		BulkUC:     bulkUC,
		FeedbackUC: feedbackUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
