package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	httpadapter "github.com/kirillkom/attendee-presence/internal/adapters/http"
	"github.com/kirillkom/attendee-presence/internal/config"
	"github.com/kirillkom/attendee-presence/internal/core/ports"
	"github.com/kirillkom/attendee-presence/internal/core/token"
	"github.com/kirillkom/attendee-presence/internal/core/usecase"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/extractor/mux"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/matchesfile"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/qrrender"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/queue/nats"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/resilience"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/statusapi"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/attendee-presence/internal/observability/metrics"
)

// App is the authoritative status service: presence store, use cases and
// the HTTP router over them.
type App struct {
	Config config.Config

	StatusUC  *usecase.StatusUseCase
	MatchesUC *usecase.MatchesUseCase
	Metrics   *metrics.HTTPServerMetrics
	Router    *httpadapter.Router

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := NewQRRenderer(cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init qr renderer: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	statusUC := usecase.NewStatusUseCase(postgres.NewPresenceRepository(db), httpMetrics)
	matchesUC := usecase.NewMatchesUseCase(matchesfile.New(cfg.MatchesPaths), statusUC, logger)

	router := httpadapter.NewRouter(
		statusUC,
		statusUC,
		matchesUC,
		token.NewCodec(cfg.PublicBaseURL),
		renderer,
		httpadapter.Options{
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
			InFlightWait:   cfg.APIInFlightWait,
			Metrics:        httpMetrics.Handler(),
			Instrument:     httpMetrics.Middleware,
			Observer:       httpMetrics,
			Logger:         logger,
		},
	)

	return &App{
		Config:    cfg,
		StatusUC:  statusUC,
		MatchesUC: matchesUC,
		Metrics:   httpMetrics,
		Router:    router,
		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker is the offline ingestion side: the document source, extractors and
// the postgres sink for extracted records.
type Worker struct {
	Config   config.Config
	Source   *localfs.Source
	IngestUC *usecase.IngestDocumentsUseCase
	Metrics  *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Worker, error) {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	source := localfs.New(cfg.SourceDocumentsPath)
	workerMetrics := metrics.NewWorkerMetrics("worker")
	ingestUC := usecase.NewIngestDocumentsUseCase(
		source,
		NewExtractor(),
		postgres.NewExtractedRepository(db),
		workerMetrics,
		usecase.IngestOptions{
			Rules: usecase.DedupRules{
				Extensions:    cfg.SourceDocumentExtensions,
				ProfilePrefix: cfg.SourceProfilePrefix,
			},
			Concurrency: cfg.IngestConcurrency,
		},
		logger,
	)

	return &Worker{
		Config:   cfg,
		Source:   source,
		IngestUC: ingestUC,
		Metrics:  workerMetrics,
		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// OpenPresenceStore opens postgres with the schema in place, for operator
// commands that talk to the store directly.
func OpenPresenceStore(ctx context.Context, cfg config.Config) (*usecase.StatusUseCase, func(), error) {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return usecase.NewStatusUseCase(postgres.NewPresenceRepository(db), nil), func() { _ = db.Close() }, nil
}

// NewExtractor routes PDFs to the PDF reader and plain-text files to the
// UTF-8 extractor.
func NewExtractor() ports.TextExtractor {
	return mux.NewByExtension(map[string]ports.TextExtractor{
		".pdf": pdf.NewExtractor(),
		".txt": plaintext.NewExtractor(),
		".md":  plaintext.NewExtractor(),
	})
}

func NewQRRenderer(cfg config.Config) (*qrrender.Renderer, error) {
	opts := qrrender.DefaultOptions()
	opts.Size = cfg.QRSize
	opts.Margin = cfg.QRMargin
	opts.Foreground = cfg.QRForeground
	opts.Background = cfg.QRBackground
	return qrrender.NewRenderer(opts)
}

// ViewerSync is a viewer-side presence cache talking to the status API,
// with the NATS signal when one is reachable.
type ViewerSync struct {
	Sync    *usecase.PresenceSync
	closeFn func()
}

func NewViewerSync(cfg config.Config, eventID string, logger *slog.Logger) (*ViewerSync, error) {
	executor := resilience.NewExecutor(cfg.Resilience, resilience.WithLogger(logger))
	client := statusapi.New(cfg.StatusAPIURL, cfg.StatusAPITimeout, statusapi.WithResilience(executor))

	opts := usecase.PresenceSyncOptions{
		EventID: eventID,
		Timeout: cfg.StatusAPITimeout,
		Logger:  logger,
	}
	closeFn := func() {}
	if strings.TrimSpace(cfg.NATSURL) != "" {
		signal, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSPresenceSubject, eventID, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			logger.Warn("presence_signal_unavailable", "url", cfg.NATSURL, "error", err)
		} else {
			opts.Signal = signal
			closeFn = signal.Close
		}
	}

	return &ViewerSync{
		Sync:    usecase.NewPresenceSync(client, opts),
		closeFn: closeFn,
	}, nil
}

func (v *ViewerSync) Close() {
	if v.closeFn != nil {
		v.closeFn()
	}
}

func openStore(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}
