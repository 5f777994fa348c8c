package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/ports"
	"github.com/kirillkom/attendee-presence/internal/core/textnorm"
)

type IngestOptions struct {
	Rules       DedupRules
	Concurrency int
}

type IngestDocumentsUseCase struct {
	source    ports.DocumentSource
	extractor ports.TextExtractor
	sink      ports.ExtractedRecordStore
	observer  ports.IngestObserver
	opts      IngestOptions
	logger    *slog.Logger
	now       ports.Clock
}

func NewIngestDocumentsUseCase(
	source ports.DocumentSource,
	extractor ports.TextExtractor,
	sink ports.ExtractedRecordStore,
	observer ports.IngestObserver,
	opts IngestOptions,
	logger *slog.Logger,
) *IngestDocumentsUseCase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentsUseCase{
		source:    source,
		extractor: extractor,
		sink:      sink,
		observer:  observer,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Plan lists the source root and returns the documents a batch would
// process, without reading them.
func (uc *IngestDocumentsUseCase) Plan(ctx context.Context) ([]domain.SourceDocument, int, error) {
	names, err := uc.source.List(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrStorageUnavailable) {
			return nil, 0, err
		}
		return nil, 0, domain.WrapError(domain.ErrStorageUnavailable, "list source documents", err)
	}
	return Deduplicate(names, uc.opts.Rules), len(names), nil
}

// Run processes every deduplicated document. Per-document failures are
// collected in the summary; only an unreadable source root or cancellation
// fails the batch.
func (uc *IngestDocumentsUseCase) Run(ctx context.Context) (*domain.BatchSummary, error) {
	started := uc.now().UTC()
	docs, discovered, err := uc.Plan(ctx)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		record  *domain.ExtractedRecord
		failure *domain.DocumentFailure
	}
	results := make([]outcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := uc.processOne(gctx, doc)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				uc.logger.Warn("document_failed", "file", doc.FileName, "canonical_key", doc.CanonicalKey, "error", err)
				results[i] = outcome{failure: &domain.DocumentFailure{
					FileName:     doc.FileName,
					CanonicalKey: doc.CanonicalKey,
					Error:        err.Error(),
				}}
				return nil
			}
			uc.logger.Info("document_extracted", "file", doc.FileName, "canonical_key", doc.CanonicalKey, "pages", rec.PageCount)
			results[i] = outcome{record: rec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest batch: %w", err)
	}

	summary := &domain.BatchSummary{
		Discovered: discovered,
		Records:    make([]domain.ExtractedRecord, 0, len(docs)),
		Failures:   []domain.DocumentFailure{},
		StartedAt:  started,
	}
	for _, res := range results {
		switch {
		case res.record != nil:
			summary.Records = append(summary.Records, *res.record)
		case res.failure != nil:
			summary.Failures = append(summary.Failures, *res.failure)
		}
	}
	summary.FinishedAt = uc.now().UTC()

	uc.logger.Info("ingest_batch_finished",
		"discovered", summary.Discovered,
		"documents", len(docs),
		"extracted", len(summary.Records),
		"failed", len(summary.Failures),
		"duration_ms", float64(summary.FinishedAt.Sub(started).Microseconds())/1000.0,
	)
	return summary, nil
}

func (uc *IngestDocumentsUseCase) processOne(ctx context.Context, doc domain.SourceDocument) (rec *domain.ExtractedRecord, err error) {
	if uc.observer != nil {
		start := time.Now()
		uc.observer.StartDocument()
		defer func() { uc.observer.FinishDocument(time.Since(start), err) }()
	}

	raw, err := uc.readDocument(ctx, doc.FileName)
	if err != nil {
		return nil, err
	}
	doc.RawBytes = raw

	extracted, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnparsableDocument) || ctx.Err() != nil {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrUnparsableDocument, "extract "+doc.FileName, err)
	}

	record := BuildExtractedRecord(doc, extracted, uc.now())
	if uc.sink != nil {
		if err := uc.sink.SaveExtracted(ctx, record); err != nil {
			return nil, fmt.Errorf("save extracted record %s: %w", doc.FileName, err)
		}
	}
	return &record, nil
}

func (uc *IngestDocumentsUseCase) readDocument(ctx context.Context, name string) ([]byte, error) {
	reader, err := uc.source.Open(ctx, name)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnparsableDocument, "open "+name, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnparsableDocument, "read "+name, err)
	}
	return raw, nil
}

// BuildExtractedRecord normalises the raw text and pulls contact fields from
// the unnormalised text.
func BuildExtractedRecord(doc domain.SourceDocument, raw domain.RawExtraction, now time.Time) domain.ExtractedRecord {
	record := domain.ExtractedRecord{
		FileName:       doc.FileName,
		CanonicalKey:   doc.CanonicalKey,
		NormalizedText: textnorm.Normalize(raw.Text),
		PageCount:      raw.PageCount,
		ExtractedAt:    now.UTC(),
	}
	if contact := textnorm.ExtractContact(raw.Text); !contact.IsEmpty() {
		record.Contact = &contact
	}
	return record
}
