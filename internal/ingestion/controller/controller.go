// Package controller implements the ingestion orchestrator, composing
// discovery, download, extraction, decoding and the store upsert into one
// sequential run. A failure while handling one dataset file is logged and
// the run moves on; only a discovery failure aborts the run.
package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rmacedo/cnpjsync/internal/ingestion/archive"
	"github.com/rmacedo/cnpjsync/internal/ingestion/catalog"
	"github.com/rmacedo/cnpjsync/internal/ingestion/config"
	"github.com/rmacedo/cnpjsync/internal/ingestion/decode"
	e "github.com/rmacedo/cnpjsync/internal/ingestion/errors"
	"github.com/rmacedo/cnpjsync/internal/ingestion/events"
	"github.com/rmacedo/cnpjsync/internal/ingestion/fetch"
	"github.com/rmacedo/cnpjsync/internal/ingestion/models"
	"go.uber.org/zap"
)

// Repository defines the storage interface the orchestrator writes through.
type Repository interface {
	UpsertCompanies(ctx context.Context, records []models.Company) (int, error)
}

// EventProducer publishes ingestion lifecycle events. The Loader accepts a
// nil producer when events are disabled.
type EventProducer interface {
	Produce(event events.Event)
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	RunID           string
	PrimaryFiles    int
	AuxiliaryFiles  int
	FilesIngested   int
	FilesFailed     int
	RecordsUpserted int
	Duration        time.Duration
}

// Loader orchestrates one ingestion run end to end.
type Loader struct {
	cfg       *config.Config
	fetcher   *fetch.Fetcher
	scanner   *catalog.Scanner
	extractor *archive.Extractor
	decoder   *decode.Decoder
	repo      Repository
	producer  EventProducer
	logger    *zap.Logger
}

// NewLoader constructs a Loader. producer may be nil when ingestion events
// are disabled.
func NewLoader(
	cfg *config.Config,
	fetcher *fetch.Fetcher,
	scanner *catalog.Scanner,
	extractor *archive.Extractor,
	decoder *decode.Decoder,
	repo Repository,
	producer EventProducer,
	logger *zap.Logger,
) *Loader {
	return &Loader{
		cfg:       cfg,
		fetcher:   fetcher,
		scanner:   scanner,
		extractor: extractor,
		decoder:   decoder,
		repo:      repo,
		producer:  producer,
		logger:    logger.Named("loader"),
	}
}

// Run executes one full ingestion pass: discover the remote catalog, stage
// the auxiliary files, then download, extract, decode and upsert every
// primary dataset file in sequence. Files are processed one at a time and
// each file's chunks commit in order.
func (l *Loader) Run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	stats := RunStats{RunID: uuid.NewString()}

	primary, auxiliary, err := l.scanner.ListDatasetFiles(ctx, l.cfg.BaseURL)
	if err != nil {
		// Discovery is the only fatal, run-aborting condition.
		return stats, err
	}
	stats.PrimaryFiles = len(primary)
	stats.AuxiliaryFiles = len(auxiliary)
	l.emit(events.Event{Type: events.RunStarted, RunID: stats.RunID})

	// Auxiliary classification-code files are staged for other consumers
	// but not decoded here.
	for _, name := range auxiliary {
		if err := l.stageFile(ctx, name); err != nil {
			l.logger.Error("failed to stage auxiliary file",
				zap.String("file", name),
				zap.Error(err),
			)
		}
	}

	for _, name := range primary {
		count, err := l.ingestPrimary(ctx, name)
		if err != nil {
			stats.FilesFailed++
			l.logger.Error("failed to ingest primary file",
				zap.String("file", name),
				zap.Error(err),
			)
			l.emit(events.Event{
				Type:  events.FileFailed,
				RunID: stats.RunID,
				File:  name,
				Error: err.Error(),
			})
			continue
		}
		stats.FilesIngested++
		stats.RecordsUpserted += count
		l.emit(events.Event{
			Type:    events.FileIngested,
			RunID:   stats.RunID,
			File:    name,
			Records: count,
		})
	}

	stats.Duration = time.Since(start)
	l.emit(events.Event{
		Type:    events.RunCompleted,
		RunID:   stats.RunID,
		Records: stats.RecordsUpserted,
	})
	l.logger.Info("run completed",
		zap.String("run_id", stats.RunID),
		zap.Int("files_ingested", stats.FilesIngested),
		zap.Int("files_failed", stats.FilesFailed),
		zap.Int("records_upserted", stats.RecordsUpserted),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// stageFile downloads one remote file into the staging area and extracts it
// when it is an archive. A file already staged is trusted as downloaded and
// extracted.
func (l *Loader) stageFile(ctx context.Context, name string) error {
	path, present, err := l.fetcher.EnsureLocal(ctx, l.fileURL(name), l.cfg.StagingDir, name)
	if err != nil {
		return err
	}
	if present {
		return nil
	}
	if _, err := l.extractor.Extract(path, l.cfg.StagingDir); err != nil {
		// Extraction is best-effort; the blob may be plain text after all.
		l.logger.Warn("extraction failed",
			zap.String("file", name),
			zap.Error(err),
		)
	}
	return nil
}

// ingestPrimary stages one primary dataset file, locates its extracted text
// payload and streams it into the store. Returns the number of records
// upserted.
func (l *Loader) ingestPrimary(ctx context.Context, name string) (int, error) {
	if err := l.stageFile(ctx, name); err != nil {
		return 0, err
	}

	textName, err := l.textFilename(name)
	if err != nil {
		return 0, err
	}
	textPath := filepath.Join(l.cfg.StagingDir, textName)
	if _, err := os.Stat(textPath); err != nil {
		return 0, fmt.Errorf("%w: %s", e.ErrMissingExtracted, textName)
	}

	total := 0
	err = l.decoder.Decode(textPath, func(chunk []models.Company) error {
		count, err := l.repo.UpsertCompanies(ctx, chunk)
		if err != nil {
			return err
		}
		total += count
		l.logger.Info("chunk upserted",
			zap.String("file", name),
			zap.Int("records", count),
			zap.Int("total", total),
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// textFilename derives the extracted text filename for a downloaded dataset
// file: strip the .zip suffix when present, otherwise peek the archive for
// its first member name, otherwise the download itself is the text file.
func (l *Loader) textFilename(name string) (string, error) {
	if strings.HasSuffix(strings.ToLower(name), ".zip") {
		return name[:len(name)-len(".zip")], nil
	}

	path := filepath.Join(l.cfg.StagingDir, name)
	kind, err := archive.Sniff(path)
	if err != nil {
		return "", err
	}
	if kind == archive.KindArchive {
		return archive.FirstMemberName(path)
	}
	return name, nil
}

func (l *Loader) fileURL(name string) string {
	return strings.TrimSuffix(l.cfg.BaseURL, "/") + "/" + name
}

func (l *Loader) emit(event events.Event) {
	if l.producer == nil {
		return
	}
	l.producer.Produce(event)
}
