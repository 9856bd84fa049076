// Package app wires configuration into the ingestion pipeline and its
// repositories. Binaries share it so that every entry point ingests the
// same way.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/events"
	"github.com/joseph-ayodele/gym-slots/internal/export"
	"github.com/joseph-ayodele/gym-slots/internal/extract"
	"github.com/joseph-ayodele/gym-slots/internal/fetch"
	"github.com/joseph-ayodele/gym-slots/internal/heuristic"
	"github.com/joseph-ayodele/gym-slots/internal/llm/openai"
	"github.com/joseph-ayodele/gym-slots/internal/ocr"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
	"github.com/joseph-ayodele/gym-slots/internal/reconcile"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
	"github.com/joseph-ayodele/gym-slots/internal/resolver"
	"github.com/joseph-ayodele/gym-slots/internal/server"
)

// DBResult is an open database plus its release func.
type DBResult struct {
	DB      *repository.DB
	Cleanup func()
}

// InitDatabase opens the configured database, or a migrated in-memory
// SQLite database when inmem is set.
func InitDatabase(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*DBResult, error) {
	var (
		db  *repository.DB
		err error
	)
	if inmem {
		logger.Info("using in-memory database")
		db, err = repository.OpenInMemory(ctx, logger)
	} else {
		db, err = server.ConnectDB(ctx, cfg.Database, logger)
	}
	if err != nil {
		return nil, err
	}
	return &DBResult{
		DB: db,
		Cleanup: func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close database", "error", err)
			}
		},
	}, nil
}

// Components are the wired services over one database.
type Components struct {
	Areas     repository.AreaRepository
	Sports    repository.SportRepository
	Gyms      repository.GymRepository
	Sources   repository.SourceRepository
	Slots     repository.OpenSlotRepository
	Processor *pipeline.Processor
	Exporter  *export.Service
	Extractor string
}

// SlotExtractor builds the slot extractor selected by cfg: the completion
// service, the heuristic parser, or the completion service falling back to
// the heuristic parser on service and parse failures.
func SlotExtractor(cfg *common.Config, logger *slog.Logger) extract.SlotExtractor {
	parser := heuristic.NewParser(logger)
	if cfg.Pipeline.SlotExtractor == "heuristic" {
		return parser
	}
	ai := openai.NewClient(openai.Config{
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		MaxInputChars: cfg.LLM.MaxInputChars,
		Timeout:       cfg.LLM.Timeout,
		Sports:        constants.Sports,
	}, logger)
	if cfg.Pipeline.HeuristicFallback {
		return extract.NewFallback(ai, parser, logger)
	}
	return ai
}

// Wire builds repositories, the ingestion processor and the exporter.
func Wire(cfg *common.Config, db *repository.DB, publisher events.Publisher, logger *slog.Logger) *Components {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Components{
		Areas:   repository.NewAreaRepository(db, logger),
		Sports:  repository.NewSportRepository(db, logger),
		Gyms:    repository.NewGymRepository(db, logger),
		Sources: repository.NewSourceRepository(db, logger),
		Slots:   repository.NewOpenSlotRepository(db, logger),
	}
	res := resolver.NewResolver(c.Gyms, c.Areas, c.Sports, logger)

	text := extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Pdfinfo:       cfg.Extract.Pdfinfo,
		Pdftoppm:      cfg.Extract.Pdftoppm,
		Tesseract:     cfg.Extract.Tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
		EnableOCR:     cfg.Extract.EnableOCR,
		TempDir:       cfg.Extract.TempDir,
	}, logger), logger)

	slots := SlotExtractor(cfg, logger)
	c.Extractor = slots.Name()
	c.Processor = pipeline.NewProcessor(
		logger,
		fetch.NewFetcher(fetch.Config{Timeout: cfg.Fetch.Timeout, MaxBytes: cfg.Fetch.MaxBytes}, logger),
		text,
		slots,
		res,
		reconcile.NewReconciler(c.Gyms, c.Slots, res, logger),
		c.Sources,
		publisher,
	)
	c.Exporter = export.NewService(c.Slots, c.Gyms, c.Sports, logger)
	return c
}
