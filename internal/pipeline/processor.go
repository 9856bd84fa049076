// Package pipeline runs one ingestion: fetch a schedule document, extract
// its text and slots, resolve the gym, persist the slots and stamp the source.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/events"
	"github.com/joseph-ayodele/gym-slots/internal/extract"
	"github.com/joseph-ayodele/gym-slots/internal/fetch"
	"github.com/joseph-ayodele/gym-slots/internal/reconcile"
	"github.com/joseph-ayodele/gym-slots/internal/resolver"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Document, error)
}

type GymResolver interface {
	ResolveGym(ctx context.Context, in resolver.GymInput) (string, error)
}

type Persister interface {
	Persist(ctx context.Context, gymRef, sourceRef string, slots []entity.Slot) reconcile.Result
}

type SourceMarker interface {
	MarkIngested(ctx context.Context, ref, gymRef string, checkedAt time.Time) error
}

// Request identifies the source to ingest.
type Request struct {
	SourceID string
	URL      string
}

// Result is the outcome of a completed run.
type Result struct {
	GymID       string
	Extractor   string
	SlotsAdded  int
	SlotsFailed int
	Errors      []string
	Elapsed     time.Duration
}

// Processor coordinates the ingestion stages. Stages run strictly in order
// and the first failure ends the run.
type Processor struct {
	logger    *slog.Logger
	fetcher   Fetcher
	text      extract.TextExtractor
	slots     extract.SlotExtractor
	gyms      GymResolver
	persister Persister
	sources   SourceMarker
	publisher events.Publisher
	now       func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	fetcher Fetcher,
	text extract.TextExtractor,
	slots extract.SlotExtractor,
	gyms GymResolver,
	persister Persister,
	sources SourceMarker,
	publisher events.Publisher,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Processor{
		logger:    logger,
		fetcher:   fetcher,
		text:      text,
		slots:     slots,
		gyms:      gyms,
		persister: persister,
		sources:   sources,
		publisher: publisher,
		now:       time.Now,
	}
}

// Ingest runs every stage for req. Failures are *StageError values wrapping
// the underlying AppError; slot-level problems are reported in Result.Errors.
func (p *Processor) Ingest(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	sourceRef := constants.Ref(constants.SourcePrefix, req.SourceID)
	ctx = common.WithSourceID(ctx, sourceRef)
	log := p.logger.With("source_id", sourceRef, "url", req.URL)
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		log = log.With("req_id", rid)
	}

	fail := func(stage Stage, err error) (Result, error) {
		log.Error("pipeline."+string(stage)+".failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, &StageError{Stage: stage, Err: err}
	}

	// 1) fetch
	doc, err := p.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return fail(StageFetch, err)
	}

	// 2) text
	txt, err := p.text.ExtractText(ctx, doc.Data)
	if err != nil {
		return fail(StageExtractText, err)
	}
	log.Info("pipeline.extract_text.ok",
		"method", txt.Method,
		"pages", txt.Pages,
		"chars", len([]rune(txt.Text)),
		"confidence", txt.Confidence,
	)

	// 3) slots
	sched, err := p.slots.ExtractSlots(ctx, txt.Text, req.URL)
	if err != nil {
		return fail(StageExtractSlots, err)
	}
	log.Info("pipeline.extract_slots.ok",
		"extractor", p.slots.Name(),
		"gym", sched.GymName,
		"area", sched.AreaName,
		"slots", len(sched.Slots),
	)

	// 4) gym
	gymRef, err := p.gyms.ResolveGym(ctx, resolver.GymInput{
		Name:      sched.GymName,
		Address:   sched.Address,
		Tel:       sched.Tel,
		AreaName:  sched.AreaName,
		SourceURL: req.URL,
	})
	if err != nil {
		return fail(StageResolveGym, err)
	}

	// 5) slots -> open_slots
	pr := p.persister.Persist(ctx, gymRef, sourceRef, sched.Slots)
	if pr.Aborted != nil {
		// Reported through pr.Errors; the run itself still completes.
		log.Warn("pipeline."+string(StagePersist)+".aborted", "gym_id", gymRef, "error", pr.Aborted)
	}

	// 6) source metadata
	if err := p.sources.MarkIngested(ctx, sourceRef, gymRef, p.now()); err != nil {
		return fail(StageUpdateSource, err)
	}

	res := Result{
		GymID:       gymRef,
		Extractor:   p.slots.Name(),
		SlotsAdded:  pr.Success,
		SlotsFailed: pr.Failed,
		Errors:      pr.Errors,
		Elapsed:     time.Since(start),
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	log.Info("pipeline.ingest.ok",
		"gym_id", gymRef,
		"slots_added", res.SlotsAdded,
		"slots_failed", res.SlotsFailed,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)

	ev := events.SlotsIngested{
		SourceID:    sourceRef,
		URL:         req.URL,
		GymID:       gymRef,
		Extractor:   res.Extractor,
		SlotsAdded:  res.SlotsAdded,
		SlotsFailed: res.SlotsFailed,
		IngestedAt:  p.now().UTC(),
	}
	if err := p.publisher.PublishSlotsIngested(ctx, ev); err != nil {
		log.Warn("pipeline.event.publish_failed", "error", err)
	}
	return res, nil
}
