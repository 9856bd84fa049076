package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/events"
	"github.com/joseph-ayodele/gym-slots/internal/extract"
	"github.com/joseph-ayodele/gym-slots/internal/fetch"
	"github.com/joseph-ayodele/gym-slots/internal/heuristic"
	"github.com/joseph-ayodele/gym-slots/internal/ocr"
	"github.com/joseph-ayodele/gym-slots/internal/reconcile"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
	"github.com/joseph-ayodele/gym-slots/internal/resolver"
)

type textRunner struct{ text string }

func (r textRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	if name == "pdftotext" {
		return []byte(r.text), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

type recordingPublisher struct{ got []events.SlotsIngested }

func (p *recordingPublisher) PublishSlotsIngested(_ context.Context, ev events.SlotsIngested) error {
	p.got = append(p.got, ev)
	return nil
}

type harness struct {
	proc      *Processor
	srv       *httptest.Server
	sources   repository.SourceRepository
	slots     repository.OpenSlotRepository
	gyms      repository.GymRepository
	publisher *recordingPublisher
}

func newHarness(t *testing.T, text string, slotExtractor extract.SlotExtractor) harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	db, err := repository.OpenInMemory(ctx, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".pdf") {
			_, _ = io.WriteString(w, "%PDF-1.4\n%stub\n")
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	gyms := repository.NewGymRepository(db, logger)
	slots := repository.NewOpenSlotRepository(db, logger)
	sources := repository.NewSourceRepository(db, logger)
	res := resolver.NewResolver(gyms, repository.NewAreaRepository(db, logger), repository.NewSportRepository(db, logger), logger)

	if slotExtractor == nil {
		clock := func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local) }
		slotExtractor = heuristic.NewParser(logger, heuristic.WithClock(clock))
	}
	pub := &recordingPublisher{}
	proc := NewProcessor(
		logger,
		fetch.NewFetcher(fetch.Config{Timeout: 5 * time.Second}, logger),
		extract.NewOCRAdapter(ocr.NewExtractorWithRunner(ocr.Config{}, textRunner{text: text}, logger), logger),
		slotExtractor,
		res,
		reconcile.NewReconciler(gyms, slots, res, logger),
		sources,
		pub,
	)
	return harness{proc: proc, srv: srv, sources: sources, slots: slots, gyms: gyms, publisher: pub}
}

func (h harness) register(t *testing.T, url string) string {
	t.Helper()
	src, err := h.sources.Create(context.Background(), &entity.Source{URL: url, ParserVersion: constants.ParserVersion})
	if err != nil {
		t.Fatal(err)
	}
	return src.ID
}

func TestIngest_EndToEnd(t *testing.T) {
	h := newHarness(t, "11月29日 バドミントン 9:00-11:00 ○", nil)
	ctx := context.Background()
	url := h.srv.URL + "/shibuya/schedule.pdf"
	sourceID := h.register(t, url)

	res, err := h.proc.Ingest(ctx, Request{SourceID: sourceID, URL: url})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SlotsAdded != 1 || res.SlotsFailed != 0 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}

	stored, err := h.slots.List(ctx, repository.OpenSlotFilter{GymID: res.GymID})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored = %d", len(stored))
	}
	s := stored[0]
	if s.Date != "2026-11-29" || s.StartTime != "09:00" || s.EndTime != "11:00" || s.Status != constants.SlotAvailable {
		t.Fatalf("unexpected slot: %+v", s)
	}
	if !strings.HasPrefix(s.SportID, constants.SportPrefix) || s.SourceID != sourceID {
		t.Fatalf("references: %+v", s)
	}

	gym, err := h.gyms.GetByID(ctx, res.GymID)
	if err != nil {
		t.Fatal(err)
	}
	if gym.AreaID == "" || gym.OfficialURL != url {
		t.Fatalf("gym = %+v", gym)
	}

	src, err := h.sources.GetByID(ctx, sourceID)
	if err != nil {
		t.Fatal(err)
	}
	if src.GymID != res.GymID || src.LastCheckedAt == nil {
		t.Fatalf("source not stamped: %+v", src)
	}

	if len(h.publisher.got) != 1 || h.publisher.got[0].SlotsAdded != 1 {
		t.Fatalf("events = %+v", h.publisher.got)
	}
}

func TestIngest_ReingestAppends(t *testing.T) {
	h := newHarness(t, "11月29日 バドミントン 9:00-11:00 ○", nil)
	ctx := context.Background()
	url := h.srv.URL + "/shibuya/schedule.pdf"
	sourceID := h.register(t, url)

	first, err := h.proc.Ingest(ctx, Request{SourceID: sourceID, URL: url})
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.proc.Ingest(ctx, Request{SourceID: sourceID, URL: url})
	if err != nil {
		t.Fatal(err)
	}
	if first.GymID != second.GymID {
		t.Fatalf("gym changed between runs: %s vs %s", first.GymID, second.GymID)
	}
	stored, err := h.slots.List(ctx, repository.OpenSlotFilter{GymID: first.GymID})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 || stored[0].ID == stored[1].ID {
		t.Fatalf("expected two distinct records, got %+v", stored)
	}
}

type failingExtractor struct{ err error }

func (f failingExtractor) Name() string { return "ai" }

func (f failingExtractor) ExtractSlots(context.Context, string, string) (entity.Schedule, error) {
	return entity.Schedule{}, f.err
}

func TestIngest_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		extractor extract.SlotExtractor
		source    bool
		wantStage Stage
		wantErr   error
	}{
		{name: "fetch 404", path: "/missing.html", source: true, wantStage: StageFetch, wantErr: common.ErrFetch},
		{name: "ai service", path: "/a.pdf", source: true, extractor: failingExtractor{common.AIServiceError("HTTP 500", nil)}, wantStage: StageExtractSlots, wantErr: common.ErrAIService},
		{name: "missing key", path: "/a.pdf", source: true, extractor: failingExtractor{common.ConfigError("DEEPSEEK_API_KEY is not set")}, wantStage: StageExtractSlots, wantErr: common.ErrConfiguration},
		{name: "unknown source", path: "/shibuya/a.pdf", source: false, wantStage: StageUpdateSource, wantErr: common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "11月29日 バドミントン 9:00-11:00 ○", tt.extractor)
			url := h.srv.URL + tt.path
			sourceID := "source_6c1e9f62-2f0e-4c8e-8d0a-1b1f0f6d7c11"
			if tt.source {
				sourceID = h.register(t, url)
			}

			_, err := h.proc.Ingest(context.Background(), Request{SourceID: sourceID, URL: url})
			stage, ok := FailedStage(err)
			if !ok || stage != tt.wantStage {
				t.Fatalf("stage = %q (%v), want %q", stage, err, tt.wantStage)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(h.publisher.got) != 0 {
				t.Fatal("no event may be published for a failed run")
			}
		})
	}
}

func TestIngest_FallbackToHeuristic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local) }
	fb := extract.NewFallback(
		failingExtractor{common.AIParseError("no content from completion service", nil)},
		heuristic.NewParser(logger, heuristic.WithClock(clock)),
		logger,
	)
	h := newHarness(t, "11月29日 卓球 13:00～15:00 △", fb)
	url := h.srv.URL + "/shibuya/b.pdf"

	res, err := h.proc.Ingest(context.Background(), Request{SourceID: h.register(t, url), URL: url})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SlotsAdded != 1 || res.Extractor != "ai+heuristic" {
		t.Fatalf("result = %+v", res)
	}
}

type staticExtractor struct{ sched entity.Schedule }

func (s staticExtractor) Name() string { return "ai" }

func (s staticExtractor) ExtractSlots(context.Context, string, string) (entity.Schedule, error) {
	return s.sched, nil
}

func TestIngest_BadSlotsDoNotSinkBatch(t *testing.T) {
	good := entity.Slot{Date: "2026-11-05", StartTime: "09:00", EndTime: "12:00", SportName: "バドミントン",
		Status: constants.SlotAvailable, ReceptionType: constants.ReceptionSameDay}
	noSport := good
	noSport.SportName = ""
	badStatus := good
	badStatus.Status = "open"

	h := newHarness(t, "11月29日 バドミントン 9:00-11:00 ○", staticExtractor{entity.Schedule{
		GymName: "渋谷区スポーツセンター", AreaName: "渋谷区",
		Slots: []entity.Slot{good, noSport, badStatus},
	}})
	url := h.srv.URL + "/c.pdf"

	res, err := h.proc.Ingest(context.Background(), Request{SourceID: h.register(t, url), URL: url})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SlotsAdded != 1 || res.SlotsFailed != 2 || len(res.Errors) != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestIngest_GymWithoutAreaCompletes(t *testing.T) {
	h := newHarness(t, "11月29日 バドミントン 9:00-11:00 ○", staticExtractor{entity.Schedule{
		GymName: "無所属体育館",
		Slots: []entity.Slot{{Date: "2026-11-05", StartTime: "09:00", EndTime: "12:00", SportName: "卓球",
			Status: constants.SlotAvailable, ReceptionType: constants.ReceptionSameDay}},
	}})
	url := h.srv.URL + "/d.pdf"

	res, err := h.proc.Ingest(context.Background(), Request{SourceID: h.register(t, url), URL: url})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SlotsAdded != 0 || len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "Failed to get area_id for gym: ") {
		t.Fatalf("result = %+v", res)
	}
}
