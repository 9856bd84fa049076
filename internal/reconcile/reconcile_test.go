package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
	"github.com/joseph-ayodele/gym-slots/internal/resolver"
)

type fixture struct {
	rec    *Reconciler
	res    *resolver.Resolver
	gyms   repository.GymRepository
	slots  repository.OpenSlotRepository
	logger *slog.Logger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenInMemory(context.Background(), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gyms := repository.NewGymRepository(db, logger)
	slots := repository.NewOpenSlotRepository(db, logger)
	res := resolver.NewResolver(gyms, repository.NewAreaRepository(db, logger), repository.NewSportRepository(db, logger), logger)
	return fixture{rec: NewReconciler(gyms, slots, res, logger), res: res, gyms: gyms, slots: slots, logger: logger}
}

func slot(date, start, sport string, status constants.SlotStatus) entity.Slot {
	return entity.Slot{
		Date: date, StartTime: start, EndTime: "12:00", SportName: sport,
		Status: status, ReceptionType: constants.ReceptionSameDay,
	}
}

func intp(n int) *int { return &n }

func TestPersist_MixedBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gymRef, err := f.res.ResolveGym(ctx, resolver.GymInput{Name: "北体育館", AreaName: "北区"})
	if err != nil {
		t.Fatal(err)
	}

	over := slot("2026-11-04", "09:00", "卓球", constants.SlotFew)
	over.Capacity, over.Remaining = intp(10), intp(11)

	in := []entity.Slot{
		slot("2026-11-01", "09:00", "バドミントン", constants.SlotAvailable),
		slot("2026-11-02", "09:00", "バレー", constants.SlotFull),
		slot("2026-11-03", "09:00", "セパタクロー", constants.SlotAvailable),
		over,
		slot("2026-13-01", "09:00", "卓球", constants.SlotAvailable),
		slot("2026-11-05", "9:00", "卓球", "open"),
		slot("2026-11-06", "13:00", "セパタクロー", constants.SlotClosed),
	}
	res := f.rec.Persist(ctx, gymRef, "source_abc", in)

	if res.Success != 2 || res.Failed != 5 {
		t.Fatalf("result = %+v", res)
	}
	if res.Success+res.Failed != len(in) {
		t.Fatal("every slot must be accounted for")
	}
	if res.Errors[0] != "Sport not found: セパタクロー" {
		t.Errorf("errors[0] = %q", res.Errors[0])
	}
	if !strings.Contains(res.Errors[1], "remaining") {
		t.Errorf("errors[1] = %q", res.Errors[1])
	}
	if !strings.Contains(res.Errors[3], "start_time") || !strings.Contains(res.Errors[3], "status") {
		t.Errorf("errors[3] = %q", res.Errors[3])
	}

	stored, err := f.slots.List(ctx, repository.OpenSlotFilter{GymID: gymRef})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored = %d", len(stored))
	}
	for _, s := range stored {
		if s.AreaID == "" || !strings.HasPrefix(s.SportID, constants.SportPrefix) || s.SourceID != "source_abc" {
			t.Errorf("unresolved reference in %+v", s)
		}
	}
}

func TestPersist_Empty(t *testing.T) {
	f := newFixture(t)
	res := f.rec.Persist(context.Background(), "gym_missing", "source_x", nil)
	if res.Success != 0 || res.Failed != 0 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestPersist_GymWithoutArea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gymRef, err := f.res.ResolveGym(ctx, resolver.GymInput{Name: "無所属体育館"})
	if err != nil {
		t.Fatal(err)
	}

	in := []entity.Slot{slot("2026-11-01", "09:00", "バドミントン", constants.SlotAvailable)}
	res := f.rec.Persist(ctx, gymRef, "source_x", in)
	if res.Success != 0 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Failed to get area_id for gym: "+gymRef {
		t.Fatalf("errors = %v", res.Errors)
	}
	if !errors.Is(res.Aborted, common.ErrPrecondition) || !common.IsCode(res.Aborted, common.CodePrecondition) {
		t.Fatalf("aborted = %v", res.Aborted)
	}
	stored, _ := f.slots.List(ctx, repository.OpenSlotFilter{GymID: gymRef})
	if len(stored) != 0 {
		t.Fatal("nothing may be written when the gym has no area")
	}
}

type failingSlots struct{ repository.OpenSlotRepository }

func (failingSlots) Create(context.Context, *entity.OpenSlot) (*entity.OpenSlot, error) {
	return nil, errors.New("disk full")
}

type countingSports struct {
	SportResolver
	calls int
}

func (c *countingSports) ResolveSport(ctx context.Context, name string) (string, bool, error) {
	c.calls++
	return c.SportResolver.ResolveSport(ctx, name)
}

func TestPersist_WriteFailuresAndSportCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gymRef, err := f.res.ResolveGym(ctx, resolver.GymInput{Name: "南体育館", AreaName: "南区"})
	if err != nil {
		t.Fatal(err)
	}

	sports := &countingSports{SportResolver: f.res}
	rec := NewReconciler(f.gyms, failingSlots{}, sports, f.logger)
	in := []entity.Slot{
		slot("2026-11-01", "09:00", "バドミントン", constants.SlotAvailable),
		slot("2026-11-02", "09:00", "バドミントン", constants.SlotAvailable),
	}
	res := rec.Persist(ctx, gymRef, "source_x", in)
	if res.Success != 0 || res.Failed != 2 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Errors[0], "disk full") {
		t.Errorf("errors[0] = %q", res.Errors[0])
	}
	if sports.calls != 1 {
		t.Errorf("sport lookups = %d, want 1", sports.calls)
	}
}
