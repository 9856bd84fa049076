package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := OpenInMemory(context.Background(), logger)
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_SeedsSports(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sports, err := NewSportRepository(db, nil).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sports) != len(constants.Sports) {
		t.Fatalf("sports = %d, want %d", len(sports), len(constants.Sports))
	}
	for _, s := range sports {
		if !strings.HasPrefix(s.ID, constants.SportPrefix) {
			t.Errorf("sport id %q lacks prefix", s.ID)
		}
	}

	v, err := MigrationVersion(ctx, db)
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if v != 2 {
		t.Fatalf("version = %d", v)
	}
	if err := Migrate(ctx, db, nil); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSportRepository_GetByName(t *testing.T) {
	repo := NewSportRepository(newTestDB(t), nil)
	ctx := context.Background()

	s, err := repo.GetByName(ctx, "卓球")
	if err != nil || s.Name != "卓球" {
		t.Fatalf("GetByName = %+v, %v", s, err)
	}
	if _, err := repo.GetByName(ctx, "カバディ"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestAreaRepository_CreateIsIdempotent(t *testing.T) {
	repo := NewAreaRepository(newTestDB(t), nil)
	ctx := context.Background()

	a1, err := repo.Create(ctx, "北区")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	a2, err := repo.Create(ctx, "北区")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if a1.ID != a2.ID {
		t.Fatalf("ids differ: %s vs %s", a1.ID, a2.ID)
	}
	if !strings.HasPrefix(a1.ID, constants.AreaPrefix) {
		t.Fatalf("id %q lacks prefix", a1.ID)
	}

	got, err := repo.GetByID(ctx, a1.ID)
	if err != nil || got.Name != "北区" {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if _, err := repo.GetByID(ctx, "area_not-a-uuid"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
}

func TestGymRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	areas := NewAreaRepository(db, nil)
	gyms := NewGymRepository(db, nil)

	area, err := areas.Create(ctx, "渋谷区")
	if err != nil {
		t.Fatal(err)
	}

	g, created, err := gyms.Create(ctx, &entity.Gym{
		Name:        "渋谷体育館",
		AreaID:      area.ID,
		Tags:        []string{"バドミントン"},
		Format:      constants.GymFormatOpenUse,
		OfficialURL: "https://example.com/a.pdf",
	})
	if err != nil || !created {
		t.Fatalf("Create = %v, %v", created, err)
	}
	if !strings.HasPrefix(g.ID, constants.GymPrefix) || g.AreaID != area.ID {
		t.Fatalf("unexpected gym: %+v", g)
	}
	if g.Courts == nil || g.Restrictions == nil {
		t.Fatal("collections should decode as empty, not nil")
	}

	again, created, err := gyms.Create(ctx, &entity.Gym{Name: "渋谷体育館"})
	if err != nil || created || again.ID != g.ID {
		t.Fatalf("duplicate Create = %+v, %v, %v", again, created, err)
	}

	if _, _, err := gyms.Create(ctx, &entity.Gym{Name: "無所属体育館"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter GymFilter
		want   int
	}{
		{name: "all", filter: GymFilter{}, want: 2},
		{name: "by area", filter: GymFilter{AreaID: area.ID}, want: 1},
		{name: "by sport", filter: GymFilter{Sport: "バドミントン"}, want: 1},
		{name: "by unknown sport", filter: GymFilter{Sport: "卓球"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gyms.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	byID, err := gyms.GetByID(ctx, g.ID)
	if err != nil || byID.Name != "渋谷体育館" {
		t.Fatalf("GetByID = %+v, %v", byID, err)
	}
}

func TestGymRepository_NormalizesBareAreaID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.SQL().ExecContext(ctx,
		`INSERT INTO gyms (id, name, area_id, created_at) VALUES ('0b7e4a4c-8a52-4a3e-9b55-3a3a1c1f0d11', '旧体育館', 'abc123', ?)`,
		time.Now().UTC(),
	); err != nil {
		t.Fatal(err)
	}
	g, err := NewGymRepository(db, nil).GetByName(ctx, "旧体育館")
	if err != nil {
		t.Fatal(err)
	}
	if g.AreaID != "area_abc123" {
		t.Fatalf("area id = %q", g.AreaID)
	}
}

func TestSourceRepository(t *testing.T) {
	repo := NewSourceRepository(newTestDB(t), nil)
	ctx := context.Background()

	src, err := repo.Create(ctx, &entity.Source{URL: "https://example.com/schedule.pdf", ParserVersion: constants.ParserVersion})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if src.Type != constants.SourcePDF || !strings.HasPrefix(src.ID, constants.SourcePrefix) {
		t.Fatalf("unexpected source: %+v", src)
	}

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	if err := repo.MarkIngested(ctx, src.ID, "gym_x", now); err != nil {
		t.Fatalf("MarkIngested: %v", err)
	}
	got, err := repo.GetByID(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.GymID != "gym_x" || got.LastCheckedAt == nil || !got.LastCheckedAt.Equal(now) {
		t.Fatalf("source not updated: %+v", got)
	}

	missing := "source_5f0e0d2e-7c1a-4d55-9d64-0e0a9b7c1e20"
	if err := repo.MarkIngested(ctx, missing, "gym_x", now); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenSlotRepository(t *testing.T) {
	repo := NewOpenSlotRepository(newTestDB(t), nil)
	ctx := context.Background()

	capacity, remaining := 20, 4
	base := entity.OpenSlot{
		GymID: "gym_a", AreaID: "area_a", SportID: "sport_a", SourceID: "source_a",
		StartTime: "09:00", EndTime: "12:00",
		Status: constants.SlotAvailable, ReceptionType: constants.ReceptionSameDay,
	}
	for _, d := range []string{"2026-11-01", "2026-11-15", "2026-12-01"} {
		s := base
		s.Date = d
		if d == "2026-11-15" {
			s.Capacity, s.Remaining = &capacity, &remaining
		}
		if _, err := repo.Create(ctx, &s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := base
	other.GymID, other.Date = "gym_b", "2026-11-02"
	if _, err := repo.Create(ctx, &other); err != nil {
		t.Fatal(err)
	}

	got, err := repo.List(ctx, OpenSlotFilter{GymID: "gym_a", From: "2026-11-01", To: "2026-11-30"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[1].Capacity == nil || *got[1].Capacity != 20 || *got[1].Remaining != 4 {
		t.Fatalf("counts lost: %+v", got[1])
	}
	if got[0].Capacity != nil {
		t.Fatalf("capacity should be absent: %+v", got[0])
	}

	all, err := repo.List(ctx, OpenSlotFilter{SourceID: "source_a"})
	if err != nil || len(all) != 4 {
		t.Fatalf("List by source = %d, %v", len(all), err)
	}
}
