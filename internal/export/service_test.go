package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
)

func TestExportOpenSlotsXLSX(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	db, err := repository.OpenInMemory(ctx, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	gyms := repository.NewGymRepository(db, logger)
	sports := repository.NewSportRepository(db, logger)
	slots := repository.NewOpenSlotRepository(db, logger)

	gym, _, err := gyms.Create(ctx, &entity.Gym{Name: "北体育館"})
	if err != nil {
		t.Fatal(err)
	}
	sport, err := sports.GetByName(ctx, "卓球")
	if err != nil {
		t.Fatal(err)
	}
	capacity := 12
	for _, d := range []string{"2026-11-01", "2026-11-20", "2027-01-05"} {
		_, err := slots.Create(ctx, &entity.OpenSlot{
			GymID: gym.ID, AreaID: "area_x", SportID: sport.ID, SourceID: "source_x",
			Date: d, StartTime: "09:00", EndTime: "11:00",
			Status: constants.SlotFew, Capacity: &capacity, ReceptionType: constants.ReceptionLottery,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	svc := NewService(slots, gyms, sports, logger)
	from := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	data, err := svc.ExportOpenSlotsXLSX(ctx, gym.ID, &from, &to)
	if err != nil {
		t.Fatalf("ExportOpenSlotsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("OpenSlots")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	got := rows[1]
	if got[0] != "2026-11-01" || got[3] != "北体育館" || got[4] != "卓球" || got[5] != "few" || got[6] != "12" || got[8] != "lottery" {
		t.Fatalf("row = %v", got)
	}
}
