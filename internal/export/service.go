package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/gym-slots/internal/repository"
)

// Service produces XLSX workbooks of stored open slots.
type Service struct {
	slots  repository.OpenSlotRepository
	gyms   repository.GymRepository
	sports repository.SportRepository
	logger *slog.Logger
}

func NewService(slots repository.OpenSlotRepository, gyms repository.GymRepository, sports repository.SportRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{slots: slots, gyms: gyms, sports: sports, logger: logger}
}

// ExportOpenSlotsXLSX returns a workbook for the given gym (all gyms when
// empty) and inclusive date window.
// If only from is provided -> from..today.
// If neither is provided   -> every stored slot.
func (s *Service) ExportOpenSlotsXLSX(ctx context.Context, gymRef string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	filter := repository.OpenSlotFilter{GymID: gymRef}
	if from != nil {
		filter.From = from.Format(time.DateOnly)
		if to == nil {
			filter.To = time.Now().Format(time.DateOnly)
		}
	}
	if to != nil {
		filter.To = to.Format(time.DateOnly)
	}

	rows, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query open slots: %w", err)
	}

	sportNames := map[string]string{}
	sports, err := s.sports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query sports: %w", err)
	}
	for _, sp := range sports {
		sportNames[sp.ID] = sp.Name
	}
	gymNames := map[string]string{}
	gymName := func(ref string) string {
		if n, ok := gymNames[ref]; ok {
			return n
		}
		n := ref
		if g, err := s.gyms.GetByID(ctx, ref); err == nil {
			n = g.Name
		}
		gymNames[ref] = n
		return n
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "OpenSlots"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	_ = f.DeleteSheet("Sheet1")
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"日付", "開始", "終了", "体育館", "競技", "空き状況", "定員", "残り", "受付方法", "対象", "備考"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.Date)
		write(2, r.StartTime)
		write(3, r.EndTime)
		write(4, gymName(r.GymID))
		write(5, sportNames[r.SportID])
		write(6, string(r.Status))
		if r.Capacity != nil {
			write(7, *r.Capacity)
		}
		if r.Remaining != nil {
			write(8, *r.Remaining)
		}
		write(9, string(r.ReceptionType))
		write(10, truncate(r.Target, 80))
		write(11, truncate(r.Notes, 140))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "C", 8)  // times
	_ = f.SetColWidth(sheet, "D", "D", 28) // gym
	_ = f.SetColWidth(sheet, "E", "E", 18) // sport
	_ = f.SetColWidth(sheet, "K", "K", 48) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"gym_id", gymRef,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
