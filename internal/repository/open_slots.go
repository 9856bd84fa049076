package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

const openSlotsTable = "open_slots"

var openSlotColumns = []string{
	"id", "gym_id", "area_id", "sport_id", "source_id", "date", "start_time", "end_time",
	"status", "capacity", "remaining", "reception_type", "target", "notes", "updated_at",
}

// OpenSlotFilter narrows List. Dates are inclusive YYYY-MM-DD bounds.
type OpenSlotFilter struct {
	GymID    string
	SourceID string
	From     string
	To       string
}

// OpenSlotRepository stores resolved slots. Records are append-only.
type OpenSlotRepository interface {
	Create(ctx context.Context, slot *entity.OpenSlot) (*entity.OpenSlot, error)
	List(ctx context.Context, filter OpenSlotFilter) ([]entity.OpenSlot, error)
}

type openSlotRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewOpenSlotRepository(db *DB, logger *slog.Logger) OpenSlotRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &openSlotRepository{db: db, logger: logger}
}

func (r *openSlotRepository) Create(ctx context.Context, slot *entity.OpenSlot) (*entity.OpenSlot, error) {
	out := *slot
	out.ID = uuid.NewString()
	out.GymID = constants.Ref(constants.GymPrefix, out.GymID)
	out.AreaID = constants.Ref(constants.AreaPrefix, out.AreaID)
	out.SportID = constants.Ref(constants.SportPrefix, out.SportID)
	out.SourceID = constants.Ref(constants.SourcePrefix, out.SourceID)
	out.UpdatedAt = time.Now().UTC()

	q, args := r.db.builder().Insert(openSlotsTable).
		Columns(openSlotColumns...).
		Values(
			out.ID, out.GymID, out.AreaID, out.SportID, out.SourceID,
			out.Date, out.StartTime, out.EndTime, string(out.Status),
			nullableInt(out.Capacity), nullableInt(out.Remaining),
			string(out.ReceptionType), out.Target, out.Notes, out.UpdatedAt,
		).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create open slot", "gym_id", out.GymID, "date", out.Date, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return &out, nil
}

func (r *openSlotRepository) List(ctx context.Context, filter OpenSlotFilter) ([]entity.OpenSlot, error) {
	sel := r.db.builder().Select(openSlotColumns...).From(entsql.Table(openSlotsTable))
	var preds []*entsql.Predicate
	if filter.GymID != "" {
		preds = append(preds, entsql.EQ("gym_id", constants.Ref(constants.GymPrefix, filter.GymID)))
	}
	if filter.SourceID != "" {
		preds = append(preds, entsql.EQ("source_id", constants.Ref(constants.SourcePrefix, filter.SourceID)))
	}
	if filter.From != "" {
		preds = append(preds, entsql.GTE("date", filter.From))
	}
	if filter.To != "" {
		preds = append(preds, entsql.LTE("date", filter.To))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	q, args := sel.OrderBy("date", "start_time", "gym_id").Query()

	var out []entity.OpenSlot
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var (
			s                   entity.OpenSlot
			status, reception   string
			capacity, remaining sql.NullInt64
		)
		if err := rows.Scan(
			&s.ID, &s.GymID, &s.AreaID, &s.SportID, &s.SourceID, &s.Date, &s.StartTime, &s.EndTime,
			&status, &capacity, &remaining, &reception, &s.Target, &s.Notes, &s.UpdatedAt,
		); err != nil {
			return err
		}
		s.Status = constants.SlotStatus(status)
		s.ReceptionType = constants.ReceptionType(reception)
		s.Capacity = intPtr(capacity)
		s.Remaining = intPtr(remaining)
		out = append(out, s)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list open slots", "gym_id", filter.GymID, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}
