package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

const sportsTable = "sports"

// SportRepository reads the fixed sport vocabulary. Sports are seeded by
// migration and never created at runtime.
type SportRepository interface {
	GetByName(ctx context.Context, name string) (*entity.Sport, error)
	List(ctx context.Context) ([]entity.Sport, error)
}

type sportRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewSportRepository(db *DB, logger *slog.Logger) SportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sportRepository{db: db, logger: logger}
}

func (r *sportRepository) GetByName(ctx context.Context, name string) (*entity.Sport, error) {
	q, args := r.db.builder().Select("id", "name").
		From(entsql.Table(sportsTable)).
		Where(entsql.EQ("name", name)).
		Limit(1).
		Query()
	var out *entity.Sport
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var s entity.Sport
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return err
		}
		s.ID = constants.Ref(constants.SportPrefix, s.ID)
		out = &s
		return nil
	})
	if err != nil {
		r.logger.Error("failed to query sport", "name", name, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *sportRepository) List(ctx context.Context) ([]entity.Sport, error) {
	q, args := r.db.builder().Select("id", "name").From(entsql.Table(sportsTable)).OrderBy("name").Query()
	var out []entity.Sport
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var s entity.Sport
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return err
		}
		s.ID = constants.Ref(constants.SportPrefix, s.ID)
		out = append(out, s)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list sports", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}
