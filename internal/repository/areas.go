package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

const areasTable = "areas"

type AreaRepository interface {
	GetByName(ctx context.Context, name string) (*entity.Area, error)
	GetByID(ctx context.Context, ref string) (*entity.Area, error)
	// Create inserts the area unless one with the same name exists, and
	// returns whichever row holds the name afterwards.
	Create(ctx context.Context, name string) (*entity.Area, error)
	List(ctx context.Context) ([]entity.Area, error)
}

type areaRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewAreaRepository(db *DB, logger *slog.Logger) AreaRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &areaRepository{db: db, logger: logger}
}

func (r *areaRepository) GetByName(ctx context.Context, name string) (*entity.Area, error) {
	return r.getOne(ctx, entsql.EQ("name", name))
}

func (r *areaRepository) GetByID(ctx context.Context, ref string) (*entity.Area, error) {
	raw := constants.RawID(constants.AreaPrefix, ref)
	if _, err := uuid.Parse(raw); err != nil {
		return nil, common.ErrNotFound
	}
	return r.getOne(ctx, entsql.EQ("id", raw))
}

func (r *areaRepository) getOne(ctx context.Context, p *entsql.Predicate) (*entity.Area, error) {
	q, args := r.db.builder().Select("id", "name").From(entsql.Table(areasTable)).Where(p).Limit(1).Query()
	var out *entity.Area
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var a entity.Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return err
		}
		a.ID = constants.Ref(constants.AreaPrefix, a.ID)
		out = &a
		return nil
	})
	if err != nil {
		r.logger.Error("failed to query area", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *areaRepository) Create(ctx context.Context, name string) (*entity.Area, error) {
	q, args := r.db.builder().Insert(areasTable).
		Columns("id", "name", "created_at").
		Values(uuid.NewString(), name, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing()).
		Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to create area", "name", name, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if n == 0 {
		r.logger.Debug("area already present", "name", name)
	}
	return r.GetByName(ctx, name)
}

func (r *areaRepository) List(ctx context.Context) ([]entity.Area, error) {
	q, args := r.db.builder().Select("id", "name").From(entsql.Table(areasTable)).OrderBy("name").Query()
	var out []entity.Area
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var a entity.Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return err
		}
		a.ID = constants.Ref(constants.AreaPrefix, a.ID)
		out = append(out, a)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list areas", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}
