package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

const gymsTable = "gyms"

var gymColumns = []string{
	"id", "name", "address", "tel", "area_id", "tags", "courts",
	"format", "restrictions", "parking", "official_url", "distance", "created_at",
}

// GymFilter narrows List. Empty fields match everything.
type GymFilter struct {
	AreaID string // area_ reference
	Sport  string // matched against tags
}

type GymRepository interface {
	GetByName(ctx context.Context, name string) (*entity.Gym, error)
	GetByID(ctx context.Context, ref string) (*entity.Gym, error)
	// Create inserts gym unless the name is taken. created is false when an
	// existing row won; the returned gym is always the stored one.
	Create(ctx context.Context, gym *entity.Gym) (stored *entity.Gym, created bool, err error)
	List(ctx context.Context, filter GymFilter) ([]entity.Gym, error)
}

type gymRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewGymRepository(db *DB, logger *slog.Logger) GymRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &gymRepository{db: db, logger: logger}
}

func (r *gymRepository) GetByName(ctx context.Context, name string) (*entity.Gym, error) {
	return r.getOne(ctx, entsql.EQ("name", name))
}

func (r *gymRepository) GetByID(ctx context.Context, ref string) (*entity.Gym, error) {
	raw := constants.RawID(constants.GymPrefix, ref)
	if _, err := uuid.Parse(raw); err != nil {
		return nil, common.ErrNotFound
	}
	return r.getOne(ctx, entsql.EQ("id", raw))
}

func (r *gymRepository) getOne(ctx context.Context, p *entsql.Predicate) (*entity.Gym, error) {
	q, args := r.db.builder().Select(gymColumns...).From(entsql.Table(gymsTable)).Where(p).Limit(1).Query()
	gyms, err := r.scanGyms(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to query gym", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if len(gyms) == 0 {
		return nil, common.ErrNotFound
	}
	return &gyms[0], nil
}

func (r *gymRepository) Create(ctx context.Context, gym *entity.Gym) (*entity.Gym, bool, error) {
	tags, err := json.Marshal(nonNilStrings(gym.Tags))
	if err != nil {
		return nil, false, err
	}
	courts := gym.Courts
	if courts == nil {
		courts = map[string]int{}
	}
	courtsJSON, err := json.Marshal(courts)
	if err != nil {
		return nil, false, err
	}
	restrictions, err := json.Marshal(nonNilStrings(gym.Restrictions))
	if err != nil {
		return nil, false, err
	}

	q, args := r.db.builder().Insert(gymsTable).
		Columns(gymColumns...).
		Values(
			uuid.NewString(), gym.Name, gym.Address, gym.Tel,
			nullableString(constants.Ref(constants.AreaPrefix, gym.AreaID)),
			string(tags), string(courtsJSON), gym.Format, string(restrictions),
			gym.Parking, gym.OfficialURL, gym.Distance, time.Now().UTC(),
		).
		OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing()).
		Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to create gym", "name", gym.Name, "error", err)
		return nil, false, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	stored, err := r.GetByName(ctx, gym.Name)
	if err != nil {
		return nil, false, err
	}
	return stored, n > 0, nil
}

func (r *gymRepository) List(ctx context.Context, filter GymFilter) ([]entity.Gym, error) {
	sel := r.db.builder().Select(gymColumns...).From(entsql.Table(gymsTable))
	var preds []*entsql.Predicate
	if filter.AreaID != "" {
		preds = append(preds, entsql.EQ("area_id", constants.Ref(constants.AreaPrefix, filter.AreaID)))
	}
	if filter.Sport != "" {
		// tags is a JSON array; match the quoted element
		tag, _ := json.Marshal(filter.Sport)
		preds = append(preds, entsql.Contains("tags", string(tag)))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	q, args := sel.OrderBy("name").Query()

	gyms, err := r.scanGyms(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list gyms", "area_id", filter.AreaID, "sport", filter.Sport, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return gyms, nil
}

func (r *gymRepository) scanGyms(ctx context.Context, q string, args []any) ([]entity.Gym, error) {
	var out []entity.Gym
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var (
			g                          entity.Gym
			areaID                     sql.NullString
			tags, courts, restrictions string
		)
		if err := rows.Scan(
			&g.ID, &g.Name, &g.Address, &g.Tel, &areaID, &tags, &courts,
			&g.Format, &restrictions, &g.Parking, &g.OfficialURL, &g.Distance, &g.CreatedAt,
		); err != nil {
			return err
		}
		g.ID = constants.Ref(constants.GymPrefix, g.ID)
		// legacy rows may hold a bare area id
		g.AreaID = constants.Ref(constants.AreaPrefix, areaID.String)
		if err := json.Unmarshal([]byte(tags), &g.Tags); err != nil {
			return fmt.Errorf("gym %s tags: %w", g.ID, err)
		}
		if err := json.Unmarshal([]byte(courts), &g.Courts); err != nil {
			return fmt.Errorf("gym %s courts: %w", g.ID, err)
		}
		if err := json.Unmarshal([]byte(restrictions), &g.Restrictions); err != nil {
			return fmt.Errorf("gym %s restrictions: %w", g.ID, err)
		}
		g.Tags = nonNilStrings(g.Tags)
		g.Restrictions = nonNilStrings(g.Restrictions)
		if g.Courts == nil {
			g.Courts = map[string]int{}
		}
		out = append(out, g)
		return nil
	})
	return out, err
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
