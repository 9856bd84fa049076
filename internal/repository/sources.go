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

const sourcesTable = "sources"

var sourceColumns = []string{"id", "url", "type", "gym_id", "last_checked_at", "parser_version", "created_at"}

type SourceRepository interface {
	Create(ctx context.Context, src *entity.Source) (*entity.Source, error)
	GetByID(ctx context.Context, ref string) (*entity.Source, error)
	// MarkIngested links the source to gymRef and stamps last_checked_at.
	// Unknown sources return common.ErrNotFound.
	MarkIngested(ctx context.Context, ref, gymRef string, checkedAt time.Time) error
}

type sourceRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewSourceRepository(db *DB, logger *slog.Logger) SourceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sourceRepository{db: db, logger: logger}
}

func (r *sourceRepository) Create(ctx context.Context, src *entity.Source) (*entity.Source, error) {
	out := *src
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now().UTC()
	if out.Type == "" {
		out.Type = constants.SourceTypeFromURL(out.URL)
	}

	var lastChecked any
	if out.LastCheckedAt != nil {
		lastChecked = out.LastCheckedAt.UTC()
	}
	q, args := r.db.builder().Insert(sourcesTable).
		Columns(sourceColumns...).
		Values(
			out.ID, out.URL, string(out.Type),
			nullableString(constants.Ref(constants.GymPrefix, out.GymID)),
			lastChecked, out.ParserVersion, out.CreatedAt,
		).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create source", "url", out.URL, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	out.ID = constants.Ref(constants.SourcePrefix, out.ID)
	return &out, nil
}

func (r *sourceRepository) GetByID(ctx context.Context, ref string) (*entity.Source, error) {
	raw := constants.RawID(constants.SourcePrefix, ref)
	if _, err := uuid.Parse(raw); err != nil {
		return nil, common.ErrNotFound
	}
	q, args := r.db.builder().Select(sourceColumns...).
		From(entsql.Table(sourcesTable)).
		Where(entsql.EQ("id", raw)).
		Limit(1).
		Query()

	var out *entity.Source
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var (
			s           entity.Source
			typ         string
			gymID       sql.NullString
			lastChecked sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.URL, &typ, &gymID, &lastChecked, &s.ParserVersion, &s.CreatedAt); err != nil {
			return err
		}
		s.ID = constants.Ref(constants.SourcePrefix, s.ID)
		s.Type = constants.SourceType(typ)
		s.GymID = constants.Ref(constants.GymPrefix, gymID.String)
		if lastChecked.Valid {
			t := lastChecked.Time
			s.LastCheckedAt = &t
		}
		out = &s
		return nil
	})
	if err != nil {
		r.logger.Error("failed to query source", "source_id", ref, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *sourceRepository) MarkIngested(ctx context.Context, ref, gymRef string, checkedAt time.Time) error {
	raw := constants.RawID(constants.SourcePrefix, ref)
	if _, err := uuid.Parse(raw); err != nil {
		return common.ErrNotFound
	}
	q, args := r.db.builder().Update(sourcesTable).
		Set("gym_id", constants.Ref(constants.GymPrefix, gymRef)).
		Set("last_checked_at", checkedAt.UTC()).
		Where(entsql.EQ("id", raw)).
		Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to update source", "source_id", ref, "error", err)
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
