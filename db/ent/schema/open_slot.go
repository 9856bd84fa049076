package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/gym-slots/db/ent/schema/utils"
)

// OpenSlot rows are append-only; re-ingesting a source adds new rows.
type OpenSlot struct{ ent.Schema }

func (OpenSlot) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "open_slots"},
	}
}

func (OpenSlot) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("gym_id").NotEmpty(),
		field.String("area_id").NotEmpty(),
		field.String("sport_id").NotEmpty(),
		field.String("source_id").NotEmpty(),
		// YYYY-MM-DD and HH:mm text, compared lexically
		field.String("date").NotEmpty(),
		field.String("start_time").NotEmpty(),
		field.String("end_time").NotEmpty(),
		field.String("status").Validate(utils.EnumValidator("available", "few", "full", "closed")),
		field.Int("capacity").Optional().Nillable().NonNegative(),
		field.Int("remaining").Optional().Nillable().NonNegative(),
		field.String("reception_type").Validate(utils.EnumValidator("same_day", "reservation", "lottery")),
		field.String("target").Default(""),
		field.String("notes").Default(""),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (OpenSlot) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("gym_id", "date"),
		index.Fields("source_id"),
	}
}
