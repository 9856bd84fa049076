package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/gym-slots/db/ent/schema/utils"
)

type Source struct{ ent.Schema }

func (Source) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "sources"},
	}
}

func (Source) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("url").NotEmpty(),
		field.String("type").Validate(utils.EnumValidator("pdf", "web")),
		field.String("gym_id").Optional().Nillable(),
		field.Time("last_checked_at").Optional().Nillable(),
		field.String("parser_version").Default(""),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}
