package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

type Gym struct{ ent.Schema }

func (Gym) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "gyms"},
	}
}

func (Gym) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		// the name is the identity used by gym resolution
		field.String("name").NotEmpty().Unique(),
		field.String("address").Default(""),
		field.String("tel").Default(""),
		field.String("area_id").Optional().Nillable(),
		// JSON text in both dialects
		field.Strings("tags").Optional(),
		field.JSON("courts", map[string]int{}).Optional(),
		field.String("format").Default(""),
		field.Strings("restrictions").Optional(),
		field.String("parking").Default(""),
		field.String("official_url").Default(""),
		field.String("distance").Default(""),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (Gym) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("area", Area.Type).
			Ref("gyms").
			Field("area_id").
			Unique(),
	}
}

func (Gym) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("area_id"),
	}
}
