// Package schema is the canonical model of the gym-slots tables. The goose
// migrations under internal/repository implement it; repository tests keep
// the two in step.
package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/google/uuid"
)

type Area struct{ ent.Schema }

func (Area) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "areas"},
	}
}

func (Area) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("name").NotEmpty().Unique(),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (Area) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("gyms", Gym.Type),
	}
}

type Sport struct{ ent.Schema }

func (Sport) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "sports"},
	}
}

func (Sport) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("name").NotEmpty().Unique(),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}
