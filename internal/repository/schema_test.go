package repository

import (
	"sort"
	"testing"

	"entgo.io/ent"

	"github.com/joseph-ayodele/gym-slots/db/ent/schema"
)

func fieldNames(fields []ent.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Descriptor().Name)
	}
	sort.Strings(out)
	return out
}

func sorted(cols []string) []string {
	out := append([]string(nil), cols...)
	sort.Strings(out)
	return out
}

func TestColumnsMatchSchema(t *testing.T) {
	tests := []struct {
		table  string
		schema []ent.Field
		cols   []string
	}{
		{gymsTable, schema.Gym{}.Fields(), gymColumns},
		{sourcesTable, schema.Source{}.Fields(), sourceColumns},
		{openSlotsTable, schema.OpenSlot{}.Fields(), openSlotColumns},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			want, got := fieldNames(tt.schema), sorted(tt.cols)
			if len(want) != len(got) {
				t.Fatalf("columns %v, schema %v", got, want)
			}
			for i := range want {
				if want[i] != got[i] {
					t.Fatalf("columns %v, schema %v", got, want)
				}
			}
		})
	}
}

func TestSchemaEnumValidators(t *testing.T) {
	var status ent.Field
	for _, f := range (schema.OpenSlot{}).Fields() {
		if f.Descriptor().Name == "status" {
			status = f
		}
	}
	if status == nil {
		t.Fatal("status field missing")
	}
	validators := status.Descriptor().Validators
	if len(validators) != 1 {
		t.Fatalf("validators = %d", len(validators))
	}
	check, ok := validators[0].(func(string) error)
	if !ok {
		t.Fatalf("validator type %T", validators[0])
	}
	if err := check("few"); err != nil {
		t.Fatalf("few rejected: %v", err)
	}
	if err := check("maybe"); err == nil {
		t.Fatal("maybe accepted")
	}
}
