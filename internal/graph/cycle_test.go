package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindCycle(t *testing.T) {
	tests := []struct {
		name   string
		schema *fakeSchema
		root   string
		want   []string
	}{
		{
			name:   "single table",
			schema: newFakeSchema().table("t", "id"),
			root:   "t",
			want:   nil,
		},
		{
			name: "chain",
			schema: newFakeSchema().
				table("z", "g").table("y", "d", "f").table("x", "a").
				fk("z", "g", "y", "d").
				fk("y", "f", "x", "a"),
			root: "z",
			want: nil,
		},
		{
			name: "two table cycle",
			schema: newFakeSchema().
				table("t", "id", "a_id").table("a", "id", "t_id").
				fk("t", "a_id", "a", "id").
				fk("a", "t_id", "t", "id"),
			root: "t",
			want: []string{"t", "a", "t"},
		},
		{
			name: "cycle behind a tail",
			schema: newFakeSchema().
				table("r", "a_id").table("a", "b_id").table("b", "c_id").table("c", "a_id").
				fk("r", "a_id", "a", "id").
				fk("a", "b_id", "b", "id").
				fk("b", "c_id", "c", "id").
				fk("c", "a_id", "a", "id"),
			root: "r",
			want: []string{"a", "b", "c", "a"},
		},
		{
			name: "self reference",
			schema: newFakeSchema().
				table("employee", "id", "manager_id").
				fk("employee", "manager_id", "employee", "id"),
			root: "employee",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := resolve(t, tt.schema, tt.root)
			assert.Equal(t, tt.want, FindCycle(m))
		})
	}

	if FindCycle(nil) != nil {
		t.Error("FindCycle(nil) should return nil")
	}
}
