package seekpager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func Test_BuildSeekPredicate(t *testing.T) {
	columns := []OrderColumn{
		NewOrderColumn("posts", "created_at", 0, DirectionDESC),
		NewOrderColumn("posts", "id", 1, DirectionASC).withTieBreaker(true),
	}

	tests := []struct {
		name string
		edge Edge
		want string
	}{
		{
			name: "next is strict forward",
			edge: EdgeNext,
			want: `(("posts"."created_at" < @orderField0) OR ("posts"."created_at" = @orderField0 AND "posts"."id" > @orderField1))`,
		},
		{
			name: "start includes the anchor",
			edge: EdgeStart,
			want: `(("posts"."created_at" < @orderField0) OR ("posts"."created_at" = @orderField0 AND "posts"."id" >= @orderField1))`,
		},
		{
			name: "previous is strict backward",
			edge: EdgePrevious,
			want: `(("posts"."created_at" > @orderField0) OR ("posts"."created_at" = @orderField0 AND "posts"."id" < @orderField1))`,
		},
		{
			name: "end includes the anchor",
			edge: EdgeEnd,
			want: `(("posts"."created_at" > @orderField0) OR ("posts"."created_at" = @orderField0 AND "posts"."id" <= @orderField1))`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := BuildSeekPredicate(doubleQuoter{}, columns, []any{"2024-01-01", 42}, tt.edge)
			require.NoError(t, err)

			named, ok := expr.(clause.NamedExpr)
			require.True(t, ok)
			assert.Equal(t, tt.want, named.SQL)
			assert.Equal(t, []interface{}{map[string]interface{}{
				"orderField0": "2024-01-01",
				"orderField1": 42,
			}}, named.Vars)
		})
	}
}

func Test_BuildSeekPredicate_SingleColumn(t *testing.T) {
	columns := []OrderColumn{NewOrderColumn("", "id", 0, DirectionDESC).withTieBreaker(true)}

	expr, err := BuildSeekPredicate(nil, columns, []any{5}, EdgeNext)
	require.NoError(t, err)
	assert.Equal(t, "((id < @orderField0))", expr.(clause.NamedExpr).SQL)

	expr, err = BuildSeekPredicate(nil, columns, []any{5}, EdgeEnd)
	require.NoError(t, err)
	assert.Equal(t, "((id >= @orderField0))", expr.(clause.NamedExpr).SQL)
}

func Test_BuildSeekPredicate_Errors(t *testing.T) {
	columns := []OrderColumn{NewOrderColumn("", "id", 0, DirectionASC)}

	_, err := BuildSeekPredicate(nil, columns, nil, EdgeNext)
	require.Error(t, err)

	_, err = BuildSeekPredicate(nil, nil, nil, EdgeNext)
	require.Error(t, err)
}

func Test_Edge_String(t *testing.T) {
	assert.Equal(t, "start", EdgeStart.String())
	assert.Equal(t, "next", EdgeNext.String())
	assert.Equal(t, "previous", EdgePrevious.String())
	assert.Equal(t, "end", EdgeEnd.String())
	assert.Equal(t, "Edge(9)", Edge(9).String())
}
