package seekpager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Direction_Operator(t *testing.T) {
	tests := []struct {
		name     string
		in       Direction
		strict   bool
		operator Operator
	}{
		{"ASC strict maps to GT", DirectionASC, true, OperatorGT},
		{"ASC inclusive maps to GTE", DirectionASC, false, OperatorGTE},
		{"DESC strict maps to LT", DirectionDESC, true, OperatorLT},
		{"DESC inclusive maps to LTE", DirectionDESC, false, OperatorLTE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.in.Valid())
			assert.Equal(t, tt.operator, tt.in.Operator(tt.strict))
		})
	}
}

func Test_Direction_Reverse(t *testing.T) {
	assert.Equal(t, DirectionDESC, DirectionASC.Reverse())
	assert.Equal(t, DirectionASC, DirectionDESC.Reverse())
	assert.Panics(t, func() { Direction("bad").Reverse() })
	assert.False(t, Direction("bad").Valid())
}

func Test_parseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"desc", DirectionDESC},
		{" DeSc ", DirectionDESC},
		{"asc", DirectionASC},
		{"", DirectionASC},
		{"sideways", DirectionASC},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDirection(tt.in))
		})
	}
}

func Test_Direction_Operator_Unknown(t *testing.T) {
	assert.Panics(t, func() { Direction("bad").Operator(true) })
}
