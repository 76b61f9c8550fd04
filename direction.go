package seekpager

import (
	"fmt"
	"strings"
)

// Direction defines the sort direction of an ordering column.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (d Direction) Valid() bool {
	return d == DirectionASC || d == DirectionDESC
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	switch d {
	case DirectionASC:
		return DirectionDESC
	case DirectionDESC:
		return DirectionASC
	default:
		panic(fmt.Errorf("cannot reverse direction '%s'", d))
	}
}

// Operator returns the comparison operator that seeks forward in this
// direction: ASC seeks with '>' / '>=', DESC with '<' / '<='.
func (d Direction) Operator(strict bool) Operator {
	switch d {
	case DirectionASC:
		if strict {
			return OperatorGT
		}
		return OperatorGTE
	case DirectionDESC:
		if strict {
			return OperatorLT
		}
		return OperatorLTE
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", d))
	}
}

// parseDirection maps a case-insensitive "asc"/"desc" token to a Direction.
// Anything else falls back to ascending order.
func parseDirection(s string) Direction {
	if Direction(strings.ToUpper(strings.TrimSpace(s))) == DirectionDESC {
		return DirectionDESC
	}

	return DirectionASC
}

// Operator defines a comparison operator used in seek predicates.
type Operator string

const (
	OperatorGT  Operator = ">"
	OperatorLT  Operator = "<"
	OperatorGTE Operator = ">="
	OperatorLTE Operator = "<="

	// operatorEq is private because it is used ONLY for the equality prefix
	// of a seek disjunct.
	operatorEq Operator = "="
)
