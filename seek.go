package seekpager

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

// Edge selects which side of a page a seek predicate describes.
type Edge int

const (
	// EdgeStart matches rows at or after the first row of a page.
	EdgeStart Edge = iota
	// EdgeNext matches rows strictly after the last row of a page.
	EdgeNext
	// EdgePrevious matches rows strictly before the first row of a page.
	EdgePrevious
	// EdgeEnd matches rows at or before the last row of a page.
	EdgeEnd
)

func (e Edge) String() string {
	switch e {
	case EdgeStart:
		return "start"
	case EdgeNext:
		return "next"
	case EdgePrevious:
		return "previous"
	case EdgeEnd:
		return "end"
	default:
		return fmt.Sprintf("Edge(%d)", int(e))
	}
}

func (e Edge) backward() bool {
	return e == EdgePrevious || e == EdgeEnd
}

func (e Edge) inclusive() bool {
	return e == EdgeStart || e == EdgeEnd
}

type (
	// tConjunct is a single comparison "Column Operator @BindKey".
	tConjunct struct {
		Column   OrderColumn
		Operator Operator
	}

	tDisjunct []tConjunct

	// tDNF is the disjunctive normal form of a seek predicate: disjuncts are
	// joined by OR, the conjuncts inside a disjunct are joined by AND.
	//
	// For ordering columns C0..Cn with anchor values V0..Vn it reads:
	//
	//	(C0 op V0) OR (C0 = V0 AND C1 op V1) ... OR (C0 = V0 AND ... AND Cn op Vn)
	//
	// which is the lexicographic tuple comparison (C0..Cn) op (V0..Vn) with
	// a per-column operator.
	tDNF []tDisjunct
)

func (c tConjunct) toSQLClause(q Quoter) string {
	return fmt.Sprintf("%s %s @%s", c.Column.QuotedFullName(q), c.Operator, c.Column.BindKey())
}

func (d tDisjunct) toSQLClause(q Quoter) string {
	andClauses := lo.Map(d, func(c tConjunct, _ int) string { return c.toSQLClause(q) })
	if len(andClauses) == 0 {
		return ""
	}

	return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND "))
}

// toSQLClause renders the DNF as a single parenthesised SQL condition with
// named placeholders. An empty DNF renders as "".
func (d tDNF) toSQLClause(q Quoter) string {
	orClauses := make([]string, 0, len(d))
	for _, disjunct := range d {
		if s := disjunct.toSQLClause(q); s != "" {
			orClauses = append(orClauses, s)
		}
	}

	if len(orClauses) == 0 {
		return ""
	}

	return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR "))
}

// seekConjunct returns the comparison applied to column for the given edge.
//
// The tie-breaker compares inclusively on start/end edges and strictly on
// next/previous ones. Every other column compares strictly. Backward edges
// (previous/end) use the reversed direction.
func seekConjunct(column OrderColumn, edge Edge) tConjunct {
	strict := !column.IsTieBreaker() || !edge.inclusive()
	seek := lo.Ternary(edge.backward(), column.Reverse(), column)

	return tConjunct{Column: column, Operator: seek.ComparisonOperator(strict)}
}

func buildSeekDNF(columns []OrderColumn, edge Edge) tDNF {
	dnf := make(tDNF, 0, len(columns))
	for i, column := range columns {
		disjunct := make(tDisjunct, 0, i+1)
		disjunct = append(disjunct, lo.Map(columns[:i], func(prev OrderColumn, _ int) tConjunct {
			return tConjunct{Column: prev, Operator: operatorEq}
		})...)
		disjunct = append(disjunct, seekConjunct(column, edge))

		dnf = append(dnf, disjunct)
	}

	return dnf
}

// BuildSeekPredicate builds the keyset condition selecting rows on the given
// edge of the anchor row whose ordering values are values. values must hold
// exactly one value per ordering column, in the same order.
func BuildSeekPredicate(q Quoter, columns []OrderColumn, values []any, edge Edge) (clause.Expression, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("seek predicate: %d ordering columns but %d anchor values", len(columns), len(values))
	}

	sql := buildSeekDNF(columns, edge).toSQLClause(q)
	if sql == "" {
		return nil, fmt.Errorf("seek predicate: empty ordering")
	}

	named := make(map[string]interface{}, len(columns))
	for i, column := range columns {
		named[column.BindKey()] = values[i]
	}

	return clause.NamedExpr{SQL: sql, Vars: []interface{}{named}}, nil
}
