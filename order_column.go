package seekpager

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

var (
	_identifierRegexp  = regexp.MustCompile(`^\w+$`)
	_orderSuffixRegexp = regexp.MustCompile(`(?i)^(.*)\s+(ASC|DESC)$`)
	_tableColumnRegexp = regexp.MustCompile("^[\"'`]?\\w+[\"'`]?\\.?[\"'`]?\\w+[\"'`]?$")
	_identPartRegexp   = regexp.MustCompile("[^\".`]+|\"[^\"]*\"|`[^`]*`")
	_identQuoteStrip   = strings.NewReplacer(`"`, "", "`", "")
)

// bindKeyPrefix prefixes the named bind parameter of every ordering column.
const bindKeyPrefix = "orderField"

// Quoter quotes SQL identifiers. Every gorm.Dialector satisfies it.
type Quoter interface {
	QuoteTo(writer clause.Writer, str string)
}

// OrderColumn is one column of a multi-column ORDER BY. It is immutable:
// Reverse and friends return new values.
type OrderColumn struct {
	table      string
	name       string
	index      int
	direction  Direction
	tieBreaker bool
}

// NewOrderColumn builds an ordering column. Double quotes and backticks are
// stripped from table and column names.
func NewOrderColumn(table, name string, index int, direction Direction) OrderColumn {
	return OrderColumn{
		table:     _identQuoteStrip.Replace(table),
		name:      _identQuoteStrip.Replace(name),
		index:     index,
		direction: lo.Ternary(direction == DirectionDESC, DirectionDESC, DirectionASC),
	}
}

func (c OrderColumn) Table() string        { return c.table }
func (c OrderColumn) Name() string         { return c.name }
func (c OrderColumn) Index() int           { return c.index }
func (c OrderColumn) Direction() Direction { return c.direction }

// IsTieBreaker reports whether the column guarantees a total order.
func (c OrderColumn) IsTieBreaker() bool { return c.tieBreaker }

// HasTable reports whether the column is table qualified.
func (c OrderColumn) HasTable() bool { return c.table != "" }

// ValidTableName reports whether the table is a plain SQL identifier.
func (c OrderColumn) ValidTableName() bool { return validIdentifier(c.table) }

// ValidName reports whether the column is a plain SQL identifier.
func (c OrderColumn) ValidName() bool { return validIdentifier(c.name) }

// Reverse returns the same column ordered in the opposite direction.
func (c OrderColumn) Reverse() OrderColumn {
	c.direction = c.direction.Reverse()
	return c
}

func (c OrderColumn) withTieBreaker(tieBreaker bool) OrderColumn {
	c.tieBreaker = tieBreaker
	return c
}

// ComparisonOperator returns the operator seeking forward in the column's
// direction.
func (c OrderColumn) ComparisonOperator(strict bool) Operator {
	return c.direction.Operator(strict)
}

// BindKey returns the named bind parameter of the column, e.g. "orderField2".
func (c OrderColumn) BindKey() string {
	return bindKeyPrefix + strconv.Itoa(c.index)
}

// FullName returns "table.column", or "column" when unqualified.
func (c OrderColumn) FullName() string {
	if c.HasTable() {
		return c.table + "." + c.name
	}

	return c.name
}

// QuotedFullName returns the column quoted by q. Table and column names that
// are not plain identifiers pass through verbatim; a table qualifier is kept
// either way. Expressions parsed from raw ORDER BY strings carry no table.
func (c OrderColumn) QuotedFullName(q Quoter) string {
	name := c.name
	if c.ValidName() {
		name = quoteIdentifier(q, c.name)
	}

	if !c.HasTable() {
		return name
	}

	if !c.ValidTableName() {
		return c.table + "." + name
	}

	return quoteIdentifier(q, c.table) + "." + name
}

// EqualityPredicate returns "<column> = @<bind key>".
func (c OrderColumn) EqualityPredicate(q Quoter) string {
	return c.predicate(q, operatorEq)
}

// StrictPredicate returns "<column> >|< @<bind key>" depending on direction.
func (c OrderColumn) StrictPredicate(q Quoter) string {
	return c.predicate(q, c.ComparisonOperator(true))
}

// OrEqualPredicate returns "<column> >=|<= @<bind key>" depending on direction.
func (c OrderColumn) OrEqualPredicate(q Quoter) string {
	return c.predicate(q, c.ComparisonOperator(false))
}

// OrderSQL returns the ORDER BY fragment, e.g. `"posts"."id" ASC`.
func (c OrderColumn) OrderSQL(q Quoter) string {
	return fmt.Sprintf("%s %s", c.QuotedFullName(q), c.direction)
}

func (c OrderColumn) predicate(q Quoter, op Operator) string {
	return fmt.Sprintf("%s %s @%s", c.QuotedFullName(q), op, c.BindKey())
}

// ParseOrderString parses an ORDER BY item such as `"posts"."created_at" desc`.
//
// A trailing ASC/DESC (any case) sets the direction, ascending otherwise.
// A single identifier becomes an unqualified column. Anything that is not a
// (table.)column pair, e.g. a CASE expression, is kept verbatim as the column.
// Parsing never fails.
func ParseOrderString(s string, index int) OrderColumn {
	expr, direction := strings.TrimSpace(s), DirectionASC
	if m := _orderSuffixRegexp.FindStringSubmatch(expr); m != nil {
		expr, direction = strings.TrimSpace(m[1]), parseDirection(m[2])
	}

	table, column := splitTableColumn(expr)
	if column == "" {
		table, column = "", table
	}

	return NewOrderColumn(table, column, index, direction)
}

// ParseOrderNode parses a structured gorm ORDER BY column. Columns without a
// table, or bound to clause.CurrentTable, belong to baseTable.
func ParseOrderNode(node clause.OrderByColumn, index int, baseTable string) OrderColumn {
	if node.Column.Raw {
		c := ParseOrderString(node.Column.Name, index)
		if node.Desc {
			c.direction = DirectionDESC
		}

		return c
	}

	table, column := node.Column.Table, node.Column.Name
	if t, col := splitTableColumn(column); table == "" && col != "" {
		table, column = t, col
	}

	if table == "" || table == clause.CurrentTable {
		table = baseTable
	}

	return NewOrderColumn(table, column, index, lo.Ternary(node.Desc, DirectionDESC, DirectionASC))
}

func splitTableColumn(expr string) (string, string) {
	if !_tableColumnRegexp.MatchString(expr) {
		return "", expr
	}

	parts := _identPartRegexp.FindAllString(expr, -1)
	switch len(parts) {
	case 0:
		return "", expr
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}

func validIdentifier(name string) bool {
	return _identifierRegexp.MatchString(name)
}

func quoteIdentifier(q Quoter, name string) string {
	if q == nil {
		return name
	}

	var sb strings.Builder
	q.QuoteTo(&sb, name)

	return sb.String()
}

// splitOrderList splits a raw ORDER BY list on top-level commas. Commas in
// parentheses or quotes do not split.
func splitOrderList(s string) []string {
	var (
		items []string
		depth int
		quote rune
		start int
	)

	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			items = append(items, s[start:i])
			start = i + 1
		}
	}
	items = append(items, s[start:])

	return lo.Filter(lo.Map(items, func(item string, _ int) string {
		return strings.TrimSpace(item)
	}), func(item string, _ int) bool {
		return item != ""
	})
}
