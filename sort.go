package seekpager

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	// Column names end up verbatim in ORDER BY and in seek predicates.
	if !lo.Every(_availableColumnNameSymbols, []rune(o.Column)) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// Clause converts Orderings to a gorm ORDER BY clause. "table.column"
// names become table qualified columns quoted by the dialector.
func (o Orderings) Clause() clause.OrderBy {
	return clause.OrderBy{Columns: lo.Map(o, func(ordering OrderBy, i int) clause.OrderByColumn {
		c := ParseOrderString(ordering.Column, i)
		return clause.OrderByColumn{
			Column: clause.Column{Table: c.Table(), Name: c.Name(), Raw: !c.ValidName()},
			Desc:   ordering.Direction == DirectionDESC,
		}
	})}
}

// Apply validates the ordering and returns a copy of db ordered by it. db
// itself is left untouched, so a shared base query can be opened repeatedly.
func (o Orderings) Apply(db *gorm.DB) (*gorm.DB, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}

	return db.Session(&gorm.Session{}).Order(o.Clause()), nil
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}
	}

	return nil
}

// ParseSort builds Orderings from API sort items "alias asc|desc". Aliases
// resolve through columnMapping; an unknown alias fails with a hint naming
// the closest known one.
func ParseSort(items []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make(Orderings, 0, len(items))
	for _, item := range items {
		ordering, err := parseSortItem(item, columnMapping)
		if err != nil {
			return nil, err
		}

		ret = append(ret, ordering)
	}

	return ret, nil
}

func parseSortItem(item string, columnMapping ColumnMapping) (OrderBy, error) {
	fields := strings.Fields(item)
	if len(fields) != 2 {
		return OrderBy{}, fmt.Errorf("invalid ordering string format '%s'", item)
	}

	column, ok := columnMapping[fields[0]]
	if !ok || column == "" {
		return OrderBy{}, fmt.Errorf("invalid column alias. closest: '%s'", closestAlias(fields[0], lo.Keys(columnMapping)))
	}

	return OrderBy{Column: column, Direction: Direction(strings.ToUpper(fields[1]))}, nil
}

// ApplySort parses sort with columnMapping and orders db by the result. An
// empty sort leaves db untouched.
func ApplySort(db *gorm.DB, sort []string, columnMapping ColumnMapping) (*gorm.DB, error) {
	if len(sort) == 0 {
		return db, nil
	}

	orderings, err := ParseSort(sort, columnMapping)
	if err != nil {
		return nil, err
	}

	return orderings.Apply(db)
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	target := []rune(input)
	distance := lo.SliceToMap(dataSet, func(alias ColumnAlias) (ColumnAlias, int) {
		return alias, levenshtein([]rune(alias), target)
	})

	return lo.MinBy(dataSet, func(a, b ColumnAlias) bool {
		return distance[a] < distance[b] || (distance[a] == distance[b] && a < b)
	})
}
