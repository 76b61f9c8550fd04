package seekpager

import (
	"fmt"

	"gorm.io/gorm"
)

// reshape returns a reusable copy of db whose statement was modified by fn.
// db itself is left untouched.
func reshape(db *gorm.DB, fn func(stmt *gorm.Statement)) *gorm.DB {
	tx := db.Session(&gorm.Session{}).Clauses()
	fn(tx.Statement)

	return tx.Session(&gorm.Session{})
}

// scanRows runs tx and returns every row as width loosely typed values.
// []byte values are converted to string so they can be bound back.
func scanRows(tx *gorm.DB, width int) ([][]any, error) {
	rows, err := tx.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret [][]any
	for rows.Next() {
		values := make([]any, width)
		ptrs := make([]any, width)
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("cannot scan row: %w", err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		ret = append(ret, values)
	}

	return ret, rows.Err()
}

// scanColumn runs tx and returns the first column of every row.
func scanColumn(tx *gorm.DB) ([]any, error) {
	rows, err := scanRows(tx, 1)
	if err != nil {
		return nil, err
	}

	ret := make([]any, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row[0])
	}

	return ret, nil
}
