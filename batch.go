package seekpager

import (
	"gorm.io/gorm"
)

// Batch calls fn with consecutive windows of db, starting at the first page,
// until the last page has been visited. Iteration stops at the first error.
func Batch(db *gorm.DB, batchSize int, cfg Config, fn func(w *Window) error, opts ...Option) error {
	var token string
	for {
		w, err := New(db, token, batchSize, cfg, opts...)
		if err != nil {
			return err
		}

		if err := fn(w); err != nil {
			return err
		}

		token, err = w.NextCursor()
		if err != nil {
			return err
		}

		if token == "" {
			return nil
		}
	}
}

// FindEach calls fn for every row of db in order, loading batchSize rows at
// a time. index counts rows from zero across batches.
func FindEach[T any](db *gorm.DB, batchSize int, cfg Config, fn func(item T, index int) error, opts ...Option) error {
	var index int

	return Batch(db, batchSize, cfg, func(w *Window) error {
		var items []T
		if err := w.Find(&items); err != nil {
			return err
		}

		for _, item := range items {
			if err := fn(item, index); err != nil {
				return err
			}
			index++
		}

		return nil
	}, opts...)
}
