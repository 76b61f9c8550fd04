package seekpager

import (
	"fmt"

	"gorm.io/gorm"
)

// Request is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging Request `json:",inline"`
//	}
type Request struct {
	// PerPage - maximum number of records to return in the response.
	PerPage int `json:"per_page" form:"per_page"`
	// Cursor - token obtained from a previous response.
	// If empty, the first page with PerPage records is returned.
	Cursor string `json:"cursor" form:"cursor"`
	// Sort - optional "alias asc|desc" items resolved via a ColumnMapping.
	// Changing it invalidates previously issued cursors.
	Sort []string `json:"sort" form:"sort"`
}

// Open applies Sort to db and builds the requested window.
func (r Request) Open(db *gorm.DB, cfg Config, mapping ColumnMapping, opts ...Option) (*Window, error) {
	sorted, err := ApplySort(db, r.Sort, mapping)
	if err != nil {
		return nil, fmt.Errorf("cannot apply sort: %w", err)
	}

	return New(sorted, r.Cursor, r.PerPage, cfg, opts...)
}
