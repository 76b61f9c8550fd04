package seekpager

// Page is a generic paginated result container.
type Page[T any] struct {
	// Items result elements.
	Items []T
	// PageSize effective page size used for the query.
	PageSize int
	// Cursor token for the current page.
	Cursor string
	// NextCursor token for the next page, empty on the last page.
	NextCursor string
	// PreviousCursor token for the previous page, empty on the first page.
	PreviousCursor string
}

// IsFirstPage reports whether no page precedes this one.
func (p *Page[T]) IsFirstPage() bool {
	return p == nil || p.PreviousCursor == ""
}

// IsLastPage reports whether no page follows this one.
func (p *Page[T]) IsLastPage() bool {
	return p == nil || p.NextCursor == ""
}

// Fetch loads the current page of w together with its tokens.
func Fetch[T any](w *Window) (*Page[T], error) {
	page := &Page[T]{PageSize: w.PageSize()}

	if err := w.Find(&page.Items); err != nil {
		return nil, err
	}

	var err error
	if page.Cursor, err = w.CurrentCursor(); err != nil {
		return nil, err
	}

	if page.NextCursor, err = w.NextCursor(); err != nil {
		return nil, err
	}

	if page.PreviousCursor, err = w.PreviousCursor(); err != nil {
		return nil, err
	}

	return page, nil
}
