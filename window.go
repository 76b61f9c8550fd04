package seekpager

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var _schemaCache sync.Map

// Option customizes a Window.
type Option func(*options)

type options struct {
	logger     logrus.FieldLogger
	entity     string
	tieBreaker string
	codec      Codec
}

// WithLogger sets the logger, logrus.StandardLogger() by default.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEntityName overrides the entity name cursors are bound to. It defaults
// to the model's Go type name, or the table name without a model.
func WithEntityName(name string) Option {
	return func(o *options) {
		o.entity = name
	}
}

// WithTieBreaker overrides the unique column ending every ordering. It
// defaults to the model's primary key, or "id" without a model.
func WithTieBreaker(column string) Option {
	return func(o *options) {
		o.tieBreaker = column
	}
}

// WithCodec overrides the codec built from Config.
func WithCodec(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// RecordRef positions a Window at the page holding the row whose tie-breaker
// equals ID.
type RecordRef struct {
	ID any
}

func Record(id any) RecordRef {
	return RecordRef{ID: id}
}

// Window is one page of an ordered, filtered gorm query.
//
// The query's ORDER BY is read once and completed with the tie-breaker, and
// its LIMIT/OFFSET are discarded. Pages are then selected with seek
// predicates relative to the anchor rows of the current cursor, so a page
// stays stable when rows are inserted or deleted elsewhere.
//
// A Window is immutable once built; every query method issues fresh queries.
type Window struct {
	db   *gorm.DB
	cfg  Config
	opts []Option

	base    *gorm.DB
	counter *gorm.DB
	anchors *gorm.DB
	quoter  Quoter
	codec   Codec
	log     logrus.FieldLogger

	entity    string
	table     string
	idSQL     string
	columns   []OrderColumn
	tieIndex  int
	pageSize  int
	signature string

	cursor      *Cursor
	startValues []any
	endValues   []any
}

// New builds the window of db at position.
//
// position is one of:
//   - nil or "": the first page;
//   - a token string issued by another Window of the same query;
//   - a Cursor or *Cursor;
//   - a RecordRef, or a gorm model value with a non-zero primary key: the
//     page holding that row, found by counting the rows before it.
//
// pageSize is normalized with cfg. Cursors issued for another entity, query
// or page size are rejected with an *InvalidCursorError.
func New(db *gorm.DB, position any, pageSize int, cfg Config, opts ...Option) (*Window, error) {
	if db == nil {
		return nil, errors.New("nil database handle")
	}

	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	codec := o.codec
	if codec == nil {
		var err error
		if codec, err = cfg.NewCodec(); err != nil {
			return nil, err
		}
	}

	w := &Window{
		db:       db,
		cfg:      cfg,
		opts:     opts,
		quoter:   db.Dialector,
		codec:    codec,
		pageSize: cfg.NormalizePageSize(pageSize),
	}

	tieBreaker, err := w.initScope(db, o)
	if err != nil {
		return nil, err
	}

	w.log = o.logger.WithFields(logrus.Fields{
		"entity":    w.entity,
		"page_size": w.pageSize,
	})

	w.initOrderColumns(w.orderByNodes(db), tieBreaker)

	w.signature, err = cfg.NewSigner().Sign(w.ordered(w.base, false))
	if err != nil {
		return nil, err
	}

	if err := w.initCursor(position); err != nil {
		return nil, err
	}

	return w, nil
}

// initScope derives the reusable base, count and anchor queries from db and
// resolves the table, entity and tie-breaker name.
func (w *Window) initScope(db *gorm.DB, o options) (string, error) {
	var parseErr error
	w.base = reshape(db, func(stmt *gorm.Statement) {
		delete(stmt.Clauses, "LIMIT")
		delete(stmt.Clauses, "ORDER BY")

		if stmt.Model != nil {
			parseErr = stmt.Parse(stmt.Model)
		}
	})
	if parseErr != nil {
		return "", fmt.Errorf("cannot parse model: %w", parseErr)
	}

	stmt := w.base.Statement
	if stmt.Table == "" {
		return "", errors.New("cannot resolve table: use Model or Table")
	}

	w.table = stmt.Table
	w.entity = lo.CoalesceOrEmpty(o.entity, FormatEntityName(stmt.Model), stmt.Table)

	tieBreaker := o.tieBreaker
	if tieBreaker == "" {
		tieBreaker = "id"
		if stmt.Schema != nil && stmt.Schema.PrioritizedPrimaryField != nil {
			tieBreaker = stmt.Schema.PrioritizedPrimaryField.DBName
		}
	}

	w.idSQL = quoteIdentifier(w.quoter, w.table) + "." + quoteIdentifier(w.quoter, tieBreaker)

	w.counter = reshape(w.base, func(stmt *gorm.Statement) {
		stmt.Selects = nil
		stmt.Omits = nil
	})

	// Anchor rows are looked up without filters so a row that left the
	// filter still anchors its neighbours.
	w.anchors = reshape(w.base, func(stmt *gorm.Statement) {
		delete(stmt.Clauses, "WHERE")
		delete(stmt.Clauses, "GROUP BY")
		stmt.Selects = nil
		stmt.Omits = nil
		stmt.Distinct = false
	})

	return tieBreaker, nil
}

func (w *Window) orderByNodes(db *gorm.DB) []clause.OrderByColumn {
	c, ok := db.Statement.Clauses["ORDER BY"]
	if !ok {
		return nil
	}

	orderBy, ok := c.Expression.(clause.OrderBy)
	if !ok {
		w.log.Warnf("unsupported ORDER BY clause %T is ignored", c.Expression)
		return nil
	}

	if orderBy.Expression != nil {
		w.log.Warn("ORDER BY expression is ignored, use Order with column strings")
	}

	return orderBy.Columns
}

// initOrderColumns flattens the ORDER BY nodes and marks or appends the
// tie-breaker, which is always the only tie-breaker.
func (w *Window) initOrderColumns(nodes []clause.OrderByColumn, tieBreaker string) {
	var columns []OrderColumn
	for _, node := range nodes {
		if node.Column.Raw {
			for _, item := range splitOrderList(node.Column.Name) {
				raw := clause.OrderByColumn{Column: clause.Column{Name: item, Raw: true}, Desc: node.Desc}
				columns = append(columns, ParseOrderNode(raw, len(columns), w.table))
			}
			continue
		}

		if node.Column.Name == clause.PrimaryKey {
			node.Column.Name = tieBreaker
		}
		columns = append(columns, ParseOrderNode(node, len(columns), w.table))
	}

	_, tieIndex, found := lo.FindIndexOf(columns, func(c OrderColumn) bool {
		return c.Name() == tieBreaker && (!c.HasTable() || c.Table() == w.table)
	})
	if found {
		columns[tieIndex] = columns[tieIndex].withTieBreaker(true)
	} else {
		tieIndex = len(columns)
		columns = append(columns, NewOrderColumn(w.table, tieBreaker, tieIndex, DirectionASC).withTieBreaker(true))
	}

	w.columns, w.tieIndex = columns, tieIndex
}

func (w *Window) initCursor(position any) error {
	switch p := position.(type) {
	case nil:
		return w.positionFirst()
	case string:
		c, err := ParseCursor(w.codec, p)
		if err != nil {
			w.log.WithError(err).WithField("token_length", len(p)).Warn("cursor token rejected")
			return err
		}
		return w.positionAt(c)
	case *Cursor:
		return w.positionAt(p)
	case Cursor:
		return w.positionAt(&p)
	case RecordRef:
		return w.positionAtRecord(p.ID)
	}

	id, ok, err := w.recordID(position)
	if err != nil {
		return newInvalidCursorError(ReasonType, position, err)
	}
	if !ok {
		return newInvalidCursorError(ReasonType, position, fmt.Errorf("unsupported position %T", position))
	}

	return w.positionAtRecord(id)
}

func (w *Window) positionFirst() error {
	rows, err := scanRows(w.ordered(w.base, false).Select(w.columnsSQL()).Limit(w.pageSize), len(w.columns))
	if err != nil {
		return fmt.Errorf("cannot load first page: %w", err)
	}

	w.setPage(rows)
	w.log.WithField("cursor", w.cursor).Debug("positioned at first page")

	return nil
}

func (w *Window) positionAt(c *Cursor) error {
	if c.IsEmpty() {
		return w.positionFirst()
	}

	if err := c.Validate(w.entity, w.signature, w.pageSize); err != nil {
		w.log.WithError(err).Warn("cursor rejected")
		return err
	}

	start, err := w.anchorValues(c, c.StartID())
	if err != nil {
		return err
	}

	end := start
	if !reflect.DeepEqual(c.StartID(), c.EndID()) {
		if end, err = w.anchorValues(c, c.EndID()); err != nil {
			return err
		}
	}

	w.cursor, w.startValues, w.endValues = c, start, end
	w.log.WithField("cursor", c).Debug("positioned at cursor")

	return nil
}

// positionAtRecord finds the page holding the row id. A single-record window
// is anchored at the row itself, even when the row is filtered out. Larger
// pages count the rows before the row, so they cost O(n) in the rows
// preceding it.
func (w *Window) positionAtRecord(id any) error {
	values, err := w.anchorValues(id, id)
	if err != nil {
		return err
	}

	if w.SingleRecord() {
		tie := values[w.tieIndex]
		w.cursor, w.startValues, w.endValues = w.newCursor(tie, tie), values, values
		w.log.WithFields(logrus.Fields{
			"record": id,
			"cursor": w.cursor,
		}).Debug("positioned at record")

		return nil
	}

	before, err := BuildSeekPredicate(w.quoter, w.columns, values, EdgePrevious)
	if err != nil {
		return err
	}

	var count int64
	if err := w.counter.Clauses(before).Count(&count).Error; err != nil {
		return fmt.Errorf("cannot count rows before %v: %w", id, err)
	}

	page := int(count) / w.pageSize
	rows, err := scanRows(w.ordered(w.base, false).Select(w.columnsSQL()).
		Offset(page*w.pageSize).Limit(w.pageSize), len(w.columns))
	if err != nil {
		return fmt.Errorf("cannot load page of %v: %w", id, err)
	}

	if len(rows) == 0 {
		return newInvalidCursorError(ReasonAnchor, id, fmt.Errorf("row %v is outside of the query", id))
	}

	w.setPage(rows)
	w.log.WithFields(logrus.Fields{
		"record": id,
		"page":   page,
		"cursor": w.cursor,
	}).Debug("positioned at record")

	return nil
}

func (w *Window) setPage(rows [][]any) {
	if len(rows) == 0 {
		w.cursor, w.startValues, w.endValues = nil, nil, nil
		return
	}

	w.startValues, w.endValues = rows[0], rows[len(rows)-1]
	w.cursor = w.newCursor(w.startValues[w.tieIndex], w.endValues[w.tieIndex])
}

// anchorValues loads the ordering values of the row whose tie-breaker is id.
func (w *Window) anchorValues(cursor, id any) ([]any, error) {
	rows, err := scanRows(w.anchors.Select(w.columnsSQL()).Where(w.idSQL+" = ?", id).Limit(1), len(w.columns))
	if err != nil {
		return nil, fmt.Errorf("cannot load anchor row %v: %w", id, err)
	}

	if len(rows) == 0 {
		err := newInvalidCursorError(ReasonAnchor, cursor, fmt.Errorf("anchor row %v not found", id))
		w.log.WithError(err).Warn("cursor rejected")
		return nil, err
	}

	return rows[0], nil
}

// recordID returns the primary key of a gorm model value.
func (w *Window) recordID(model any) (any, bool, error) {
	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false, nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, false, nil
	}

	sch, err := schema.Parse(model, &_schemaCache, w.db.NamingStrategy)
	if err != nil {
		return nil, false, fmt.Errorf("cannot parse record: %w", err)
	}

	if sch.PrioritizedPrimaryField == nil {
		return nil, false, fmt.Errorf("record %s has no primary key", sch.Name)
	}

	id, zero := sch.PrioritizedPrimaryField.ValueOf(w.base.Statement.Context, rv)
	if zero {
		return nil, false, fmt.Errorf("record %s has a zero primary key", sch.Name)
	}

	return id, true, nil
}

func (w *Window) newCursor(startID, endID any) *Cursor {
	return NewCursor(w.entity, w.signature, w.pageSize, startID, endID)
}

func (w *Window) columnsSQL() []string {
	return lo.Map(w.columns, func(c OrderColumn, _ int) string { return c.QuotedFullName(w.quoter) })
}

// ordered returns a fresh query from tx ordered by the window's columns, or
// by their reverse.
func (w *Window) ordered(tx *gorm.DB, reverse bool) *gorm.DB {
	items := lo.Map(w.columns, func(c OrderColumn, _ int) string {
		return lo.Ternary(reverse, c.Reverse(), c).OrderSQL(w.quoter)
	})

	return tx.Order(strings.Join(items, ", "))
}

// seek adds the seek predicate for values to tx. tx must not be shared.
func (w *Window) seek(tx *gorm.DB, values []any, edge Edge) *gorm.DB {
	expr, err := BuildSeekPredicate(w.quoter, w.columns, values, edge)
	if err != nil {
		_ = tx.AddError(err)
		return tx
	}

	return tx.Clauses(expr)
}

// CurrentPageScope returns the query selecting the rows of the current page.
func (w *Window) CurrentPageScope() *gorm.DB {
	tx := w.ordered(w.base, false)
	if !w.cursor.IsEmpty() {
		tx = w.seek(tx, w.startValues, EdgeStart)
		tx = w.seek(tx, w.endValues, EdgeEnd)
	}

	return tx.Limit(w.pageSize).Session(&gorm.Session{})
}

// NextPageScope returns the query selecting the rows of the next page.
func (w *Window) NextPageScope() *gorm.DB {
	tx := w.ordered(w.base, false)
	if w.cursor.IsEmpty() {
		tx = tx.Where("1 = 0")
	} else {
		tx = w.seek(tx, w.endValues, EdgeNext)
	}

	return tx.Limit(w.pageSize).Session(&gorm.Session{})
}

// PreviousPageScope returns the query selecting the rows of the previous
// page in reverse order, nearest row first.
func (w *Window) PreviousPageScope() *gorm.DB {
	tx := w.ordered(w.base, true)
	if w.cursor.IsEmpty() {
		tx = tx.Where("1 = 0")
	} else {
		tx = w.seek(tx, w.startValues, EdgePrevious)
	}

	return tx.Limit(w.pageSize).Session(&gorm.Session{})
}

func (w *Window) pluckIDs(tx *gorm.DB) ([]any, error) {
	return scanColumn(tx.Select(w.idSQL))
}

func (w *Window) exists(tx *gorm.DB) (bool, error) {
	ids, err := scanColumn(tx.Select(w.idSQL).Limit(1))
	if err != nil {
		return false, err
	}

	return len(ids) > 0, nil
}

// TotalCount counts the rows of the whole query.
func (w *Window) TotalCount() (int64, error) {
	var count int64
	if err := w.counter.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("cannot count rows: %w", err)
	}

	return count, nil
}

// ScopeEmpty reports whether the whole query matches no rows.
func (w *Window) ScopeEmpty() (bool, error) {
	ok, err := w.exists(w.base)
	return !ok, err
}

// Size counts the rows of the current page.
func (w *Window) Size() (int, error) {
	ids, err := w.pluckIDs(w.CurrentPageScope())
	return len(ids), err
}

// Empty reports whether the current page has no rows.
func (w *Window) Empty() (bool, error) {
	size, err := w.Size()
	return size == 0, err
}

func (w *Window) HasNextPage() (bool, error) {
	if w.cursor.IsEmpty() {
		return false, nil
	}

	return w.exists(w.NextPageScope())
}

func (w *Window) HasPreviousPage() (bool, error) {
	if w.cursor.IsEmpty() {
		return false, nil
	}

	return w.exists(w.PreviousPageScope())
}

func (w *Window) FirstPage() (bool, error) {
	ok, err := w.HasPreviousPage()
	return !ok, err
}

func (w *Window) LastPage() (bool, error) {
	ok, err := w.HasNextPage()
	return !ok, err
}

// CurrentCursor returns the token of the current page, "" when it is empty.
func (w *Window) CurrentCursor() (string, error) {
	return w.cursor.Token(w.codec)
}

// NextCursor returns the token of the next page, "" on the last page.
func (w *Window) NextCursor() (string, error) {
	if w.cursor.IsEmpty() {
		return "", nil
	}

	ids, err := w.pluckIDs(w.NextPageScope())
	if err != nil || len(ids) == 0 {
		return "", err
	}

	return w.newCursor(ids[0], ids[len(ids)-1]).Token(w.codec)
}

// PreviousCursor returns the token of the previous page, "" on the first page.
func (w *Window) PreviousCursor() (string, error) {
	if w.cursor.IsEmpty() {
		return "", nil
	}

	ids, err := w.pluckIDs(w.PreviousPageScope())
	if err != nil || len(ids) == 0 {
		return "", err
	}

	return w.newCursor(ids[len(ids)-1], ids[0]).Token(w.codec)
}

// Find loads the rows of the current page into dest.
func (w *Window) Find(dest any) error {
	return w.CurrentPageScope().Find(dest).Error
}

// NextRecord loads the row after the current one into dest and reports
// whether there was one. The page size must be one.
func (w *Window) NextRecord(dest any) (bool, error) {
	return w.neighbour(w.NextPageScope, dest)
}

// PreviousRecord loads the row before the current one into dest and reports
// whether there was one. The page size must be one.
func (w *Window) PreviousRecord(dest any) (bool, error) {
	return w.neighbour(w.PreviousPageScope, dest)
}

func (w *Window) neighbour(scope func() *gorm.DB, dest any) (bool, error) {
	if !w.SingleRecord() {
		return false, ErrNotSingleRecord
	}

	if w.cursor.IsEmpty() {
		return false, nil
	}

	res := scope().Find(dest)
	return res.RowsAffected > 0, res.Error
}

// PositionAtRecord returns a window of the same query positioned at the page
// holding the row whose tie-breaker equals id.
func (w *Window) PositionAtRecord(id any) (*Window, error) {
	return New(w.db, Record(id), w.pageSize, w.cfg, w.opts...)
}

// OrderColumns returns the effective ordering, tie-breaker included.
func (w *Window) OrderColumns() []OrderColumn {
	return append([]OrderColumn(nil), w.columns...)
}

// Cursor returns the current cursor, nil when the page is empty.
func (w *Window) Cursor() *Cursor {
	return w.cursor
}

func (w *Window) PageSize() int {
	return w.pageSize
}

// SingleRecord reports whether the window pages one row at a time.
func (w *Window) SingleRecord() bool {
	return w.pageSize == 1
}

func (w *Window) Entity() string {
	return w.entity
}

// Signature returns the query fingerprint cursors are bound to.
func (w *Window) Signature() string {
	return w.signature
}
