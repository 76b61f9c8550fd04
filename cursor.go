package seekpager

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"reflect"
)

// Cursor is an immutable page position: the tie-breaker values of the first
// and last row of a page, plus the entity, query fingerprint and page size it
// was issued for. A nil *Cursor, or one without both anchors, is empty.
type Cursor struct {
	model     string
	signature string
	pageSize  int
	startID   any
	endID     any
}

func NewCursor(model, signature string, pageSize int, startID, endID any) *Cursor {
	return &Cursor{
		model:     model,
		signature: signature,
		pageSize:  pageSize,
		startID:   startID,
		endID:     endID,
	}
}

// ParseCursor decodes a token. An empty token yields an empty (nil) cursor.
// Tokens that fail to decode yield an *InvalidCursorError; a missing secret
// key is returned as ErrNoSecretKey.
func ParseCursor(codec Codec, token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	fields, err := codec.Deserialize(token)
	if err != nil {
		if errors.Is(err, ErrNoSecretKey) {
			return nil, err
		}

		return nil, newInvalidCursorError(ReasonDecode, token, err)
	}

	return NewCursor(fields.Model, fields.Signature, fields.PageSize, fields.StartID, fields.EndID), nil
}

// IsEmpty reports whether the cursor has no page position.
func (c *Cursor) IsEmpty() bool {
	return c == nil || c.startID == nil || c.endID == nil
}

func (c *Cursor) Model() string {
	if c == nil {
		return ""
	}

	return c.model
}

func (c *Cursor) Signature() string {
	if c == nil {
		return ""
	}

	return c.signature
}

func (c *Cursor) PageSize() int {
	if c == nil {
		return 0
	}

	return c.pageSize
}

// StartID returns the tie-breaker value of the first row of the page.
func (c *Cursor) StartID() any {
	if c == nil {
		return nil
	}

	return c.startID
}

// EndID returns the tie-breaker value of the last row of the page.
func (c *Cursor) EndID() any {
	if c == nil {
		return nil
	}

	return c.endID
}

// Fields returns the flat representation handed to a Codec.
func (c *Cursor) Fields() Fields {
	if c == nil {
		return Fields{}
	}

	return Fields{
		Model:     c.model,
		Signature: c.signature,
		PageSize:  c.pageSize,
		StartID:   c.startID,
		EndID:     c.endID,
	}
}

// Token serializes the cursor with codec. Empty cursors serialize to "".
func (c *Cursor) Token(codec Codec) (string, error) {
	if c.IsEmpty() {
		return "", nil
	}

	token, err := codec.Serialize(c.Fields())
	if err != nil {
		return "", fmt.Errorf("cannot serialize cursor: %w", err)
	}

	return token, nil
}

// Validate checks that the cursor was issued for the given entity, query
// fingerprint and page size. Any difference is an *InvalidCursorError.
func (c *Cursor) Validate(entity, signature string, pageSize int) error {
	if c.IsEmpty() {
		return nil
	}

	switch {
	case c.model != entity:
		return newInvalidCursorError(ReasonMismatch, c, fmt.Errorf("cursor entity '%s' does not match '%s'", c.model, entity))
	case !hmac.Equal([]byte(c.signature), []byte(signature)):
		return newInvalidCursorError(ReasonMismatch, c, errors.New("cursor query fingerprint mismatch"))
	case c.pageSize != pageSize:
		return newInvalidCursorError(ReasonMismatch, c, fmt.Errorf("cursor page size %d does not match %d", c.pageSize, pageSize))
	}

	return nil
}

// String implements fmt.Stringer without exposing the signature.
func (c *Cursor) String() string {
	if c.IsEmpty() {
		return "Cursor(empty)"
	}

	return fmt.Sprintf("Cursor(%s, per=%d, %v..%v)", c.model, c.pageSize, c.startID, c.endID)
}

// FormatEntityName returns the entity name used to bind cursors to a model:
// strings are returned as is, any other value formats to its Go type name
// with pointers, slices and arrays dereferenced.
func FormatEntityName(v any) string {
	switch vt := v.(type) {
	case nil:
		return ""
	case string:
		return vt
	case reflect.Type:
		return elemType(vt).Name()
	default:
		return elemType(reflect.TypeOf(v)).Name()
	}
}

func elemType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}

	return t
}

var (
	_ fmt.Stringer = (*Cursor)(nil)
)
