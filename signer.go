package seekpager

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"gorm.io/gorm"
)

// Signer fingerprints a query: an HMAC-SHA1 over its rendered SQL. Cursors
// carry the fingerprint so they only apply to the query that issued them.
type Signer struct {
	secret string
}

func NewSigner(secret string) Signer {
	return Signer{secret: secret}
}

// Sign fingerprints the query built by db. The projection is replaced with
// "*" and LIMIT/OFFSET are dropped before rendering, so the fingerprint
// covers filters, joins, grouping and ordering only. A nil db signs to "".
func (s Signer) Sign(db *gorm.DB) (string, error) {
	if db == nil {
		return "", nil
	}

	if s.secret == "" {
		return "", ErrNoSecretKey
	}

	sql := reshape(db, func(stmt *gorm.Statement) {
		delete(stmt.Clauses, "LIMIT")
	}).ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Select("*").Find(&[]map[string]interface{}{})
	})

	return s.SignSQL(sql)
}

// SignSQL fingerprints raw SQL text. Runs of whitespace are collapsed, so
// formatting differences do not change the result.
func (s Signer) SignSQL(sql string) (string, error) {
	if s.secret == "" {
		return "", ErrNoSecretKey
	}

	mac := hmac.New(sha1.New, []byte(s.secret))
	mac.Write([]byte(strings.Join(strings.Fields(sql), " ")))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
