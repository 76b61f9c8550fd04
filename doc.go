// Package seekpager provides keyset (seek) pagination for GORM queries.
//
// # Overview
//
// A Window wraps an ordered, filtered gorm query and selects one page of it
// with predicates relative to the first and last row of the page instead of
// OFFSET. The ordering is completed with a unique tie-breaker column, the
// primary key by default, so every row has exactly one position.
//
// Windows hand out opaque cursor tokens for the current, next and previous
// page. A token is bound to the entity, a fingerprint of the query and the
// page size it was issued for; presenting it to a different query fails
// with an *InvalidCursorError.
//
// # Key concepts
//   - OrderColumn: one column of the ordering with its direction.
//   - Cursor: the tie-breaker values of the first and last row of a page.
//   - Codec: turns cursors into tokens. SecureCodec encrypts and
//     authenticates, JWTCodec signs.
//   - Signer: fingerprints the query text with a secret key.
//
// Basic usage:
//
//	cfg := seekpager.Config{SecretKey: secret}
//	query := db.Model(&Post{}).Where("published = ?", true).Order("created_at DESC")
//
//	w, err := seekpager.New(query, token, 20, cfg)
//	if err != nil {
//	    return err
//	}
//
//	page, err := seekpager.Fetch[Post](w)
//
// See examples/ for complete programs.
package seekpager
