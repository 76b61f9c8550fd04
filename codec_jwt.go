package seekpager

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTCodec encodes cursor fields as HS256-signed JWT claims. Tokens are
// signed, not encrypted: clients can read the anchors but cannot forge them.
type JWTCodec struct {
	secret string
}

func NewJWTCodec(secret string) *JWTCodec {
	return &JWTCodec{secret: secret}
}

func (c *JWTCodec) Serialize(fields Fields) (string, error) {
	if c.secret == "" {
		return "", ErrNoSecretKey
	}

	claims := jwt.MapClaims{
		"model":    fields.Model,
		"sql":      fields.Signature,
		"per_page": fields.PageSize,
		"start":    fields.StartID,
		"end":      fields.EndID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secret))
	if err != nil {
		return "", fmt.Errorf("cannot sign cursor: %w", err)
	}

	return token, nil
}

func (c *JWTCodec) Deserialize(token string) (Fields, error) {
	if c.secret == "" {
		return Fields{}, ErrNoSecretKey
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(c.secret), nil
	}); err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	model, _ := claims["model"].(string)
	signature, _ := claims["sql"].(string)

	var pageSize int
	if n, ok := claims["per_page"].(json.Number); ok {
		i, err := n.Int64()
		if err != nil {
			return Fields{}, fmt.Errorf("%w: per_page: %v", ErrMalformedToken, err)
		}
		pageSize = int(i)
	}

	return Fields{
		Model:     model,
		Signature: signature,
		PageSize:  pageSize,
		StartID:   normalizeJSONValue(claims["start"]),
		EndID:     normalizeJSONValue(claims["end"]),
	}, nil
}

var (
	_ Codec = (*JWTCodec)(nil)
)
