package seekpager

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// CodecKind names a cursor token codec.
type CodecKind string

const (
	CodecSecure CodecKind = "secure"
	CodecJWT    CodecKind = "jwt"
)

// Config carries the secret and defaults shared by every Window.
type Config struct {
	// SecretKey keys both the query fingerprint and the cursor codec.
	SecretKey string
	// Codec selects the token codec, CodecSecure when empty.
	Codec CodecKind
	// DefaultPageSize replaces non-positive page sizes, DefaultLimit when zero.
	DefaultPageSize int
	// MaxPageSize caps page sizes, MaxLimit when zero.
	MaxPageSize int
}

// _secretKeyPaths are looked up in order by FindSecretKey.
var _secretKeyPaths = []string{
	"pagination.secret_key",
	"secret_key_base",
	"app.secret_key_base",
	"credentials.secret_key_base",
}

const _secretKeyEnv = "SECRET_KEY_BASE"

// LoadConfig reads the "pagination" section of v. A missing secret is not an
// error here; it fails at first use.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		SecretKey:       FindSecretKey(v),
		Codec:           CodecKind(v.GetString("pagination.codec")),
		DefaultPageSize: v.GetInt("pagination.default_page_size"),
		MaxPageSize:     v.GetInt("pagination.max_page_size"),
	}

	if _, err := cfg.NewCodec(); err != nil {
		return Config{}, err
	}

	if cfg.DefaultPageSize < 0 || cfg.MaxPageSize < 0 {
		return Config{}, fmt.Errorf("page sizes must not be negative")
	}

	return cfg, nil
}

// FindSecretKey returns the first non-empty secret found in v, falling back
// to the SECRET_KEY_BASE environment variable.
func FindSecretKey(v *viper.Viper) string {
	if v != nil {
		for _, path := range _secretKeyPaths {
			if key := v.GetString(path); key != "" {
				return key
			}
		}
	}

	return os.Getenv(_secretKeyEnv)
}

// NewCodec builds the configured codec.
func (c Config) NewCodec() (Codec, error) {
	switch c.Codec {
	case "", CodecSecure:
		return NewSecureCodec(c.SecretKey), nil
	case CodecJWT:
		return NewJWTCodec(c.SecretKey), nil
	default:
		return nil, fmt.Errorf("unknown cursor codec '%s'", c.Codec)
	}
}

// NewSigner builds the query fingerprint signer.
func (c Config) NewSigner() Signer {
	return NewSigner(c.SecretKey)
}

func (c Config) defaultPageSize() int {
	if c.DefaultPageSize > 0 {
		return c.DefaultPageSize
	}

	return DefaultLimit
}

func (c Config) maxPageSize() int {
	if c.MaxPageSize > 0 {
		return c.MaxPageSize
	}

	return MaxLimit
}

// NormalizePageSize maps non-positive sizes to the default page size and
// caps the rest at the maximum page size.
func (c Config) NormalizePageSize(pageSize int) int {
	return NormalizeLimitMaxDefault(pageSize, c.maxPageSize(), c.defaultPageSize())
}
