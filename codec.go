package seekpager

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var _encoder = base64.RawURLEncoding

// ErrMalformedToken is wrapped by codecs for tokens that cannot be decoded or
// authenticated.
var ErrMalformedToken = errors.New("malformed cursor token")

// Fields is the flat cursor representation exchanged with a Codec.
type Fields struct {
	Model     string `json:"model"`
	Signature string `json:"sql"`
	PageSize  int    `json:"per_page"`
	StartID   any    `json:"start"`
	EndID     any    `json:"end"`
}

// Codec turns cursor fields into opaque, URL-safe tokens and back.
type Codec interface {
	Serialize(fields Fields) (string, error)
	Deserialize(token string) (Fields, error)
}

const (
	_macSize    = sha256.Size
	_ivInfo     = "seekpager cursor iv"
	_macInfo    = "seekpager cursor mac"
	_minPayload = aes.BlockSize + aes.BlockSize + _macSize
)

// SecureCodec encrypts cursor fields with AES-256-CBC keyed by SHA-256 of the
// secret. The IV is derived from the plaintext, so equal cursors encode to
// equal tokens, and tokens carry an HMAC-SHA256 tag over IV and ciphertext.
//
// Token layout, base64url without padding: iv || ciphertext || tag.
type SecureCodec struct {
	secret string
}

func NewSecureCodec(secret string) *SecureCodec {
	return &SecureCodec{secret: secret}
}

func (c *SecureCodec) Serialize(fields Fields) (string, error) {
	encKey, ivKey, macKey, err := c.keys()
	if err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("cannot marshal cursor fields: %w", err)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", err
	}

	iv := hmacSum(ivKey, plaintext)[:aes.BlockSize]
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	payload := make([]byte, aes.BlockSize+len(padded), aes.BlockSize+len(padded)+_macSize)
	copy(payload, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(payload[aes.BlockSize:], padded)

	return _encoder.EncodeToString(append(payload, hmacSum(macKey, payload)...)), nil
}

func (c *SecureCodec) Deserialize(token string) (Fields, error) {
	encKey, _, macKey, err := c.keys()
	if err != nil {
		return Fields{}, err
	}

	raw, err := _encoder.DecodeString(token)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if len(raw) < _minPayload || (len(raw)-_macSize)%aes.BlockSize != 0 {
		return Fields{}, fmt.Errorf("%w: unexpected length %d", ErrMalformedToken, len(raw))
	}

	payload, tag := raw[:len(raw)-_macSize], raw[len(raw)-_macSize:]
	if !hmac.Equal(tag, hmacSum(macKey, payload)) {
		return Fields{}, fmt.Errorf("%w: authentication failed", ErrMalformedToken)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return Fields{}, err
	}

	iv, ciphertext := payload[:aes.BlockSize], payload[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return decodeFields(plaintext)
}

// keys derives the cipher key and the two HMAC keys from the secret.
func (c *SecureCodec) keys() (encKey, ivKey, macKey []byte, err error) {
	if c.secret == "" {
		return nil, nil, nil, ErrNoSecretKey
	}

	sum := sha256.Sum256([]byte(c.secret))

	ivKey, err = deriveKey(c.secret, _ivInfo)
	if err != nil {
		return nil, nil, nil, err
	}

	macKey, err = deriveKey(c.secret, _macInfo)
	if err != nil {
		return nil, nil, nil, err
	}

	return sum[:], ivKey, macKey, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("cannot derive key: %w", err)
	}

	return key, nil
}

func hmacSum(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)

	return mac.Sum(nil)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padding size")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}

	return data[:len(data)-n], nil
}

// decodeFields unmarshals JSON cursor fields keeping integer ids as int64.
func decodeFields(data []byte) (Fields, error) {
	var fields Fields

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	fields.StartID = normalizeJSONValue(fields.StartID)
	fields.EndID = normalizeJSONValue(fields.EndID)

	return fields, nil
}

// normalizeJSONValue maps json.Number to int64, or float64 when it is not an
// integer. Other values are returned unchanged.
func normalizeJSONValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}

	if i, err := n.Int64(); err == nil {
		return i
	}

	if f, err := n.Float64(); err == nil {
		return f
	}

	return n.String()
}

var (
	_ Codec = (*SecureCodec)(nil)
)
