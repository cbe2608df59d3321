package blindex

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/memkeep/memkeep/internal/keywords"
	"github.com/memkeep/memkeep/internal/memerr"
)

// Codec seals and opens memory content under one primary key and
// derives blind-index tokens under the secondary key.
type Codec struct {
	aead    cipher.AEAD
	hmacKey []byte
}

// NewCodec builds a codec from a KeySize-byte primary key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, errors.Wrapf(memerr.ErrValidation, "key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "init cipher: %v", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "init gcm: %v", err)
	}
	return &Codec{aead: aead, hmacKey: deriveHMACKey(key)}, nil
}

// Sealed is the output of Encrypt: the ciphertext with its trailing
// authentication tag, the nonce, and one blind-index token per keyword
// extracted from the plaintext.
type Sealed struct {
	Blob   []byte
	IV     []byte
	Tokens []string
}

// Encrypt seals plaintext under a fresh random nonce and derives the
// blind-index tokens of its keywords. The nonce must never repeat for
// one key; a random nonce per call guarantees that.
func (c *Codec) Encrypt(plaintext string) (*Sealed, error) {
	iv := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "generate nonce: %v", err)
	}

	blob := c.aead.Seal(nil, iv, []byte(plaintext), nil)

	kws := keywords.Extract(plaintext)
	tokens := make([]string, 0, len(kws))
	for _, kw := range kws {
		tokens = append(tokens, c.token(kw))
	}

	return &Sealed{Blob: blob, IV: iv, Tokens: tokens}, nil
}

// Decrypt opens a sealed blob, verifying the trailing tag. A tampered
// blob or tag yields ErrDecryption, never partial plaintext.
func (c *Codec) Decrypt(blob, iv []byte) (string, error) {
	if len(iv) != c.aead.NonceSize() {
		return "", errors.Wrapf(memerr.ErrDecryption, "bad nonce length %d", len(iv))
	}
	plaintext, err := c.aead.Open(nil, iv, blob, nil)
	if err != nil {
		return "", errors.Wrap(memerr.ErrDecryption, "authentication failed")
	}
	return string(plaintext), nil
}

// QueryToken derives the blind-index token of a query. The whole query
// string is lowercased and hashed as a single token with no other
// normalization, so a sealed record matches only when the entire query
// equals one of its indexed keywords. Multi-word queries will almost
// always miss; this is a documented limitation of the exact-match
// design.
func (c *Codec) QueryToken(query string) string {
	return c.token(strings.ToLower(query))
}

func (c *Codec) token(keyword string) string {
	mac := hmac.New(sha256.New, c.hmacKey)
	mac.Write([]byte(keyword))
	return hex.EncodeToString(mac.Sum(nil))
}
