// Package blindex seals memory content with AES-256-GCM and derives
// deterministic blind-index tokens so sealed records can be matched by
// exact keyword without revealing plaintext to the index holder.
package blindex

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/memkeep/memkeep/internal/memerr"
)

// KeySize is the primary key length in bytes (AES-256).
const KeySize = 32

// hmacLabel domain-separates the derived blind-index key from the
// primary encryption key.
const hmacLabel = "memkeep/blind-index/v1"

// LoadOrCreateKey reads the hex-encoded primary key at path, generating
// and persisting a fresh one with mode 0600 when absent. Key problems
// are fatal to encrypted operations only; the plaintext path never
// touches this file.
func LoadOrCreateKey(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		key, derr := hex.DecodeString(string(b))
		if derr != nil || len(key) != KeySize {
			return nil, errors.Wrapf(memerr.ErrStorage, "key file %s is corrupt", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, errors.Wrapf(memerr.ErrStorage, "read key file: %v", err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "generate key: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "create key dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "write key file: %v", err)
	}
	return key, nil
}

// deriveHMACKey computes the blind-index key from the primary key. It is
// deterministic and never persisted separately.
func deriveHMACKey(primary []byte) []byte {
	mac := hmac.New(sha256.New, primary)
	mac.Write([]byte(hmacLabel))
	return mac.Sum(nil)
}

// KeyStatus describes the key file without exposing key material.
type KeyStatus struct {
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	Mode      string    `json:"mode,omitempty"`
	ModTime   time.Time `json:"mod_time,omitzero"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
}

// Status inspects the key file at path.
func Status(path string) KeyStatus {
	st := KeyStatus{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		return st
	}
	st.Exists = true
	st.Mode = info.Mode().String()
	st.ModTime = info.ModTime()
	st.SizeBytes = info.Size()
	return st
}
