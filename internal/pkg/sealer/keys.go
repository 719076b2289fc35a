package sealer

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrMissingKey indicates a provider was built without key material.
	ErrMissingKey = errors.New("sealer: missing key material")
	// ErrMasterKeyTooShort indicates the HKDF master secret is under 32 bytes.
	ErrMasterKeyTooShort = errors.New("sealer: master key must be at least 32 bytes")
)

// StaticKeyProvider returns the same key for every scope. Local development only.
type StaticKeyProvider struct {
	KeyBytes []byte
}

// Key returns a copy of the static key.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingKey
	}
	k := make([]byte, len(p.KeyBytes))
	copy(k, p.KeyBytes)
	return k, nil
}

// HKDFKeyProvider derives one AES-256 key per purpose from a master secret.
type HKDFKeyProvider struct {
	master []byte
	salt   []byte
}

// NewHKDFKeyProvider builds a provider from a master secret and an optional salt.
func NewHKDFKeyProvider(master, salt []byte) (*HKDFKeyProvider, error) {
	if len(master) < aesKeyLen {
		return nil, ErrMasterKeyTooShort
	}
	return &HKDFKeyProvider{master: master, salt: salt}, nil
}

// Key derives the key for scope.Purpose. Subjects share the purpose key and are
// separated through the AAD instead.
func (p *HKDFKeyProvider) Key(scope Scope) ([]byte, error) {
	if p == nil || len(p.master) == 0 {
		return nil, ErrMissingKey
	}

	r := hkdf.New(sha256.New, p.master, p.salt, []byte("otpservice/sealer/"+string(scope.Purpose)))
	key := make([]byte, aesKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("sealer: hkdf derive: %w", err)
	}
	return key, nil
}
