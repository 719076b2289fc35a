package sealer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) KeyProvider {
	t.Helper()
	kp, err := NewHKDFKeyProvider(bytes.Repeat([]byte{0x42}, 32), []byte("salt"))
	require.NoError(t, err)
	return kp
}

func TestAESGCM_SealOpen(t *testing.T) {
	s := NewAESGCM(testKeys(t))
	scope := Scope{Purpose: PurposeEmailOTPToken}

	t.Run("round trip", func(t *testing.T) {
		ct, err := s.Seal([]byte("user@example.com:482913:0"), scope)
		require.NoError(t, err)

		pt, err := s.Open(ct, scope)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com:482913:0", string(pt))
	})

	t.Run("nonce makes ciphertexts differ", func(t *testing.T) {
		a, err := s.Seal([]byte("same"), scope)
		require.NoError(t, err)
		b, err := s.Seal([]byte("same"), scope)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("empty plaintext", func(t *testing.T) {
		_, err := s.Seal(nil, scope)
		assert.ErrorIs(t, err, ErrPlaintextEmpty)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		ct, err := s.Seal([]byte("secret"), scope)
		require.NoError(t, err)

		_, err = s.Open(ct, Scope{Purpose: PurposeTOTPSeed})
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("wrong subject", func(t *testing.T) {
		ct, err := s.Seal([]byte("seed"), Scope{Subject: "1", Purpose: PurposeTOTPSeed})
		require.NoError(t, err)

		_, err = s.Open(ct, Scope{Subject: "2", Purpose: PurposeTOTPSeed})
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("tampered body", func(t *testing.T) {
		ct, err := s.Seal([]byte("secret"), scope)
		require.NoError(t, err)
		ct[len(ct)-1] ^= 0x01

		_, err = s.Open(ct, scope)
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := s.Open([]byte{0, 1, 2}, scope)
		assert.ErrorIs(t, err, ErrCiphertextTooShort)
	})

	t.Run("unknown version", func(t *testing.T) {
		ct, err := s.Seal([]byte("secret"), scope)
		require.NoError(t, err)
		ct[0], ct[1] = 0xff, 0xff

		_, err = s.Open(ct, scope)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})
}

func TestAESGCM_NotConfigured(t *testing.T) {
	var s *AESGCM
	_, err := s.Seal([]byte("x"), Scope{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type badKeys struct{}

func (badKeys) Key(Scope) ([]byte, error) { return nil, errors.New("kms down") }

func TestAESGCM_KeyErrors(t *testing.T) {
	_, err := NewAESGCM(badKeys{}).Seal([]byte("x"), Scope{})
	assert.ErrorContains(t, err, "kms down")

	_, err = NewAESGCM(StaticKeyProvider{KeyBytes: []byte("short")}).Seal([]byte("x"), Scope{})
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = NewAESGCM(StaticKeyProvider{}).Seal([]byte("x"), Scope{})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestHKDFKeyProvider(t *testing.T) {
	_, err := NewHKDFKeyProvider([]byte("too-short"), nil)
	assert.ErrorIs(t, err, ErrMasterKeyTooShort)

	kp := testKeys(t)

	a, err := kp.Key(Scope{Purpose: PurposeEmailOTPToken})
	require.NoError(t, err)
	b, err := kp.Key(Scope{Purpose: PurposeTOTPSeed})
	require.NoError(t, err)
	again, err := kp.Key(Scope{Subject: "9", Purpose: PurposeEmailOTPToken})
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}
