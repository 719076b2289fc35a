// Package sealer provides authenticated encryption for small secrets that leave
// the server (verification tokens) or rest in the database (TOTP seeds).
package sealer

// Purpose separates key material and AAD per use so a ciphertext minted for one
// purpose never opens under another.
type Purpose string

const (
	// PurposeEmailOTPToken scopes verification tokens handed to clients.
	PurposeEmailOTPToken Purpose = "email_otp_token"
	// PurposeTOTPSeed scopes TOTP secrets stored per user.
	PurposeTOTPSeed Purpose = "totp_seed"
)

// Scope binds a ciphertext to a purpose and an optional subject.
// It is used as AAD (Additional Authenticated Data) in AES-GCM.
type Scope struct {
	// Subject narrows the scope, e.g. a user id. Empty means purpose-wide.
	Subject string
	// Purpose is the encryption purpose.
	Purpose Purpose
}

// Sealer encrypts and authenticates payloads bound to a scope.
type Sealer interface {
	// Seal returns ciphertext for plaintext bound to scope.
	Seal(plaintext []byte, scope Scope) ([]byte, error)
	// Open returns plaintext for ciphertext sealed under the same scope.
	Open(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider provides raw AES-256 keys per scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
