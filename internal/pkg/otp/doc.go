// Package otp provides the one-time password primitives of the service.
//
// Email codes: NumericCode draws six-digit codes from crypto/rand and
// TokenCodec binds a code to an identity and an issuance time inside a sealed,
// opaque token. TokenCodec.Verify is a pure function of its inputs and the
// supplied clock reading.
//
// Authenticator codes: TOTP wraps github.com/pquerna/otp for secret
// provisioning and code validation.
package otp
