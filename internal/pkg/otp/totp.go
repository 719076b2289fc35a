package otp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/fursurecare/otpservice/internal/pkg/sealer"
)

const (
	defaultPeriod   = 30
	seedSecretBytes = 20
)

// ErrUnknownAlgorithm means the configured TOTP hash is not SHA1, SHA256 or SHA512.
var ErrUnknownAlgorithm = errors.New("otp: unknown totp algorithm")

// TOTPConfig configures authenticator codes. Codes are always CodeLength
// digits so both factors share one input rule.
type TOTPConfig struct {
	Issuer    string
	Period    uint
	Skew      uint
	Algorithm string
}

// Enrollment is handed to the user once and stored sealed.
type Enrollment struct {
	Secret string
	URI    string
	Sealed []byte
}

// Authenticator enrolls and checks authenticator-app factors. Seeds only
// exist in plaintext inside Enroll and Valid.
type Authenticator interface {
	Enroll(account string, userID int64) (*Enrollment, error)
	// Valid reports whether code matches the sealed seed at the given time.
	// An error means the seed could not be opened.
	Valid(code string, sealed []byte, userID int64, at time.Time) (bool, error)
}

// TOTP is an Authenticator on RFC 6238 codes with seeds sealed per user.
type TOTP struct {
	sealer sealer.Sealer
	issuer string
	opts   totp.ValidateOpts
}

// NewTOTP builds the authenticator. Zero period and skew fall back to 30 s
// and one step; a blank algorithm means SHA1, which every authenticator app reads.
func NewTOTP(cfg TOTPConfig, s sealer.Sealer) (*TOTP, error) {
	alg, err := ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	period := cfg.Period
	if period == 0 {
		period = defaultPeriod
	}

	return &TOTP{
		sealer: s,
		issuer: cfg.Issuer,
		opts: totp.ValidateOpts{
			Period:    period,
			Skew:      max(cfg.Skew, 1),
			Digits:    libOTP.DigitsSix,
			Algorithm: alg,
		},
	}, nil
}

// ParseAlgorithm maps a config value to a pquerna algorithm.
func ParseAlgorithm(name string) (libOTP.Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "SHA1":
		return libOTP.AlgorithmSHA1, nil
	case "SHA256":
		return libOTP.AlgorithmSHA256, nil
	case "SHA512":
		return libOTP.AlgorithmSHA512, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// SeedScope is the sealing scope of a user's authenticator seed.
func SeedScope(userID int64) sealer.Scope {
	return sealer.Scope{Subject: strconv.FormatInt(userID, 10), Purpose: sealer.PurposeTOTPSeed}
}

func (o *TOTP) Enroll(account string, userID int64) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: account,
		Period:      o.opts.Period,
		SecretSize:  seedSecretBytes,
		Digits:      o.opts.Digits,
		Algorithm:   o.opts.Algorithm,
	})
	if err != nil {
		return nil, err
	}

	sealed, err := o.sealer.Seal([]byte(key.Secret()), SeedScope(userID))
	if err != nil {
		return nil, err
	}

	return &Enrollment{Secret: key.Secret(), URI: key.URL(), Sealed: sealed}, nil
}

func (o *TOTP) Valid(code string, sealed []byte, userID int64, at time.Time) (bool, error) {
	if !IsWellFormedCode(code) {
		return false, nil
	}

	seed, err := o.sealer.Open(sealed, SeedScope(userID))
	if err != nil {
		return false, err
	}

	ok, err := totp.ValidateCustom(code, string(seed), at, o.opts)
	return ok && err == nil, nil
}
