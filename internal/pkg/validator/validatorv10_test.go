package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyRequest struct {
	Email   string `validate:"required,email,keysafe,max=254"`
	Code    string `validate:"required,otpcode"`
	OTPHash string `validate:"required"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		err := v.Validate(verifyRequest{Email: "user@example.com", Code: "482913", OTPHash: "x"})
		assert.NoError(t, err)
	})

	t.Run("bad code and missing hash", func(t *testing.T) {
		err := v.Validate(verifyRequest{Email: "user@example.com", Code: "48291a"})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "code must be exactly 6 digits", verr.Values()["code"])
		assert.Equal(t, "otp_hash is a required field", verr.Values()["otp_hash"])
		assert.Contains(t, verr.Values(), "otp_hash")
		assert.NotContains(t, verr.Values(), "email")
	})

	t.Run("email with delimiter", func(t *testing.T) {
		err := v.Validate(verifyRequest{Email: "a:b@example.com", Code: "123456", OTPHash: "x"})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "email")
	})

	t.Run("keysafe", func(t *testing.T) {
		type req struct {
			PetName string `validate:"keysafe"`
		}

		assert.NoError(t, v.Validate(req{PetName: "Rex"}))

		for _, bad := range []string{"rex:1", "Mr Rex", "rex\t"} {
			var verr V10ValidationError
			require.ErrorAs(t, v.Validate(req{PetName: bad}), &verr, bad)
			assert.Equal(t, "pet_name must not contain ':' or whitespace", verr.Values()["pet_name"])
		}
	})

	t.Run("not a struct", func(t *testing.T) {
		assert.Error(t, v.Validate("nope"))
	})
}

func TestV10ValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
	assert.JSONEq(t, `{"code":"bad"}`, V10ValidationError{"code": "bad"}.Error())
}
