// Command otpservice serves FurSureCare email verification codes, second
// factor checks and the verification audit trail.
package main

import (
	"os"

	"github.com/fursurecare/otpservice/internal/app"
)

// @title                       FurSureCare OTP Verification API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	os.Exit(app.New().Run())
}
