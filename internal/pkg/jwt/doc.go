// Package jwt issues and checks the HS512 access tokens carried by the
// Authorization header.
//
// A token minted right after password login carries no amr claim. Once a
// second factor succeeds the twofactor module mints an elevated token whose
// amr lists the satisfied methods ("mfa", "otp" or "totp"); elevated tokens
// use their own, usually shorter, lifetime.
package jwt
