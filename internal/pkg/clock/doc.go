// Package clock provides a tiny time abstraction.
//
// Production code depends on the Clocker interface instead of calling
// time.Now() directly. OTP expiry and cooldown windows are computed from the
// injected clock, so tests pin time with Frozen and step it across window
// boundaries with Advance.
package clock
