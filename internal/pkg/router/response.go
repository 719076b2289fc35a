package router

// Plain is written as-is without the {message,data} envelope. Endpoints that
// keep a fixed public wire shape return it, with Err set on failures so the
// error still reaches tracing and logs.
type Plain struct {
	Status int
	Body   any
	Err    error
}

// StatusCode implements the status override used by the encoder.
func (p Plain) StatusCode() int {
	return p.Status
}
