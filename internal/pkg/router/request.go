package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
)

// MaxBodyBytes bounds every JSON request body.
const MaxBodyBytes = 64 << 10

// Request is what inbound handlers receive.
type Request struct {
	*http.Request
}

// GetQuery returns the trimmed query value for key.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt32 parses the query value for key; absent means 0.
func (r *Request) GetQueryInt32(key string) (int32, error) {
	v := r.GetQuery(key)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, goerror.NewInvalidFormat("query " + key + " must be an integer")
	}
	return int32(n), nil
}

// DecodeBody decodes exactly one JSON object into dst, rejecting unknown
// fields and trailing data.
func (r *Request) DecodeBody(dst any) error {
	return r.decode(dst, false)
}

// DecodeOptionalBody is DecodeBody that also accepts an empty body, leaving
// dst untouched.
func (r *Request) DecodeOptionalBody(dst any) error {
	return r.decode(dst, true)
}

func (r *Request) decode(dst any, optional bool) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		if optional {
			return nil
		}
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && optional:
		return nil
	case errors.As(err, &tooLarge):
		return goerror.NewInvalidFormat("request body too large")
	default:
		return goerror.NewInvalidFormat()
	}

	if dec.More() {
		return goerror.NewInvalidFormat()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}
