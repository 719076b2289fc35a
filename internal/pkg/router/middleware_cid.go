package router

import (
	"net/http"

	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
)

// HeaderCorrelationID carries the correlation id in requests and responses.
const HeaderCorrelationID = instrument.CorrelationHeader

// middlewareCorrelationID tags every request with a correlation id. A client
// supplied id is kept only when it is a UUID; anything else is replaced so
// header text never flows into logs or broker headers.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get(HeaderCorrelationID)
			if !uid.IsUUID(cid) {
				cid = ""
				if gen != nil {
					cid = gen.Generate()
				}
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
