package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/backoffice-insights/internal/storage/backoffice"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent, a failed write means the client is gone.
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// fail maps err to an error response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	lg := zctx.From(r.Context())
	if status >= http.StatusInternalServerError {
		lg.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		lg.Debug("Bad request", zap.Error(err))
	}
	writeError(w, status, message)
}

func classify(err error) (int, string) {
	var (
		qe *QueryError
		se *backoffice.StatusError
		re *backoffice.RequestError
		ne net.Error
	)
	switch {
	case errors.As(err, &qe):
		return http.StatusBadRequest, qe.Error()
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		return 499, "request canceled"
	case errors.Is(err, backoffice.ErrUnauthorized):
		return http.StatusBadGateway, "upstream rejected credentials"
	case errors.As(err, &se):
		return http.StatusBadGateway, "upstream returned status " + strconv.Itoa(se.Code)
	case errors.As(err, &re), errors.As(err, &ne):
		return http.StatusBadGateway, "upstream unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
