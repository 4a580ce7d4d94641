package http

import (
	"net/http"
	"strings"

	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/httputil"
)

// ContentTypeJSON enforces that requests with a body have Content-Type:
// application/json. Bodyless POSTs such as helpful marks pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Status:  httputil.StatusError,
					Code:    apperrors.CodeUnsupportedMediaType,
					Message: "Content-Type must be application/json",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
