package middleware

import (
	"net/http"
	"runtime/debug"
)

// Recover turns a panic in a handler into a logged 500 response
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			LoggerFromContext(r.Context()).
				WithField("stack", string(debug.Stack())).
				Errorf("Recovered from panic: %v", rec)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}
