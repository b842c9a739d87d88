package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"khazana/internal/services/account"
)

type ctxKey struct{}

// WithAccount resolves the {user} URL parameter to an account and stores it
// in the request context
func WithAccount(reg *account.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := reg.For(chi.URLParam(r, "user"))
			if err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, a)))
		})
	}
}

// AccountFrom returns the account stored by WithAccount
func AccountFrom(r *http.Request) *account.Account {
	a, _ := r.Context().Value(ctxKey{}).(*account.Account)
	return a
}
