package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tinoosan/accountrix/internal/accounts"
)

type ctxKey string

const ctxKeyAccountInput ctxKey = "validatedAccountInput"

const maxBodyBytes = 1 << 20

// decodeAccountRequest reads a JSON account body, rejecting unknown fields.
// It writes the error response itself and returns false on failure.
func decodeAccountRequest(w http.ResponseWriter, r *http.Request) (accountRequest, bool) {
	var req accountRequest
	if !requireJSON(w, r) {
		return req, false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return req, false
	}
	return req, true
}

// validateAccountBody validates a full {username, balance} body for POST and PUT
// and stores the accountInput in the request context for the handler to use.
func (s *Server) validateAccountBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAccountRequest(w, r)
		if !ok {
			return
		}
		var in accountInput
		if req.Username != nil {
			in.Username = *req.Username
		}
		if err := accounts.ValidateUsername(in.Username); err != nil {
			unprocessable(w, err.Error())
			return
		}
		bal, err := accounts.ParseBalanceJSON(req.Balance)
		if err != nil {
			unprocessable(w, err.Error())
			return
		}
		in.Balance = bal
		ctx := context.WithValue(r.Context(), ctxKeyAccountInput, in)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountInputFrom(r *http.Request) (accountInput, bool) {
	in, ok := r.Context().Value(ctxKeyAccountInput).(accountInput)
	return in, ok
}
