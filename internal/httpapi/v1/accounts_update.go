package v1

import (
	"bytes"
	"net/http"

	"github.com/tinoosan/accountrix/internal/accounts"
)

// patchAccount handles PATCH /api/v1/accounts/{id}
// Fields left out (or null) keep their current value.
func (s *Server) patchAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAccountID(w, r)
	if !ok {
		return
	}
	req, ok := decodeAccountRequest(w, r)
	if !ok {
		return
	}
	var p accounts.Patch
	if req.Username != nil {
		if err := accounts.ValidateUsername(*req.Username); err != nil {
			unprocessable(w, err.Error())
			return
		}
		p.Username = req.Username
	}
	if raw := bytes.TrimSpace(req.Balance); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		bal, err := accounts.ParseBalanceJSON(raw)
		if err != nil {
			unprocessable(w, err.Error())
			return
		}
		p.Balance = &bal
	}
	acc, err := s.accountSvc.Patch(r.Context(), id, p)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// deleteAccount handles DELETE /api/v1/accounts/{id}
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAccountID(w, r)
	if !ok {
		return
	}
	if err := s.accountSvc.Delete(r.Context(), id); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
