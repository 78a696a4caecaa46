package v1

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/accountrix/internal/accounts"
)

// accountRequest is the body of POST, PUT and PATCH on accounts.
// Balance is kept raw so both "42" and 42 are accepted.
type accountRequest struct {
	Username *string         `json:"username"`
	Balance  json.RawMessage `json:"balance"`
}

// accountInput is a validated create/replace body.
type accountInput struct {
	Username string
	Balance  decimal.Decimal
}

type accountResponse struct {
	ID       uuid.UUID       `json:"id"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toAccountResponse(a accounts.Account) accountResponse {
	return accountResponse{ID: a.ID, Username: a.Username, Balance: a.Balance}
}
