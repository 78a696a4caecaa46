// Package accounts holds the account entity, its field validation and the
// document shape the record store persists.
package accounts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/accountrix/internal/errs"
)

// Account is a single user account. Balance carries no currency.
type Account struct {
	ID       uuid.UUID       `json:"id"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// New builds a validated account under a freshly generated identifier.
func New(username string, balance decimal.Decimal) (Account, error) {
	a := Account{ID: uuid.New(), Username: username, Balance: balance}
	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Validate checks the fields a persisted account must carry.
// A nil ID is accepted here; stores assign one on create.
func (a Account) Validate() error {
	if err := ValidateUsername(a.Username); err != nil {
		return err
	}
	return ValidateBalance(a.Balance)
}

// Equal reports whether both accounts hold the same id, username and numeric balance.
func (a Account) Equal(b Account) bool {
	return a.ID == b.ID && a.Username == b.Username && a.Balance.Equal(b.Balance)
}

// ValidateUsername rejects empty and whitespace-only usernames.
// Usernames are otherwise stored verbatim and compared case-sensitively.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required: %w", errs.ErrInvalid)
	}
	return nil
}

// Balances whose exponent or coefficient exceed these bounds are rejected:
// rendering them would expand the value into an arbitrarily large integer.
const (
	MaxBalanceExponent = 1000
	MaxBalanceDigits   = 512
)

// ValidateBalance rejects decimals outside the exponent and digit bounds.
func ValidateBalance(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	if exp := d.Exponent(); exp > MaxBalanceExponent || exp < -MaxBalanceExponent {
		return fmt.Errorf("balance exponent %d out of range: %w", exp, errs.ErrInvalid)
	}
	if n := d.NumDigits(); n > MaxBalanceDigits {
		return fmt.Errorf("balance has %d digits, limit is %d: %w", n, MaxBalanceDigits, errs.ErrInvalid)
	}
	return nil
}

// ParseBalance parses a decimal from its textual form.
func ParseBalance(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("balance is required: %w", errs.ErrInvalid)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("balance %q is not a decimal: %w", s, errs.ErrInvalid)
	}
	if err := ValidateBalance(d); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

// ParseBalanceJSON accepts a balance encoded either as a JSON string or a JSON number.
func ParseBalanceJSON(raw []byte) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Decimal{}, fmt.Errorf("balance is required: %w", errs.ErrInvalid)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, fmt.Errorf("balance is not a decimal: %w", errs.ErrInvalid)
		}
		return ParseBalance(s)
	}
	return ParseBalance(string(raw))
}

// Patch carries the optional fields of a partial update.
type Patch struct {
	Username *string
	Balance  *decimal.Decimal
}

// Apply returns a copy of a with the set fields of p written over it.
func (p Patch) Apply(a Account) Account {
	if p.Username != nil {
		a.Username = *p.Username
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	return a
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p.Username == nil && p.Balance == nil }
