package accounts

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/accountrix/internal/errs"
)

// Document is the full identifier -> account mapping held in one backing file.
type Document map[uuid.UUID]Account

// record mirrors Account with pointer fields so missing keys can be told apart from zero values.
type record struct {
	ID       *uuid.UUID       `json:"id"`
	Username *string          `json:"username"`
	Balance  *decimal.Decimal `json:"balance"`
}

// DecodeDocument parses a serialized document and checks every record is complete
// and filed under its own id.
func DecodeDocument(b []byte) (Document, error) {
	var raw map[string]record
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %v: %w", err, errs.ErrCorruptDocument)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode document: not a JSON object: %w", errs.ErrCorruptDocument)
	}
	doc := make(Document, len(raw))
	for key, rec := range raw {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("decode document: key %q is not an identifier: %w", key, errs.ErrCorruptDocument)
		}
		if rec.ID == nil || rec.Username == nil || rec.Balance == nil {
			return nil, fmt.Errorf("decode document: record %s is incomplete: %w", key, errs.ErrCorruptDocument)
		}
		if *rec.ID != id {
			return nil, fmt.Errorf("decode document: record %s carries id %s: %w", key, *rec.ID, errs.ErrCorruptDocument)
		}
		a := Account{ID: id, Username: *rec.Username, Balance: *rec.Balance}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("decode document: record %s: %v: %w", key, err, errs.ErrCorruptDocument)
		}
		doc[id] = a
	}
	return doc, nil
}

// Encode serializes the document. Keys come out sorted, so the on-disk order
// matches Sorted.
func (d Document) Encode() ([]byte, error) {
	if d == nil {
		d = Document{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// Sorted returns the accounts ordered by identifier string.
func (d Document) Sorted() []Account {
	out := make([]Account, 0, len(d))
	for _, a := range d {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// UsernameTaken reports whether an account other than except already uses username.
// Pass uuid.Nil to check against every account.
func (d Document) UsernameTaken(username string, except uuid.UUID) bool {
	for id, a := range d {
		if id == except {
			continue
		}
		if a.Username == username {
			return true
		}
	}
	return false
}
