package accounts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/oauth2"
)

// Account is a configured Google account.
type Account struct {
	ID        string
	Label     string
	Position  int
	CreatedAt time.Time
}

// DisplayName returns the label if set, else the ID.
func (a Account) DisplayName() string {
	if a.Label != "" {
		return a.Label
	}
	return a.ID
}

type accountRow struct {
	ID        string `db:"id"`
	Label     string `db:"label"`
	Token     string `db:"token"`
	Position  int    `db:"position"`
	CreatedAt int64  `db:"created_at"`
}

func (r accountRow) Convert() Account {
	return Account{
		ID:        r.ID,
		Label:     r.Label,
		Position:  r.Position,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
}

// ValidateID checks that id can be used as an account identifier.
// Commas are rejected since account IDs are comma-joined into cache keys.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	if strings.Contains(id, ",") {
		return fmt.Errorf("account ID %q cannot contain commas", id)
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return fmt.Errorf("account ID %q cannot contain whitespace", id)
	}
	return nil
}

func encodeToken(token *oauth2.Token) (string, error) {
	if token == nil {
		return "", fmt.Errorf("token cannot be nil")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("failed to encode token: %w", err)
	}
	return string(data), nil
}

func decodeToken(data string) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}
