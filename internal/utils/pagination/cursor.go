package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is the opaque keyset pagination state we encode/decode.
// ID + CreatedUnix (in millis) establish a stable position in a
// (created_at DESC, id DESC) ordering.
type Cursor struct {
	ID          string `json:"id"`
	CreatedUnix int64  `json:"created_unix,omitempty"`
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool { return c.ID == "" || c.CreatedUnix == 0 }

// Time returns the cursor timestamp.
func (c Cursor) Time() time.Time { return time.UnixMilli(c.CreatedUnix).UTC() }

// After builds the cursor that continues after a row with the given key.
func After(id string, createdAt time.Time) Cursor {
	return Cursor{ID: id, CreatedUnix: createdAt.UnixMilli()}
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}
	return c, nil
}

// DecodeLenient is Decode for endpoints that must never fail on a bad token:
// anything unreadable restarts from the first page.
func DecodeLenient(token *string) Cursor {
	c, err := Decode(getString(token))
	if err != nil {
		return Cursor{}
	}
	return c
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
