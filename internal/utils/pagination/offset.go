package pagination

import (
	"strconv"
	"strings"
)

// EncodeOffset turns a feed offset into an opaque token. A nil or negative
// offset means there is no next page and yields a nil token.
func EncodeOffset(offset *int) *string {
	if offset == nil || *offset < 0 {
		return nil
	}
	token := strconv.Itoa(*offset)
	return &token
}

// DecodeOffset reads a token produced by EncodeOffset. It never fails:
// a missing, malformed or negative token restarts pagination at 0.
func DecodeOffset(token *string) int {
	if token == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(*token))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NextOffset returns the offset of the following page when the page just read
// was full, nil otherwise.
func NextOffset(offset, pageSize, fetched int) *int {
	if pageSize <= 0 || fetched < pageSize {
		return nil
	}
	next := offset + pageSize
	return &next
}
