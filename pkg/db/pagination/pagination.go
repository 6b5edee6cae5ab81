package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidCursor = errors.New("invalid_cursor")

// Pagination is the query half of a cursor paged list request.
type Pagination struct {
	PageToken string `form:"page_token" json:"page_token,omitempty"`
	PageSize  int    `form:"page_size,default=10" json:"page_size,omitempty" validate:"gte=1,lte=250"`
}

// Cursor marks the last row of a page.
type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextPageToken     string `json:"next_page_token"`
	PreviousPageToken string `json:"previous_page_token"`
	HasMore           bool   `json:"has_more"`
}

func EncodeCursor(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// DecodeCursor parses a token produced by EncodeCursor. Any malformed token
// yields ErrInvalidCursor.
func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.ID == "" && c.CreatedAt == "" {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// BuildCursorPageInfo expects data fetched with limit+1 rows. The extra row
// only signals that another page exists; the next token points at the last
// row actually returned.
func BuildCursorPageInfo[T any](data []*T, limit int32, cursorOf func(*T) (string, error)) (*PageInfo, error) {
	if limit <= 0 || len(data) <= int(limit) {
		return &PageInfo{}, nil
	}

	token, err := cursorOf(data[limit-1])
	if err != nil {
		return nil, err
	}
	return &PageInfo{HasMore: true, NextPageToken: token}, nil
}
