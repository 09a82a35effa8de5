package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Page is the backend's paginated list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

var errNotList = errors.New("transport: response is neither a list nor a paginated envelope")

// DecodeList accepts either a bare JSON array or a paginated envelope and
// returns the items. A null body decodes to an empty list.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	case '{':
		var page Page[T]
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		if page.Results == nil {
			return []T{}, nil
		}
		return page.Results, nil
	}
	return nil, errNotList
}

// DecodePage decodes a paginated envelope, wrapping a bare array into one.
func DecodePage[T any](raw json.RawMessage) (Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var page Page[T]
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return Page[T]{}, fmt.Errorf("decode page: %w", err)
		}
		if page.Results == nil {
			page.Results = []T{}
		}
		return page, nil
	}
	items, err := DecodeList[T](trimmed)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Count: len(items), Results: items}, nil
}
