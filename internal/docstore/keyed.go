package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedCollection is returned when a collection body is not a JSON
// object.
var ErrMalformedCollection = errors.New("malformed collection")

// DecodeKeyed flattens a JSON object of key -> record into a slice, keeping
// the order the keys appear in the body. tag is called on every decoded
// record with its key. An empty or null body yields an empty, non-nil slice.
func DecodeKeyed[T any](data []byte, tag func(item *T, key string)) ([]T, error) {
	out := []T{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrMalformedCollection, tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read collection key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key %v", ErrMalformedCollection, keyTok)
		}

		var item T
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", key, err)
		}
		if tag != nil {
			tag(&item, key)
		}
		out = append(out, item)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read collection end: %w", err)
	}
	return out, nil
}
