package permission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentVersion is the serialization version written by [EncodeSet] and [EncodeRoles].
const CurrentVersion = 1

var (
	// ErrMalformed is returned when a stored value is not a recognised layout.
	ErrMalformed = errors.New("malformed permission data")
	// ErrUnsupportedVersion is returned for an envelope with an unknown version.
	ErrUnsupportedVersion = errors.New("unsupported permission data version")
)

type envelope struct {
	Version int      `json:"v"`
	Items   []string `json:"items"`
}

// EncodeSet serializes s as a version 1 envelope with codes in ascending order.
func EncodeSet(s Set) (string, error) {
	return encodeItems(s.Codes())
}

// DecodeSet parses a stored permission set in any supported layout.
func DecodeSet(raw string) (Set, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return Set{}, err
	}
	return NewSet(items...), nil
}

// EncodeRoles serializes r as a version 1 envelope preserving order.
func EncodeRoles(r Roles) (string, error) {
	return encodeItems(r)
}

// DecodeRoles parses a stored role sequence in any supported layout. Order
// is preserved.
func DecodeRoles(raw string) (Roles, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	return Roles(items), nil
}

func encodeItems(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(envelope{Version: CurrentVersion, Items: items})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeItems(raw string) ([]string, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return nil, ErrMalformed
	}

	switch data[0] {
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return items, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if env.Version != CurrentVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
		}
		return env.Items, nil
	case 'n':
		if string(data) == "null" {
			return []string{}, nil
		}
	}
	return nil, ErrMalformed
}
