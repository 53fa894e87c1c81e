package casperrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKeyVariant is returned for key types other than hash, uref,
// address and local.
var ErrUnknownKeyVariant = errors.New("unknown key variant")

// KeyVariant is the kind of the key a state query starts from.
type KeyVariant byte

// Key variants, the numbering follows the node protocol.
const (
	KeyVariantUnspecified KeyVariant = iota
	HashKeyVariant
	URefKeyVariant
	AddressKeyVariant
	LocalKeyVariant
)

var keyVariantNames = map[KeyVariant]string{
	HashKeyVariant:    "hash",
	URefKeyVariant:    "uref",
	AddressKeyVariant: "address",
	LocalKeyVariant:   "local",
}

// KeyVariantFromString parses key type name (hash, uref, address or
// local, case-insensitive).
func KeyVariantFromString(s string) (KeyVariant, error) {
	low := strings.ToLower(s)
	for v, name := range keyVariantNames {
		if name == low {
			return v, nil
		}
	}
	return KeyVariantUnspecified, fmt.Errorf("%w: %q", ErrUnknownKeyVariant, s)
}

// String implements the fmt.Stringer interface.
func (v KeyVariant) String() string {
	if name, ok := keyVariantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("KeyVariant(%d)", byte(v))
}

// MarshalJSON implements the json.Marshaler interface.
func (v KeyVariant) MarshalJSON() ([]byte, error) {
	name, ok := keyVariantNames[v]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVariant, v)
	}
	return json.Marshal(strings.ToUpper(name))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (v *KeyVariant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r, err := KeyVariantFromString(s)
	if err != nil {
		return err
	}
	*v = r
	return nil
}

// StateQuery describes the value to get from the global state: the key to
// start from and a path of named keys to follow.
type StateQuery struct {
	KeyVariant   KeyVariant `json:"key_variant"`
	KeyBase16    string     `json:"key_base16"`
	PathSegments []string   `json:"path_segments"`
}

// NewStateQuery creates a query for the given key of the given type, path
// is split on "/" with empty segments dropped.
func NewStateQuery(key string, path string, keyType string) (StateQuery, error) {
	v, err := KeyVariantFromString(keyType)
	if err != nil {
		return StateQuery{}, err
	}
	segments := []string{}
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return StateQuery{
		KeyVariant:   v,
		KeyBase16:    key,
		PathSegments: segments,
	}, nil
}
