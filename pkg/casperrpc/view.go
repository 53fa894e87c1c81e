package casperrpc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// View is the level of detail requested for block and deploy infos.
type View byte

// Possible views.
const (
	// BasicView returns summaries only.
	BasicView View = iota
	// FullView includes bodies, processing results and statistics.
	FullView
)

// String implements the fmt.Stringer interface.
func (v View) String() string {
	switch v {
	case BasicView:
		return "BASIC"
	case FullView:
		return "FULL"
	}
	return fmt.Sprintf("View(%d)", byte(v))
}

// ViewFromString parses "BASIC" or "FULL" (case-insensitive).
func ViewFromString(s string) (View, error) {
	switch strings.ToUpper(s) {
	case "BASIC", "":
		return BasicView, nil
	case "FULL":
		return FullView, nil
	}
	return 0, fmt.Errorf("unknown view %q", s)
}

// MarshalJSON implements the json.Marshaler interface.
func (v View) MarshalJSON() ([]byte, error) {
	if v > FullView {
		return nil, fmt.Errorf("unknown view %d", v)
	}
	return json.Marshal(v.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (v *View) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r, err := ViewFromString(s)
	if err != nil {
		return err
	}
	*v = r
	return nil
}
