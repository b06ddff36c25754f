// Package codec selects the JSON implementation used for glyph records and
// reports. GoJSON is the default; JSON (encoding/json) is kept to
// cross-check it.
package codec

import (
	"fmt"
	"sort"
)

// Codec marshals and unmarshals JSON. Implementations are stateless.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Default is used by record decoding and the JSON reporter.
var Default Codec = GoJSON{}

var registry = map[string]Codec{
	GoJSON{}.Name(): GoJSON{},
	JSON{}.Name():   JSON{},
}

// ByName looks up a codec by the name it reports.
func ByName(name string) (Codec, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("codec: unknown codec %q (have %v)", name, Names())
	}
	return c, nil
}

// Names returns the registered codec names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustMarshal marshals v with c, or Default when c is nil, and panics on
// failure. Meant for tests and fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("codec: %s: %v", c.Name(), err))
	}
	return b
}
