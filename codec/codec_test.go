package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID  string    `json:"id"`
	Vec []float64 `json:"vec"`
}

func TestByName(t *testing.T) {
	assert.Equal(t, []string{"go-json", "json"}, Names())
	for _, name := range Names() {
		c, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	_, err := ByName("msgpack")
	assert.ErrorContains(t, err, "msgpack")
}

func TestCodecsAgree(t *testing.T) {
	in := sample{ID: "g1", Vec: []float64{0.5, -1, 1e-300}}
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			b := MustMarshal(c, in)
			var out sample
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)

			ind, err := c.MarshalIndent(in, "", "  ")
			require.NoError(t, err)
			assert.Contains(t, string(ind), "\n  \"id\": \"g1\"")
		})
	}
}
