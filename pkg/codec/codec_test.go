package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesRoundTrip(t *testing.T) {
	var c Bytes
	got, err := c.Decode(c.Encode([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	assert.Negative(t, c.Compare([]byte("a"), []byte("b")))
}

func TestStringRoundTrip(t *testing.T) {
	var c String
	got, err := c.Decode(c.Encode("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Zero(t, c.Compare("a", "a"))
	assert.Positive(t, c.Compare("b", "a"))
}

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	var c JSON[widget]
	in := widget{Name: "bolt", Count: 3}
	got, err := c.Decode(c.Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestHashKeyStable(t *testing.T) {
	a := HashKey([]byte("same"))
	b := HashKey([]byte("same"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, HashKey([]byte("different")))
}
