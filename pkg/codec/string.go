package codec

import "strings"

// String is a KeyCodec/ValueCodec over Go strings, encoded as their raw
// UTF-8 bytes. This is the codec the spec's literal end-to-end scenarios
// (K = V = string) exercise.
type String struct{}

func (String) Encode(v string) []byte { return []byte(v) }

func (String) Decode(b []byte) (string, error) { return string(b), nil }

func (String) Compare(a, b string) int { return strings.Compare(a, b) }
