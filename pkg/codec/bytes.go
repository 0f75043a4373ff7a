package codec

import "bytes"

// Bytes is the identity KeyCodec/ValueCodec over []byte: the encoded form
// is the input itself.
type Bytes struct{}

func (Bytes) Encode(v []byte) []byte { return v }

func (Bytes) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (Bytes) Compare(a, b []byte) int { return bytes.Compare(a, b) }
