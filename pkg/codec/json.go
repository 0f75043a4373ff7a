package codec

import (
	"encoding/json"

	"github.com/arclsm/lsmkv/internal/dberr"
)

// JSON is a ValueCodec for any struct-like V, backed by encoding/json.
// It generalizes beyond the fixed byte/string codecs for callers that
// want structured values without writing their own encoder.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Marshal only fails for unsupported types (channels, funcs,
		// cyclic values) — a codec misuse bug, not a runtime condition
		// callers can recover from.
		panic(dberr.WrapIO(err, "codec: marshal json value"))
	}
	return b
}

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return v, dberr.WrapCorruptRecord(err, "codec: unmarshal json value")
	}
	return v, nil
}
