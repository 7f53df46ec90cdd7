package codec

import (
	"io"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// JSONv2 is a JSON codec backed by github.com/go-json-experiment/json.
// It rejects duplicate object names and invalid UTF-8, and writes map
// entries in sorted order.
type JSONv2 struct{}

// Marshal encodes the value to JSON.
func (JSONv2) Marshal(v any) ([]byte, error) { return json2.Marshal(v, json2.Deterministic(true)) }

// Unmarshal decodes the JSON data into v.
func (JSONv2) Unmarshal(data []byte, v any) error { return json2.Unmarshal(data, v) }

// Name returns the unique name of the codec ("jsonv2").
func (JSONv2) Name() string { return "jsonv2" }

// Encoder writes one JSON value per line to w.
type Encoder struct {
	enc *jsontext.Encoder
}

// NewEncoder creates an Encoder. Values are written compact, each
// followed by a newline.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: jsontext.NewEncoder(w)}
}

// Encode writes v.
func (e *Encoder) Encode(v any) error {
	return json2.MarshalEncode(e.enc, v, json2.Deterministic(true))
}
