package roomv1

import "encoding/json"

// jsonCodec serves this package's hand-defined wire types over connect.
// Registering it under the name "json" routes application/json request
// bodies through encoding/json instead of the default protobuf codecs.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
