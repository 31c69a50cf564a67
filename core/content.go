package core

import (
	"encoding/json"
	"fmt"
)

// DecodeContent converts an open message payload into a typed request or
// response struct. Conversion goes through JSON so the typed structs can use
// ordinary json tags and the wire shape stays identical to a serialized
// message. Unknown payload fields are ignored; missing fields are left at
// their zero values and must be validated by the handler.
func DecodeContent(content map[string]any, out any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	return nil
}

// EncodeContent converts a typed response struct back into the open payload
// form carried by a Message.
func EncodeContent(in any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return content, nil
}
