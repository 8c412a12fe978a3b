// Package jsonutil provides shared helpers for decoding the JSON documents
// stockdash reads from disk and the network.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v interface{}, context string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// UnmarshalObject decodes a JSON object into its raw members. A null or
// non-object document is an error.
func UnmarshalObject(data []byte, context string) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := UnmarshalWithContext(data, &m, context); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%s: expected a JSON object", context)
	}
	return m, nil
}
