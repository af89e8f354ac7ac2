package local

import (
	"bytes"
	"encoding/json"
	"fmt"

	"press-pass/core/pass"
)

func decodeCollection(data []byte) ([]pass.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode fallback collection: %w", err)
	}
	recs := make([]pass.Record, 0, len(raw))
	for _, entry := range raw {
		recs = append(recs, pass.Decode(entry))
	}
	return recs, nil
}

func encodeCollection(recs []pass.Record) ([]byte, error) {
	if recs == nil {
		recs = []pass.Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode fallback collection: %w", err)
	}
	return data, nil
}
