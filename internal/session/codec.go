package session

import (
	"encoding/json"
	"fmt"
)

// EncodeState serializes a state for checkpoint storage. The transient
// resume input is deliberately not part of the encoding.
func EncodeState(st *State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// DecodeState deserializes a checkpointed state.
func DecodeState(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}
