package remote

import (
	"bytes"
	"fmt"

	"gestor-go/internal/gestor"
)

// decodeFetched decodes a remote document. An empty document ("{}" or no
// body) means the user has no data yet.
func decodeFetched(raw []byte) (*gestor.Snapshot, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}
	snap, err := gestor.DecodeSnapshot(trimmed)
	if err != nil {
		return nil, false, fmt.Errorf("remote document: %w", err)
	}
	return snap, true, nil
}
