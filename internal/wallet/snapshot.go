package wallet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Snapshot is the serialized wallet state persisted between runs. The private
// key travels in hex, so the snapshot file must be treated as a secret.
type Snapshot struct {
	NetworkID  string `json:"network_id"`
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

func (s Snapshot) Marshal() ([]byte, error) {
	buf, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal wallet snapshot: %w", err)
	}
	return buf, nil
}

func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode wallet snapshot: %w", err)
	}
	if strings.TrimSpace(snap.PrivateKey) == "" {
		return Snapshot{}, fmt.Errorf("wallet snapshot has no private key")
	}
	return snap, nil
}
