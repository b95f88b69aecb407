package attest

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// CanonicalJSON serializes a record in its canonical form: compact JSON
// with keys sorted byte-wise lexicographically. encoding/json's map
// marshaling is exactly that definition; no further normalization is
// applied. Any change here breaks hash compatibility with existing
// on-chain records.
func CanonicalJSON(record interfaces.FeedbackRecord) ([]byte, error) {
	data, err := json.Marshal(map[string]any(record))
	if err != nil {
		return nil, fmt.Errorf("serializing feedback record: %w", err)
	}
	return data, nil
}

// CanonicalHash is the Keccak-256 of the canonical serialization.
func CanonicalHash(record interfaces.FeedbackRecord) (interfaces.ContentHash, error) {
	data, err := CanonicalJSON(record)
	if err != nil {
		return interfaces.ContentHash{}, err
	}
	return interfaces.ContentHash(crypto.Keccak256Hash(data)), nil
}
