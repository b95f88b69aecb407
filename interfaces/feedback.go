package interfaces

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FeedbackRecord is the off-chain attestation payload. It is map-backed so
// caller-supplied extra fields can override any computed field, and so the
// canonical serialization (sorted keys, compact JSON) falls directly out of
// encoding/json's map handling. Absent optional fields are omitted, not set
// to null; the omission is part of the canonical form.
type FeedbackRecord map[string]any

// Score returns the record's score clamped into [0,255] for the uint8 wire
// field, or 0 when absent or malformed.
func (r FeedbackRecord) Score() uint8 {
	switch v := r["score"].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return clampScore(f)
	case float64:
		return clampScore(v)
	case int:
		return clampScore(float64(v))
	default:
		return 0
	}
}

// Tag returns the n-th tag (1 or 2), or "" when absent.
func (r FeedbackRecord) Tag(n int) string {
	key := "tag1"
	if n == 2 {
		key = "tag2"
	}
	s, _ := r[key].(string)
	return s
}

func clampScore(f float64) uint8 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f)
}

// Confirmation is the finalized result of an on-chain submission.
type Confirmation struct {
	TxHash      common.Hash
	BlockNumber *big.Int
}

// FeedbackRegistry is the on-chain reputation registry collaborator. Score
// is a uint8 on the wire; tags are exactly 32 bytes each.
type FeedbackRegistry interface {
	// LastFeedbackIndex reads the last-used feedback index for the
	// (agent, submitter) pair.
	LastFeedbackIndex(ctx context.Context, agentID *big.Int, submitter common.Address) (uint64, error)

	// SubmitFeedback sends a feedback entry to the registry contract.
	SubmitFeedback(ctx context.Context, agentID *big.Int, score uint8, tag1, tag2 [32]byte, contentURI string, contentHash [32]byte, feedbackAuth []byte) (*types.Transaction, error)

	// WaitConfirmed blocks until the transaction is mined, returning
	// ErrSubmissionRejected when the receipt reports a revert.
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*Confirmation, error)

	// Address returns the registry contract address.
	Address() common.Address

	// ChainID returns the chain the registry is deployed on.
	ChainID() uint64
}

// RegistryFactory creates FeedbackRegistry clients per chain id.
type RegistryFactory interface {
	// RegistryFor returns the registry client for the chain, or
	// ErrUnsupportedChain when none is configured.
	RegistryFor(chainID uint64) (FeedbackRegistry, error)
}

// ContentStore is the pinning/storage collaborator. Pin writes to a single
// destination; Fetch retrieves through the store's configured gateway list.
type ContentStore interface {
	// Pin stores a document and returns its content URI.
	Pin(ctx context.Context, doc []byte) (ContentURI, error)

	// Fetch retrieves a previously pinned document, preferring the
	// earliest-configured gateway that succeeds.
	Fetch(ctx context.Context, uri ContentURI) ([]byte, error)
}
