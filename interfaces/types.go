// Package interfaces defines the core types and collaborator contracts for
// the agent registry backend. It provides the contract between components
// without implementation details.
package interfaces

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAgentID is returned when an agent identifier string cannot be
// parsed into a chain id and token id.
var ErrInvalidAgentID = errors.New("invalid agent identifier")

// ErrUnsupportedChain is returned when no registry is configured for the
// requested chain id.
var ErrUnsupportedChain = errors.New("no registry configured for chain")

// ErrSubmissionRejected is returned when the on-chain registry reverts or
// otherwise rejects a feedback submission.
var ErrSubmissionRejected = errors.New("feedback submission rejected by registry")

// ErrConfirmationTimeout is returned when a submitted transaction could not
// be confirmed before the caller's deadline. The transaction may still be
// mined later; callers must re-query to find out.
var ErrConfirmationTimeout = errors.New("feedback confirmation timed out")

// ErrContentUnavailable is returned when content could not be retrieved
// from any configured gateway.
var ErrContentUnavailable = errors.New("content unavailable from all gateways")

// ErrNoTransactOpts is returned when a transaction is attempted without
// first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// AgentID identifies an agent token on a specific chain. Parsed from a
// "<chainId>:<tokenId>" string and immutable afterwards.
type AgentID struct {
	ChainID uint64
	TokenID *big.Int
}

// ParseAgentID parses a "<chainId>:<tokenId>" identifier. Both components
// must be present, non-empty, base-10 and non-negative.
func ParseAgentID(s string) (AgentID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return AgentID{}, fmt.Errorf("%w: %q", ErrInvalidAgentID, s)
	}

	chainID, ok := parseDecimal(parts[0])
	if !ok {
		return AgentID{}, fmt.Errorf("%w: bad chain id %q", ErrInvalidAgentID, parts[0])
	}

	if !isDecimal(parts[1]) {
		return AgentID{}, fmt.Errorf("%w: bad token id %q", ErrInvalidAgentID, parts[1])
	}
	tokenID, ok := new(big.Int).SetString(parts[1], 10)
	if !ok {
		return AgentID{}, fmt.Errorf("%w: bad token id %q", ErrInvalidAgentID, parts[1])
	}

	return AgentID{ChainID: chainID, TokenID: tokenID}, nil
}

// String returns the canonical "<chainId>:<tokenId>" form.
func (id AgentID) String() string {
	return fmt.Sprintf("%d:%s", id.ChainID, id.TokenID.String())
}

func parseDecimal(s string) (uint64, bool) {
	if !isDecimal(s) {
		return 0, false
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ContentURI references a content-addressed document, e.g. "ipfs://<cid>".
type ContentURI string

// CID strips the scheme prefix and returns the bare content identifier.
func (u ContentURI) CID() string {
	return strings.TrimPrefix(string(u), "ipfs://")
}

// String returns the URI as a string.
func (u ContentURI) String() string {
	return string(u)
}

// ContentHash is the 32-byte Keccak-256 hash of a canonicalized document.
// The zero value signals "no content reference".
type ContentHash [32]byte

// IsZero reports whether the hash is all zero bytes.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// Bytes32 returns the fixed-size array for on-chain submission.
func (h ContentHash) Bytes32() [32]byte {
	return h
}

// CAIP10 formats an address as a network-qualified account identifier.
func CAIP10(chainID uint64, addr common.Address) string {
	return fmt.Sprintf("eip155:%d:%s", chainID, addr.Hex())
}
