package attest

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EncodedAuthLen is the fixed size of the ABI-encoded authorization tuple:
// seven statically-sized fields of one 32-byte word each. Everything past
// this offset in a feedback auth token is the signature.
const EncodedAuthLen = 7 * 32

// DefaultExpiryHours is the authorization validity window when the caller
// does not specify one.
const DefaultExpiryHours = 24

// AuthParams describe one feedback authorization. The encoded field order
// is a wire contract with the verifying contract; it must never change.
type AuthParams struct {
	TokenID    *big.Int
	Submitter  common.Address
	IndexLimit uint64
	ChainID    uint64
	Registry   common.Address

	// ExpiryHours defaults to DefaultExpiryHours when zero.
	ExpiryHours uint64
}

// Signer produces verifier-compatible feedback authorization tokens with
// its private key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address

	// Now is the clock used for expiry computation. Overridable in tests.
	Now func() time.Time
}

// NewSigner creates a Signer from the given key material.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		Now:     time.Now,
	}
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignFeedbackAuth builds the authorization token: the ABI-encoded tuple
// (tokenId, submitter, indexLimit, expiry, chainId, registry, signer)
// followed directly by a personal-sign signature over the Keccak-256 of
// the encoding. The token is never validated locally; only the on-chain
// verifier decodes it.
func (s *Signer) SignFeedbackAuth(p AuthParams) ([]byte, error) {
	expiryHours := p.ExpiryHours
	if expiryHours == 0 {
		expiryHours = DefaultExpiryHours
	}
	expiry := uint64(s.Now().Unix()) + expiryHours*3600

	encoded, err := packAuth(p, expiry, s.address)
	if err != nil {
		return nil, err
	}

	digest := crypto.Keccak256(encoded)
	sig, err := crypto.Sign(accounts.TextHash(digest), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing feedback auth: %w", err)
	}

	// Contract-side ecrecover expects v in {27, 28}.
	sig[64] += 27

	return append(encoded, sig...), nil
}

// SplitFeedbackAuth separates a token into its encoded prefix and
// signature. The token remains a byte buffer on the wire; this is its
// only decoding story on the client side.
func SplitFeedbackAuth(token []byte) (encoded, sig []byte, err error) {
	if len(token) < EncodedAuthLen+65 {
		return nil, nil, errors.New("feedback auth token too short")
	}
	return token[:EncodedAuthLen], token[EncodedAuthLen:], nil
}

func packAuth(p AuthParams, expiry uint64, signer common.Address) ([]byte, error) {
	uint256Ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		return nil, err
	}
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		return nil, err
	}
	addressTy, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}

	arguments := abi.Arguments{
		{Type: uint256Ty}, // tokenId
		{Type: addressTy}, // submitter
		{Type: uint64Ty},  // indexLimit
		{Type: uint64Ty},  // expiry
		{Type: uint256Ty}, // chainId
		{Type: addressTy}, // registry
		{Type: addressTy}, // signer
	}

	encoded, err := arguments.Pack(
		p.TokenID,
		p.Submitter,
		p.IndexLimit,
		expiry,
		new(big.Int).SetUint64(p.ChainID),
		p.Registry,
		signer,
	)
	if err != nil {
		return nil, fmt.Errorf("encoding feedback auth: %w", err)
	}
	return encoded, nil
}
