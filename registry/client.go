// Package registry provides clients for the on-chain agent reputation
// registry contract: feedback index reads, feedback submission, and
// confirmation tracking.
package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// reputationRegistryABI covers the two contract methods this backend uses.
const reputationRegistryABI = `[
	{"name":"getLastIndex","type":"function","stateMutability":"view","inputs":[{"name":"agentId","type":"uint256"},{"name":"clientAddress","type":"address"}],"outputs":[{"name":"","type":"uint64"}]},
	{"name":"giveFeedback","type":"function","stateMutability":"nonpayable","inputs":[{"name":"agentId","type":"uint256"},{"name":"score","type":"uint8"},{"name":"tag1","type":"bytes32"},{"name":"tag2","type":"bytes32"},{"name":"fileuri","type":"string"},{"name":"filehash","type":"bytes32"},{"name":"feedbackAuth","type":"bytes"}],"outputs":[]}
]`

// ReputationClient implements interfaces.FeedbackRegistry against a
// reputation registry contract deployed on a single chain.
type ReputationClient struct {
	contract *bind.BoundContract
	backend  bind.DeployBackend
	address  common.Address
	chainID  uint64
	auth     *bind.TransactOpts
}

// NewReputationClient creates a client for the registry contract at the
// specified address. It requires a ContractBackend for reads and a
// DeployBackend for confirmation tracking.
func NewReputationClient(client bind.ContractBackend, backend bind.DeployBackend, address common.Address, chainID uint64) (*ReputationClient, error) {
	parsed, err := abi.JSON(strings.NewReader(reputationRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parsing reputation registry ABI: %w", err)
	}

	return &ReputationClient{
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		backend:  backend,
		address:  address,
		chainID:  chainID,
	}, nil
}

// SetTransactOpts sets the transaction options required for methods that
// modify state. Must be called before SubmitFeedback.
func (c *ReputationClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// LastFeedbackIndex reads the last-used feedback index for the given agent
// and submitter pair.
func (c *ReputationClient) LastFeedbackIndex(ctx context.Context, agentID *big.Int, submitter common.Address) (uint64, error) {
	opts := &bind.CallOpts{Context: ctx}

	var out []interface{}
	if err := c.contract.Call(opts, &out, "getLastIndex", agentID, submitter); err != nil {
		return 0, fmt.Errorf("getLastIndex failed: %w", err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("getLastIndex returned %d values", len(out))
	}

	index, ok := out[0].(uint64)
	if !ok {
		return 0, fmt.Errorf("getLastIndex returned unexpected type %T", out[0])
	}
	return index, nil
}

// SubmitFeedback sends a feedback entry to the registry contract.
func (c *ReputationClient) SubmitFeedback(ctx context.Context, agentID *big.Int, score uint8, tag1, tag2 [32]byte, contentURI string, contentHash [32]byte, feedbackAuth []byte) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, interfaces.ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, "giveFeedback", agentID, score, tag1, tag2, contentURI, contentHash, feedbackAuth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrSubmissionRejected, err)
	}
	return tx, nil
}

// WaitConfirmed blocks until the transaction is mined. A reverted receipt
// surfaces as ErrSubmissionRejected; a cancelled or expired context as
// ErrConfirmationTimeout carrying the transaction hash.
func (c *ReputationClient) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*interfaces.Confirmation, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: tx %s", interfaces.ErrConfirmationTimeout, tx.Hash().Hex())
		}
		return nil, fmt.Errorf("waiting for confirmation of tx %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("%w: tx %s reverted", interfaces.ErrSubmissionRejected, tx.Hash().Hex())
	}

	return &interfaces.Confirmation{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
	}, nil
}

// Address returns the registry contract address.
func (c *ReputationClient) Address() common.Address {
	return c.address
}

// ChainID returns the chain the registry is deployed on.
func (c *ReputationClient) ChainID() uint64 {
	return c.chainID
}

// ChainConfig describes one supported chain: its RPC endpoint and the
// reputation registry contract deployed there.
type ChainConfig struct {
	RPCURL   string
	Registry common.Address
}

// Factory creates ReputationClient instances per chain id, dialing each
// chain's RPC endpoint on first use.
type Factory struct {
	chains map[uint64]ChainConfig
	auth   func(chainID uint64) (*bind.TransactOpts, error)

	mu      sync.Mutex
	clients map[uint64]*ReputationClient
}

// NewFactory creates a registry factory for the configured chains. The
// auth callback supplies per-chain transaction options; it may be nil for
// read-only use.
func NewFactory(chains map[uint64]ChainConfig, auth func(chainID uint64) (*bind.TransactOpts, error)) *Factory {
	return &Factory{
		chains:  chains,
		auth:    auth,
		clients: make(map[uint64]*ReputationClient),
	}
}

// RegistryFor returns the feedback registry client for the chain, or
// ErrUnsupportedChain when none is configured.
func (f *Factory) RegistryFor(chainID uint64) (interfaces.FeedbackRegistry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[chainID]; ok {
		return client, nil
	}

	cfg, ok := f.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrUnsupportedChain, chainID)
	}

	ethClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing RPC for chain %d: %w", chainID, err)
	}

	client, err := NewReputationClient(ethClient, ethClient, cfg.Registry, chainID)
	if err != nil {
		return nil, err
	}

	if f.auth != nil {
		opts, err := f.auth(chainID)
		if err != nil {
			return nil, fmt.Errorf("creating transactor for chain %d: %w", chainID, err)
		}
		client.SetTransactOpts(opts)
	}

	f.clients[chainID] = client
	return client, nil
}
