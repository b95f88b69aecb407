package attest

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// NonceResolver determines the next feedback index for an (agent,
// submitter) pair.
type NonceResolver struct {
	log *slog.Logger
}

// NewNonceResolver creates a resolver logging through the given logger.
func NewNonceResolver(log *slog.Logger) *NonceResolver {
	if log == nil {
		log = slog.Default()
	}
	return &NonceResolver{log: log}
}

// NextIndex returns lastIndex+1 from the registry. A failed read is not
// propagated: a first-time submitter has no index record, and that case
// is indistinguishable from a transient error here, so the resolver
// optimistically assumes first feedback and returns 1. A wrong guess
// collides on-chain and surfaces as a submission rejection, which callers
// must treat as authoritative over this local guess.
func (r *NonceResolver) NextIndex(ctx context.Context, reg interfaces.FeedbackRegistry, agentID *big.Int, submitter common.Address) uint64 {
	last, err := reg.LastFeedbackIndex(ctx, agentID, submitter)
	if err != nil {
		r.log.Warn("feedback index read failed, assuming first feedback",
			slog.String("agent_id", agentID.String()),
			slog.String("submitter", submitter.Hex()),
			"err", err)
		return 1
	}
	return last + 1
}
