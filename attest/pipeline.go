package attest

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// SubmitRequest carries the caller-facing inputs of one feedback
// submission.
type SubmitRequest struct {
	// AgentID is the "<chainId>:<tokenId>" identifier string.
	AgentID string

	Score          float64
	Tags           []string
	Skill          string
	TaskID         string
	Capability     string
	Name           string
	Context        map[string]any
	ProofOfPayment string
	Extra          map[string]any

	// ExpiryHours bounds the authorization validity; defaults to 24.
	ExpiryHours uint64
}

// SubmitResult is returned once a submission is confirmed on-chain.
type SubmitResult struct {
	TxHash      common.Hash
	BlockNumber *big.Int
	Index       uint64
	Record      interfaces.FeedbackRecord
	ContentURI  interfaces.ContentURI
}

// Pipeline orchestrates one feedback submission end to end: identifier
// parsing, index resolution, record construction, best-effort content
// upload, authorization signing, on-chain submission and confirmation.
// All stages run strictly sequentially; each depends on the previous
// stage's output.
type Pipeline struct {
	registries interfaces.RegistryFactory
	store      interfaces.ContentStore
	signer     *Signer
	nonce      *NonceResolver
	log        *slog.Logger

	// now is the record-creation clock. Overridden in tests.
	now func() time.Time
}

// NewPipeline creates a feedback attestation pipeline. The content store
// may be nil, in which case records are submitted with an empty content
// reference and a zero hash.
func NewPipeline(registries interfaces.RegistryFactory, store interfaces.ContentStore, signer *Signer, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		registries: registries,
		store:      store,
		signer:     signer,
		nonce:      NewNonceResolver(log),
		log:        log,
		now:        time.Now,
	}
}

// Submit runs the full attestation pipeline for one feedback record.
//
// Content upload is best-effort: on failure the submission proceeds with
// an empty content reference and a zero hash. Every other stage failure
// is terminal. If the context is cancelled after the transaction was
// sent, the returned error is a confirmation timeout and the record may
// still land on-chain; callers must re-query to find out.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	agentID, err := interfaces.ParseAgentID(req.AgentID)
	if err != nil {
		return nil, err
	}

	reg, err := p.registries.RegistryFor(agentID.ChainID)
	if err != nil {
		return nil, err
	}

	submitter := p.signer.Address()
	index := p.nonce.NextIndex(ctx, reg, agentID.TokenID, submitter)

	record := NewFeedbackRecord(RecordParams{
		AgentID:        agentID,
		Submitter:      submitter,
		Registry:       reg.Address(),
		Score:          req.Score,
		Tags:           req.Tags,
		Skill:          req.Skill,
		TaskID:         req.TaskID,
		Capability:     req.Capability,
		Name:           req.Name,
		Context:        req.Context,
		ProofOfPayment: req.ProofOfPayment,
		CreatedAt:      p.now(),
		Extra:          req.Extra,
	})

	contentURI, contentHash := p.uploadContent(ctx, record)

	auth, err := p.signer.SignFeedbackAuth(AuthParams{
		TokenID:     agentID.TokenID,
		Submitter:   submitter,
		IndexLimit:  index,
		ChainID:     agentID.ChainID,
		Registry:    reg.Address(),
		ExpiryHours: req.ExpiryHours,
	})
	if err != nil {
		return nil, err
	}

	tx, err := reg.SubmitFeedback(ctx, agentID.TokenID, record.Score(),
		TagBytes32(record.Tag(1)), TagBytes32(record.Tag(2)),
		contentURI.String(), contentHash.Bytes32(), auth)
	if err != nil {
		return nil, err
	}

	p.log.Info("feedback submitted, awaiting confirmation",
		slog.String("agent_id", agentID.String()),
		slog.Uint64("index", index),
		slog.String("tx", tx.Hash().Hex()))

	conf, err := reg.WaitConfirmed(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		TxHash:      conf.TxHash,
		BlockNumber: conf.BlockNumber,
		Index:       index,
		Record:      record,
		ContentURI:  contentURI,
	}, nil
}

// uploadContent pins the canonical record and computes its hash. Both the
// serialization and the upload are best-effort: any failure yields an
// empty reference and a zero hash, signaling "no content reference"
// rather than aborting the submission.
func (p *Pipeline) uploadContent(ctx context.Context, record interfaces.FeedbackRecord) (interfaces.ContentURI, interfaces.ContentHash) {
	if p.store == nil {
		return "", interfaces.ContentHash{}
	}

	doc, err := CanonicalJSON(record)
	if err != nil {
		p.log.Warn("feedback record serialization failed, submitting without content", "err", err)
		return "", interfaces.ContentHash{}
	}

	uri, err := p.store.Pin(ctx, doc)
	if err != nil {
		p.log.Warn("content upload failed, submitting without content", "err", err)
		return "", interfaces.ContentHash{}
	}

	hash, err := CanonicalHash(record)
	if err != nil {
		return "", interfaces.ContentHash{}
	}
	return uri, hash
}

// TagBytes32 encodes a tag as a fixed-width field: UTF-8 bytes
// left-aligned and zero-padded to 32 bytes, truncated if longer.
func TagBytes32(tag string) [32]byte {
	var out [32]byte
	copy(out[:], tag)
	return out
}
