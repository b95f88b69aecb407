// Package attest implements the feedback attestation pipeline: off-chain
// record construction, canonical hashing, verifier-compatible feedback
// authorization, and on-chain submission with nonce and confirmation
// handling.
package attest

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// RecordParams are the inputs for building a feedback record.
type RecordParams struct {
	AgentID   interfaces.AgentID
	Submitter common.Address
	Registry  common.Address

	// Score is the semantic 0..100 rating; rounded to the nearest
	// integer and clamped during construction.
	Score float64

	// Tags beyond the first two are ignored.
	Tags []string

	Skill          string
	TaskID         string
	Capability     string
	Name           string
	Context        map[string]any
	ProofOfPayment string

	CreatedAt time.Time

	// Extra is merged last and may override any computed field,
	// including score and createdAt. A nil value removes the key.
	Extra map[string]any
}

// NewFeedbackRecord builds the attestation payload. Pure and deterministic
// given a fixed CreatedAt. Absent optional fields are omitted entirely;
// the omission is part of the canonical form and affects the hash.
func NewFeedbackRecord(p RecordParams) interfaces.FeedbackRecord {
	score := math.Round(p.Score)
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	record := interfaces.FeedbackRecord{
		"agentRegistry": interfaces.CAIP10(p.AgentID.ChainID, p.Registry),
		"agentId":       json.Number(p.AgentID.TokenID.String()),
		"clientAddress": interfaces.CAIP10(p.AgentID.ChainID, p.Submitter),
		"createdAt":     p.CreatedAt.UTC().Format(time.RFC3339),
		"score":         json.Number(strconv.FormatInt(int64(score), 10)),
		"feedbackAuth":  "",
	}

	if len(p.Tags) > 0 && p.Tags[0] != "" {
		record["tag1"] = p.Tags[0]
	}
	if len(p.Tags) > 1 && p.Tags[1] != "" {
		record["tag2"] = p.Tags[1]
	}

	setIfNonEmpty(record, "skill", p.Skill)
	setIfNonEmpty(record, "taskId", p.TaskID)
	setIfNonEmpty(record, "capability", p.Capability)
	setIfNonEmpty(record, "name", p.Name)
	setIfNonEmpty(record, "proofOfPayment", p.ProofOfPayment)
	if p.Context != nil {
		record["context"] = p.Context
	}

	// Extra wins over every computed field. This is a deliberate escape
	// hatch for callers that need full control over the payload.
	for k, v := range p.Extra {
		if v == nil {
			delete(record, k)
			continue
		}
		record[k] = v
	}

	return record
}

func setIfNonEmpty(record interfaces.FeedbackRecord, key, value string) {
	if value != "" {
		record[key] = value
	}
}
