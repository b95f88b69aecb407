package attest

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/agentrail/agent-registry-backend/registry"
)

func TestNextIndexIncrements(t *testing.T) {
	reg := &registry.MockRegistry{}
	reg.On("LastFeedbackIndex", mock.Anything, mock.Anything, mock.Anything).Return(uint64(7), nil)

	resolver := NewNonceResolver(nil)
	index := resolver.NextIndex(context.Background(), reg, big.NewInt(42), common.Address{})
	assert.Equal(t, uint64(8), index)
}

func TestNextIndexReadFailureAssumesFirst(t *testing.T) {
	reg := &registry.MockRegistry{}
	reg.On("LastFeedbackIndex", mock.Anything, mock.Anything, mock.Anything).
		Return(uint64(0), errors.New("rpc unavailable"))

	resolver := NewNonceResolver(nil)
	index := resolver.NextIndex(context.Background(), reg, big.NewInt(42), common.Address{})
	assert.Equal(t, uint64(1), index)
}
