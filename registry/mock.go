package registry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// MockRegistry mocks the interfaces.FeedbackRegistry interface.
type MockRegistry struct {
	mock.Mock
}

// LastFeedbackIndex mocks the LastFeedbackIndex method.
func (m *MockRegistry) LastFeedbackIndex(ctx context.Context, agentID *big.Int, submitter common.Address) (uint64, error) {
	args := m.Called(ctx, agentID, submitter)
	return args.Get(0).(uint64), args.Error(1)
}

// SubmitFeedback mocks the SubmitFeedback method.
func (m *MockRegistry) SubmitFeedback(ctx context.Context, agentID *big.Int, score uint8, tag1, tag2 [32]byte, contentURI string, contentHash [32]byte, feedbackAuth []byte) (*types.Transaction, error) {
	args := m.Called(ctx, agentID, score, tag1, tag2, contentURI, contentHash, feedbackAuth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transaction), args.Error(1)
}

// WaitConfirmed mocks the WaitConfirmed method.
func (m *MockRegistry) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*interfaces.Confirmation, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Confirmation), args.Error(1)
}

// Address mocks the Address method.
func (m *MockRegistry) Address() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

// ChainID mocks the ChainID method.
func (m *MockRegistry) ChainID() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

// MockRegistryFactory mocks the interfaces.RegistryFactory interface.
type MockRegistryFactory struct {
	mock.Mock
}

// RegistryFor mocks the RegistryFor method.
func (m *MockRegistryFactory) RegistryFor(chainID uint64) (interfaces.FeedbackRegistry, error) {
	args := m.Called(chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.FeedbackRegistry), args.Error(1)
}
