package attest

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentrail/agent-registry-backend/interfaces"
	"github.com/agentrail/agent-registry-backend/registry"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Pin(ctx context.Context, doc []byte) (interfaces.ContentURI, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(interfaces.ContentURI), args.Error(1)
}

func (m *mockStore) Fetch(ctx context.Context, uri interfaces.ContentURI) ([]byte, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func pipelineFixture(t *testing.T, reg *registry.MockRegistry, store interfaces.ContentStore) *Pipeline {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	factory := &registry.MockRegistryFactory{}
	factory.On("RegistryFor", uint64(11155111)).Return(reg, nil)

	p := NewPipeline(factory, store, NewSigner(key), nil)
	p.now = func() time.Time { return testTime }
	return p
}

func mockTx() *types.Transaction {
	return types.NewTx(&types.LegacyTx{Nonce: 0, Gas: 21000, GasPrice: big.NewInt(1)})
}

func TestPipelineSubmit(t *testing.T) {
	registryAddr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tx := mockTx()

	reg := &registry.MockRegistry{}
	reg.On("Address").Return(registryAddr)
	reg.On("LastFeedbackIndex", mock.Anything, big.NewInt(42), mock.Anything).Return(uint64(7), nil)
	reg.On("SubmitFeedback", mock.Anything, big.NewInt(42), uint8(97),
		TagBytes32("helpful"), TagBytes32("fast"),
		"ipfs://QmTest", mock.Anything, mock.Anything).Return(tx, nil)
	reg.On("WaitConfirmed", mock.Anything, tx).
		Return(&interfaces.Confirmation{TxHash: tx.Hash(), BlockNumber: big.NewInt(100)}, nil)

	store := &mockStore{}
	store.On("Pin", mock.Anything, mock.Anything).Return(interfaces.ContentURI("ipfs://QmTest"), nil)

	p := pipelineFixture(t, reg, store)
	result, err := p.Submit(context.Background(), SubmitRequest{
		AgentID: "11155111:42",
		Score:   97,
		Tags:    []string{"helpful", "fast"},
	})
	require.NoError(t, err)

	assert.Equal(t, tx.Hash(), result.TxHash)
	assert.Equal(t, big.NewInt(100), result.BlockNumber)
	assert.Equal(t, uint64(8), result.Index)
	assert.Equal(t, interfaces.ContentURI("ipfs://QmTest"), result.ContentURI)

	// The submitted hash must be the canonical hash of the record, never zero.
	want, err := CanonicalHash(result.Record)
	require.NoError(t, err)
	for _, call := range reg.Calls {
		if call.Method == "SubmitFeedback" {
			assert.Equal(t, want.Bytes32(), call.Arguments.Get(6).([32]byte))
		}
	}
	reg.AssertExpectations(t)
}

func TestPipelineSubmitInvalidAgentID(t *testing.T) {
	p := pipelineFixture(t, &registry.MockRegistry{}, nil)
	_, err := p.Submit(context.Background(), SubmitRequest{AgentID: "not-an-id", Score: 50})
	assert.ErrorIs(t, err, interfaces.ErrInvalidAgentID)
}

func TestPipelineSubmitUnsupportedChain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	factory := &registry.MockRegistryFactory{}
	factory.On("RegistryFor", uint64(999)).Return(nil, interfaces.ErrUnsupportedChain)

	p := NewPipeline(factory, nil, NewSigner(key), nil)
	_, err = p.Submit(context.Background(), SubmitRequest{AgentID: "999:1", Score: 50})
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedChain)
}

func TestPipelineSubmitIndexReadFailureAssumesFirst(t *testing.T) {
	tx := mockTx()

	reg := &registry.MockRegistry{}
	reg.On("Address").Return(common.Address{})
	reg.On("LastFeedbackIndex", mock.Anything, mock.Anything, mock.Anything).
		Return(uint64(0), errors.New("rpc unavailable"))
	reg.On("SubmitFeedback", mock.Anything, big.NewInt(42), uint8(97),
		TagBytes32("helpful"), TagBytes32("fast"),
		"ipfs://QmFirst", mock.Anything, mock.Anything).Return(tx, nil)
	reg.On("WaitConfirmed", mock.Anything, tx).
		Return(&interfaces.Confirmation{TxHash: tx.Hash(), BlockNumber: big.NewInt(1)}, nil)

	store := &mockStore{}
	store.On("Pin", mock.Anything, mock.Anything).Return(interfaces.ContentURI("ipfs://QmFirst"), nil)

	p := pipelineFixture(t, reg, store)
	result, err := p.Submit(context.Background(), SubmitRequest{
		AgentID: "11155111:42",
		Score:   97,
		Tags:    []string{"helpful", "fast"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Index)

	// Upload succeeded, so the submitted hash is non-zero.
	for _, call := range reg.Calls {
		if call.Method == "SubmitFeedback" {
			assert.NotEqual(t, [32]byte{}, call.Arguments.Get(6).([32]byte))
		}
	}
	reg.AssertExpectations(t)
}

func TestPipelineSubmitUploadFailureProceedsWithoutContent(t *testing.T) {
	tx := mockTx()

	reg := &registry.MockRegistry{}
	reg.On("Address").Return(common.Address{})
	reg.On("LastFeedbackIndex", mock.Anything, mock.Anything, mock.Anything).Return(uint64(0), nil)
	reg.On("SubmitFeedback", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, "", [32]byte{}, mock.Anything).Return(tx, nil)
	reg.On("WaitConfirmed", mock.Anything, tx).
		Return(&interfaces.Confirmation{TxHash: tx.Hash(), BlockNumber: big.NewInt(1)}, nil)

	store := &mockStore{}
	store.On("Pin", mock.Anything, mock.Anything).
		Return(interfaces.ContentURI(""), errors.New("pin service unavailable"))

	p := pipelineFixture(t, reg, store)
	result, err := p.Submit(context.Background(), SubmitRequest{AgentID: "11155111:42", Score: 50})
	require.NoError(t, err)
	assert.Empty(t, result.ContentURI)
	reg.AssertExpectations(t)
}

func TestPipelineSubmitRejection(t *testing.T) {
	reg := &registry.MockRegistry{}
	reg.On("Address").Return(common.Address{})
	reg.On("LastFeedbackIndex", mock.Anything, mock.Anything, mock.Anything).Return(uint64(0), nil)
	reg.On("SubmitFeedback", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, interfaces.ErrSubmissionRejected)

	p := pipelineFixture(t, reg, nil)
	_, err := p.Submit(context.Background(), SubmitRequest{AgentID: "11155111:42", Score: 50})
	assert.ErrorIs(t, err, interfaces.ErrSubmissionRejected)
}
