package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) DecrementStock(ctx context.Context, id uuid.UUID, size Size, qty int) error {
	args := m.Called(ctx, id, size, qty)
	return args.Error(0)
}

func (m *MockRepository) IncrementStock(ctx context.Context, id uuid.UUID, size Size, qty int) error {
	args := m.Called(ctx, id, size, qty)
	return args.Error(0)
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestService_Restock(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, passthroughTx{})

		restocked := &Product{ID: id, TotalStock: 4, Status: StatusActive, Sizes: []SizeStock{{Size: SizeM, Stock: 4}}}
		repo.On("IncrementStock", mock.Anything, id, SizeM, 4).Return(nil)
		repo.On("GetByID", mock.Anything, id).Return(restocked, nil)

		p, err := svc.Restock(ctx, id, "m", 4)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, p.Status)
		repo.AssertExpectations(t)
	})

	t.Run("InvalidSize", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, passthroughTx{})

		_, err := svc.Restock(ctx, id, "3XL", 4)
		assert.ErrorIs(t, err, ErrInvalidSize)
		repo.AssertNotCalled(t, "IncrementStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, passthroughTx{})

		_, err := svc.Restock(ctx, id, "M", 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, passthroughTx{})

		repo.On("IncrementStock", mock.Anything, id, SizeM, 1).Return(ErrNotFound)

		_, err := svc.Restock(ctx, id, "M", 1)
		assert.ErrorIs(t, err, ErrNotFound)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
