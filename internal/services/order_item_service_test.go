package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
	"github.com/lucas-ioliveira/ordering-system/internal/services"
)

func newOrderItemService(publisher services.EventPublisher) (*services.OrderItemService, *mockRegistry) {
	repos := newMockRegistry()
	tx := &mockTxManager{repos: repos}
	return services.NewOrderItemService(tx, repos, publisher, discardLogger()), repos
}

func pendingOrder(id, owner uint) *models.Order {
	return &models.Order{ID: id, UserID: owner, Status: models.StatusPending, Price: decimal.NewFromInt(20), Active: true}
}

func TestOrderItemService_CreateItem_RecomputesPrice(t *testing.T) {
	publisher := new(MockPublisher)
	svc, repos := newOrderItemService(publisher)
	ctx := context.Background()

	existing := models.OrderItem{ID: 1, OrderID: 10, Amount: 2, UnitPrice: decimal.NewFromInt(10), Active: true}
	added := models.OrderItem{ID: 2, OrderID: 10, Amount: 1, UnitPrice: decimal.NewFromInt(5), Active: true}

	repos.orders.On("GetByID", ctx, uint(10)).Return(pendingOrder(10, 2), nil).Once()
	repos.items.On("Create", ctx, mock.AnythingOfType("*models.OrderItem")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.OrderItem).ID = 2
	}).Return(nil).Once()
	repos.items.On("ListActiveByOrder", ctx, uint(10)).Return([]models.OrderItem{existing, added}, nil).Once()
	repos.orders.On("Save", ctx, mock.MatchedBy(func(o *models.Order) bool {
		return o.Price.Equal(decimal.NewFromInt(25))
	})).Return(nil).Once()
	publisher.On("Publish", ctx, "order.item_added", mock.Anything).Return(nil).Once()

	item, err := svc.CreateItem(ctx, &models.User{ID: 2}, services.CreateItemInput{
		OrderID: 10, Amount: 1, Flavor: "Chocolate", Size: "M", UnitPrice: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(2), item.ID)
	repos.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderItemService_CreateItem_RejectsClosedOrders(t *testing.T) {
	svc, repos := newOrderItemService(nil)
	ctx := context.Background()
	input := services.CreateItemInput{OrderID: 10, Amount: 1, UnitPrice: decimal.NewFromInt(5)}

	cancelled := pendingOrder(10, 2)
	cancelled.Status = models.StatusCancelled
	repos.orders.On("GetByID", ctx, uint(10)).Return(cancelled, nil).Once()

	_, err := svc.CreateItem(ctx, &models.User{ID: 2}, input)
	assert.ErrorIs(t, err, apperrors.ErrOrderAlreadyCancelled)

	finished := pendingOrder(10, 2)
	finished.Status = models.StatusFinished
	repos.orders.On("GetByID", ctx, uint(10)).Return(finished, nil).Once()

	_, err = svc.CreateItem(ctx, &models.User{ID: 2}, input)
	assert.ErrorIs(t, err, apperrors.ErrOrderAlreadyFinished)

	repos.items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repos.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderItemService_CreateItem_Forbidden(t *testing.T) {
	svc, repos := newOrderItemService(nil)
	ctx := context.Background()

	repos.orders.On("GetByID", ctx, uint(10)).Return(pendingOrder(10, 3), nil).Once()

	_, err := svc.CreateItem(ctx, &models.User{ID: 2}, services.CreateItemInput{OrderID: 10, Amount: 1, UnitPrice: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	repos.items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderItemService_CreateItem_Validation(t *testing.T) {
	svc, repos := newOrderItemService(nil)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, &models.User{ID: 2}, services.CreateItemInput{OrderID: 10, Amount: 0, UnitPrice: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateItem(ctx, &models.User{ID: 2}, services.CreateItemInput{OrderID: 10, Amount: 1, UnitPrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	repos.orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestOrderItemService_CreateItem_ConcurrentModification(t *testing.T) {
	svc, repos := newOrderItemService(nil)
	ctx := context.Background()

	repos.orders.On("GetByID", ctx, uint(10)).Return(pendingOrder(10, 2), nil).Once()
	repos.items.On("Create", ctx, mock.Anything).Return(nil).Once()
	repos.items.On("ListActiveByOrder", ctx, uint(10)).Return([]models.OrderItem{}, nil).Once()
	repos.orders.On("Save", ctx, mock.Anything).Return(apperrors.ErrConcurrentModification).Once()

	_, err := svc.CreateItem(ctx, &models.User{ID: 2}, services.CreateItemInput{OrderID: 10, Amount: 1, UnitPrice: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, apperrors.ErrConcurrentModification)
}

func TestOrderItemService_GetItem_ChecksOrderOwner(t *testing.T) {
	svc, repos := newOrderItemService(nil)
	ctx := context.Background()

	repos.items.On("GetByID", ctx, uint(7)).Return(&models.OrderItem{ID: 7, OrderID: 10}, nil)
	repos.orders.On("GetByID", ctx, uint(10)).Return(pendingOrder(10, 3), nil)

	_, err := svc.GetItem(ctx, &models.User{ID: 2}, 7)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	item, err := svc.GetItem(ctx, &models.User{ID: 3}, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), item.ID)
}

func TestOrderItemService_DeactivateItem(t *testing.T) {
	publisher := new(MockPublisher)
	svc, repos := newOrderItemService(publisher)
	ctx := context.Background()

	repos.items.On("GetByID", ctx, uint(2)).Return(&models.OrderItem{ID: 2, OrderID: 10, Active: true}, nil).Once()
	repos.orders.On("GetByID", ctx, uint(10)).Return(pendingOrder(10, 2), nil).Once()
	repos.items.On("Deactivate", ctx, uint(2)).Return(nil).Once()
	repos.items.On("ListActiveByOrder", ctx, uint(10)).Return([]models.OrderItem{
		{ID: 1, OrderID: 10, Amount: 2, UnitPrice: decimal.NewFromInt(10), Active: true},
	}, nil).Once()
	repos.orders.On("Save", ctx, mock.MatchedBy(func(o *models.Order) bool {
		return o.Price.Equal(decimal.NewFromInt(20))
	})).Return(nil).Once()
	publisher.On("Publish", ctx, "order.item_removed", mock.Anything).Return(errors.New("broker down")).Once()

	order, err := svc.DeactivateItem(ctx, &models.User{ID: 2}, 2)
	require.NoError(t, err, "publish failures do not fail the request")
	assert.True(t, order.Price.Equal(decimal.NewFromInt(20)))
	repos.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
